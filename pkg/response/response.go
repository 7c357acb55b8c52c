// Package response defines the JSON error envelope shared by the HTTP handlers and middlewares.
package response

const (
	// ServerErrorMessage is the only detail a production client sees for an internal failure.
	ServerErrorMessage = "server error"

	UnauthorizedMessage     = "Unauthorized request"
	BookmarkNotFoundMessage = "Bookmark Not Found"
	EmptyRequestBodyMessage = "Request body is empty"
	InvalidRequestMessage   = "Invalid request body"
)

// FieldError describes a single rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorBody struct {
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// ErrorResponse is rendered as {"error":{"message":"..."}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

var (
	UnauthorizedResponse     = Error(UnauthorizedMessage)
	BookmarkNotFoundResponse = Error(BookmarkNotFoundMessage)
	EmptyRequestBodyResponse = Error(EmptyRequestBodyMessage)
	InvalidRequestResponse   = Error(InvalidRequestMessage)
)

func Error(msg string, fields ...FieldError) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Message: msg,
			Fields:  fields,
		},
	}
}

// ServerError builds the body of a 500 response. The error text is only
// included when expose is true.
func ServerError(err error, expose bool) ErrorResponse {
	if !expose || err == nil {
		return Error(ServerErrorMessage)
	}

	return Error(err.Error())
}
