package http

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/vadimbarashkov/bookmarks/internal/entity"
	"github.com/vadimbarashkov/bookmarks/pkg/response"
)

// sanitizer strips every tag and escapes the remaining text. Policies are safe for concurrent use.
var sanitizer = bluemonday.StrictPolicy()

// bookmarkRequest is the body of both create and patch requests. Nil fields were not supplied.
type bookmarkRequest struct {
	Title  *string  `json:"title" validate:"omitnil,min=1"`
	URL    *string  `json:"url" validate:"omitnil,weburl"`
	Desc   *string  `json:"desc"`
	Rating *float64 `json:"rating" validate:"omitnil,rating"`
}

// missingField returns the first field a create request must carry but does not.
func (req *bookmarkRequest) missingField() (string, bool) {
	switch {
	case req.Title == nil:
		return "title", true
	case req.URL == nil:
		return "url", true
	case req.Rating == nil:
		return "rating", true
	default:
		return "", false
	}
}

// toDraft must only be called once missingField reported nothing and validation passed.
func (req *bookmarkRequest) toDraft() entity.BookmarkDraft {
	draft := entity.BookmarkDraft{
		Title:  *req.Title,
		URL:    *req.URL,
		Rating: int(*req.Rating),
	}
	if req.Desc != nil {
		draft.Desc = *req.Desc
	}

	return draft
}

func (req *bookmarkRequest) toPatch() entity.BookmarkPatch {
	patch := entity.BookmarkPatch{
		Title: req.Title,
		URL:   req.URL,
		Desc:  req.Desc,
	}
	if req.Rating != nil {
		rating := int(*req.Rating)
		patch.Rating = &rating
	}

	return patch
}

// bookmarkResponse is the public, client-safe form of a bookmark.
type bookmarkResponse struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Desc   string `json:"desc"`
	Rating int    `json:"rating"`
}

// toBookmarkResponse serializes a stored bookmark, sanitizing the free text fields.
func toBookmarkResponse(b *entity.Bookmark) bookmarkResponse {
	return bookmarkResponse{
		ID:     b.ID.String(),
		Title:  sanitizer.Sanitize(b.Title),
		URL:    b.URL,
		Desc:   sanitizer.Sanitize(b.Desc),
		Rating: b.Rating,
	}
}

func toBookmarkResponses(bookmarks []entity.Bookmark) []bookmarkResponse {
	resp := make([]bookmarkResponse, 0, len(bookmarks))
	for i := range bookmarks {
		resp = append(resp, toBookmarkResponse(&bookmarks[i]))
	}

	return resp
}

const emptyPatchMessage = "Request body must contain either 'title', 'url', 'desc' or 'rating'"

func requiredFieldResponse(field string) response.ErrorResponse {
	msg := fmt.Sprintf("'%s' is required", field)
	return response.Error(msg, response.FieldError{Field: field, Message: msg})
}

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(field, tag string) string {
	switch tag {
	case "min":
		return fmt.Sprintf("'%s' must not be empty", field)
	case "weburl":
		return fmt.Sprintf("'%s' must be a valid URL", field)
	case "rating":
		return fmt.Sprintf("'%s' must be a number between %d and %d", field, minRating, maxRating)
	default:
		return fmt.Sprintf("'%s' is invalid", field)
	}
}

// validationErrorResponse lists every rejected field; the first one doubles as the top level message.
func validationErrorResponse(err error) response.ErrorResponse {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return response.InvalidRequestResponse
	}

	fields := make([]response.FieldError, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, response.FieldError{
			Field:   e.Field(),
			Message: messageForTag(e.Field(), e.Tag()),
		})
	}

	return response.Error(fields[0].Message, fields...)
}
