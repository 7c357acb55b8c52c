package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/vadimbarashkov/bookmarks/pkg/response"
)

// handlerFunc is a handler whose unexpected failures are returned instead of written.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// errorBoundary answers 500 for every error a handlerFunc returns.
// Error text reaches the client only when exposeErrors is set.
type errorBoundary struct {
	exposeErrors bool
}

func (b errorBoundary) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerError(err, b.exposeErrors))
	}
}
