// Package recoverer turns handler panics into JSON 500 responses.
package recoverer

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/render"
	"github.com/vadimbarashkov/bookmarks/pkg/response"
)

// New returns a middleware that recovers from panics, logs them and answers 500.
// The panic value is only sent to the client when expose is true.
func New(logger *slog.Logger, expose bool) func(http.Handler) http.Handler {
	const op = "middleware.recoverer.New"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}

				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error(
					"something went wrong, panic occurred",
					slog.Group(op,
						slog.Any("err", rvr),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())),
					),
				)

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerError(fmt.Errorf("panic: %v", rvr), expose))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
