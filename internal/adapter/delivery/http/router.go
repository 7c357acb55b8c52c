// Package http provides the HTTP delivery layer for the bookmarks service.
// This package contains the router, the bookmark handlers, the bearer token gate
// and the request and response schemas.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/unrolled/secure"
	"github.com/vadimbarashkov/bookmarks/docs"
	"github.com/vadimbarashkov/bookmarks/internal/metrics"
	"github.com/vadimbarashkov/bookmarks/pkg/middleware/recoverer"
)

const maxRequestBodyBytes = 1 << 20

// Options tunes the router. The zero value rejects every bookmark request because APIToken is empty.
type Options struct {
	// APIToken is the shared secret expected in "Authorization: Bearer <token>".
	APIToken string
	// ProtectRoot puts the greeting route behind the bearer token as well.
	ProtectRoot bool
	// ExposeErrors sends internal error text to clients. Never set it in production.
	ExposeErrors bool
	// Development relaxes the host and TLS related security checks.
	Development bool
	// RateLimitRequests per RateLimitWindow and client IP. Zero disables rate limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	AllowedOrigins    []string
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the bookmarks API.
func NewRouter(logger *httplog.Logger, useCase bookmarkUseCase, opts Options) *chi.Mux {
	r := chi.NewRouter()

	allowedOrigins := opts.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		IsDevelopment:      opts.Development,
	}).Handler)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(metrics.Middleware)
	r.Use(recoverer.New(logger.Logger, opts.ExposeErrors))
	r.Use(middleware.RequestSize(maxRequestBodyBytes))

	auth := requireBearerToken(opts.APIToken, logger.Logger)
	boundary := errorBoundary{exposeErrors: opts.ExposeErrors}

	r.Group(func(r chi.Router) {
		if opts.ProtectRoot {
			r.Use(auth)
		}

		r.Get("/", handleGreeting)
	})

	r.Handle("/metrics", metrics.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(docs.Swagger)
	})

	r.Route("/bookmarks", func(r chi.Router) {
		r.Use(auth)
		if opts.RateLimitRequests > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimitRequests, opts.RateLimitWindow))
		}

		h := newBookmarkHandler(useCase, newValidate(), logger.Logger)

		r.Get("/", boundary.handle(h.listBookmarks))
		r.Post("/", boundary.handle(h.createBookmark))

		r.Route("/{bookmarkID}", func(r chi.Router) {
			r.Get("/", boundary.handle(h.getBookmark))
			r.Patch("/", boundary.handle(h.modifyBookmark))
			r.Delete("/", boundary.handle(h.removeBookmark))
		})
	})

	return r
}
