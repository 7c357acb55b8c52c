package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/bookmarks/internal/config"
	"github.com/vadimbarashkov/bookmarks/internal/usecase"
	"github.com/vadimbarashkov/bookmarks/migrations"
	"github.com/vadimbarashkov/bookmarks/pkg/postgres"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/bookmarks/internal/adapter/delivery/http"
	repository "github.com/vadimbarashkov/bookmarks/internal/adapter/repository/postgres"
)

const serviceName = "bookmarks"

// NewLogger returns the structured logger for env: JSON at INFO in production,
// concise text at DEBUG in development and verbose text otherwise.
func NewLogger(env string) *httplog.Logger {
	opts := httplog.Options{
		LogLevel:       slog.LevelDebug,
		Concise:        env == config.EnvDev,
		RequestHeaders: env != config.EnvProd,
	}

	if env == config.EnvProd {
		opts.JSON = true
		opts.LogLevel = slog.LevelInfo
	}

	return httplog.NewLogger(serviceName, opts)
}

func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := NewLogger(cfg.Env)

	db, err := postgres.New(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		postgres.WithConnectTimeout(cfg.Postgres.ConnectTimeout),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(migrations.FS, cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	bookmarkRepo := repository.NewBookmarkRepository(db, repository.WithQueryTimeout(cfg.Postgres.QueryTimeout))
	bookmarkUseCase := usecase.NewBookmarkUseCase(bookmarkRepo)

	router := delivery.NewRouter(logger, bookmarkUseCase, delivery.Options{
		APIToken:          cfg.Auth.APIToken,
		ProtectRoot:       cfg.Auth.ProtectRoot,
		ExposeErrors:      cfg.Env != config.EnvProd,
		Development:       cfg.Env == config.EnvDev,
		RateLimitRequests: cfg.RateLimit.Requests,
		RateLimitWindow:   cfg.RateLimit.Window,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
	})

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		logger.Info("server started", slog.String("addr", server.Addr), slog.String("env", cfg.Env))

		switch {
		case cfg.Env == config.EnvProd && cfg.HTTPServer.TLS():
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
