// Package server assembles the HTTP router shared by the three binaries and
// runs it until the process is asked to stop.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/client"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/handler"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

// CORS is the cross-origin policy for the JSON API.
type CORS struct {
	AllowedOrigins []string
	MaxAge         time.Duration
}

// Options selects what the router serves. API and Pages are each optional.
type Options struct {
	Logger  *slog.Logger
	Metrics *telemetry.Metrics
	API     handler.TaskService
	Pages   *handler.PageHandler
	// CORS is nil when cross-origin requests are not allowed.
	CORS *CORS
}

// NewRouter returns the instrumented handler for o. The JSON API is mounted
// at /api/tasks and /tasks; /health is never traced.
func NewRouter(o Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handler.RequestLogger(o.Logger))
	r.Use(handler.Recoverer(o.Logger))
	r.Use(middleware.CleanPath)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(handler.RecordMetrics(o.Metrics))
	if o.CORS != nil {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: o.CORS.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", client.RequestIDHeader},
			MaxAge:         int(o.CORS.MaxAge / time.Second),
		}))
	}

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/health", handler.Health)

	if o.API != nil {
		tasks := handler.NewTaskHandler(o.API, o.Logger, o.Metrics)
		r.Mount("/api/tasks", tasks.Routes())
		r.Mount("/tasks", tasks.Routes())
	}
	if o.Pages != nil {
		o.Pages.Routes(r)
	}

	return otelhttp.NewHandler(r, "http-server",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	)
}

// New returns an http.Server for h with the process-wide timeouts.
func New(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Run serves on ln until ctx is cancelled, then shuts the server down
// gracefully. It returns nil after a clean shutdown.
func Run(ctx context.Context, srv *http.Server, ln net.Listener, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "server listening", slog.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.InfoContext(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(ctx, "server forced to shutdown", slog.Any("error", err))
		return err
	}

	logger.InfoContext(ctx, "server stopped")
	return nil
}

// ListenAndRun listens on srv.Addr and calls Run.
func ListenAndRun(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return Run(ctx, srv, ln, logger)
}
