// Package server exposes the unified table and its aggregates over HTTP.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/posko/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"
)

// Loader returns the latest pipeline result. *cache.Memo[*pipeline.Result]
// satisfies it.
type Loader interface {
	Get(ctx context.Context) (*pipeline.Result, error)
	Refresh(ctx context.Context) (*pipeline.Result, error)
}

// Server serves the dashboard API.
type Server struct {
	loader  Loader
	metrics http.Handler
	logger  *slog.Logger
	refresh *rate.Limiter
	config  Config
}

// Config holds the listener settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// TLS enables HTTPS when non-nil.
	TLS *tls.Config
	// MinRefreshInterval limits forced refreshes through POST /api/refresh.
	MinRefreshInterval time.Duration
}

// New creates a server. metrics may be nil to disable /metrics.
func New(loader Loader, metrics http.Handler, config Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	interval := config.MinRefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Server{
		loader:  loader,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "server")),
		refresh: rate.NewLimiter(rate.Every(interval), 1),
		config:  config,
	}
}

// Routes returns the router for all endpoints.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/table", s.table)
		r.Get("/summary", s.summary)
		r.Get("/issues", s.issues)
		r.Get("/log", s.operatorLog)
		r.Post("/refresh", s.forceRefresh)
	})

	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		TLSConfig:         s.config.TLS,
	}

	errCh := make(chan error, 1)
	go func() {
		if srv.TLSConfig != nil {
			s.logger.Info("listening", "addr", s.config.Addr, "tls", true)
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		s.logger.Info("listening", "addr", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.DebugContext(r.Context(), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}
