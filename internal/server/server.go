// Package server exposes the serve-mode HTTP surface: the Telegram
// webhook endpoint, a health probe and prometheus metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avelichko/docsbot/pkg/logging"
)

const (
	readTimeout     = 5 * time.Second
	writeTimeout    = 60 * time.Second
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 10 * time.Second
)

type Server struct {
	http   *http.Server
	logger *logging.Logger
}

// New builds the router. webhookHandler may be nil when the bot runs on
// long polling; the route is simply not mounted then.
func New(listenAddr string, webhookHandler http.HandlerFunc) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	if webhookHandler != nil {
		r.Post("/telegram/webhook", webhookHandler)
	}

	return &Server{
		http: &http.Server{
			Addr:         listenAddr,
			Handler:      r,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		logger: logging.NewLogger("server"),
	}
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed is
// a normal shutdown, not an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server listening", "address", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	s.http.SetKeepAlivesEnabled(false)
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
