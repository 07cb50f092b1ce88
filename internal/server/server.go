// Package server exposes the journal over a local JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"forex-journal/internal/config"
	"forex-journal/internal/journal"
)

// maxBodyBytes bounds a POST body; screenshots travel inline as data URLs.
const maxBodyBytes = 32 << 20

// Server serves the journal API.
type Server struct {
	journal     *journal.Service
	logger      zerolog.Logger
	cfg         config.ServerConfig
	recentCount int
	router      chi.Router
}

// New creates the API server and its routes.
func New(svc *journal.Service, cfg config.ServerConfig, recentCount int, logger zerolog.Logger) *Server {
	if recentCount <= 0 {
		recentCount = 5
	}
	s := &Server{
		journal:     svc,
		logger:      logger.With().Str("component", "server").Logger(),
		cfg:         cfg,
		recentCount: recentCount,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(observe)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(refresh(s.journal, s.logger))

		r.Get("/health", s.health)
		r.Get("/analytics", s.analytics)

		r.Route("/trades", func(r chi.Router) {
			r.Get("/", s.listTrades)
			r.Post("/", s.createTrade)
			r.Get("/{id}", s.getTrade)
			r.Delete("/{id}", s.deleteTrade)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("API server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info().Msg("Shutting down API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
