package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-group-warden/internal/config"
)

// Pinger reports whether a backing service still answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the operational endpoints: health and metrics.
type Server struct {
	cfg    *config.Config
	db     Pinger
	cache  Pinger
	log    *zerolog.Logger
	server *http.Server
}

func NewServer(cfg *config.Config, db, cache Pinger, logger *zerolog.Logger) *Server {
	srvLog := logger.With().Str("component", "OpsServer").Logger()
	return &Server{
		cfg:   cfg,
		db:    db,
		cache: cache,
		log:   &srvLog,
	}
}

func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Ops.Port),
		Handler: r,
	}

	s.log.Info().Int("port", s.cfg.Ops.Port).Msg("ops server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			s.log.Error().Err(err).Msg("database health check failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			s.log.Error().Err(err).Msg("redis health check failed")
			http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
