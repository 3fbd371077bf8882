package diag

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rcoutinho/pdvgo/pkg/config"
	"github.com/rcoutinho/pdvgo/pkg/logger"
)

// Server is the local diagnostics listener: health and Prometheus metrics
// for the terminal process. It binds to loopback; it is an operational
// surface, not part of the operator-facing product.
type Server struct {
	http *http.Server
	log  *logger.Logger
}

// New builds the diagnostics server, nil when disabled by config.
func New(cfg config.DiagnosticsConfig, gatherer prometheus.Gatherer, log *logger.Logger) (*Server, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if gatherer == nil {
		return nil, fmt.Errorf("metrics gatherer required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}, nil
}

// Start serves until Shutdown; it blocks and is meant for a goroutine.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.log.Info(s.log.WithField(ctx, "addr", s.http.Addr), "diagnostics listener up")
	if err := s.http.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
