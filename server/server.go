// Package server provides the health and metrics HTTP endpoints of the
// worker process.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/minios-linux/pagetrans/config"
)

// StatusResponse is the body of the status endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}

// Server represents the HTTP server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
	cfg        config.ServerConfig
	metrics    config.MetricsConfig
}

// New creates the server and registers its routes. gatherer may be nil
// when metrics are disabled.
func New(cfg config.ServerConfig, metricsCfg config.MetricsConfig, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := mux.NewRouter()
	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{logger}))(router),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		gatherer: gatherer,
		logger:   logger,
		cfg:      cfg,
		metrics:  metricsCfg,
	}
	s.setupRoutes()
	return s
}

// recoveryLogger routes handler panics to zap.
type recoveryLogger struct {
	logger *zap.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error("HTTP handler panic", zap.String("panic", fmt.Sprint(v...)))
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.status("online")).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.status("healthy")).Methods(http.MethodGet)

	if s.metrics.Enabled && s.gatherer != nil {
		path := s.metrics.Path
		if path == "" {
			path = "/metrics"
		}
		s.router.Handle(path, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, StatusResponse{Status: "not found"})
	})
}

func (s *Server) status(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, StatusResponse{Status: status})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.Int("port", s.cfg.Port))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
