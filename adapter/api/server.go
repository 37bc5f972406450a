// Package api provides the HTTP surface of the booking engine.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/telensor/agenda/pkg/observability"
)

// Server is the HTTP API server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	handler *BookingHandler
	health  *observability.HealthRegistry
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new API server. The health registry may be nil.
func NewServer(cfg ServerConfig, handler *BookingHandler, health *observability.HealthRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if health == nil {
		health = observability.NewHealthRegistry()
	}

	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		logger:  logger,
		handler: handler,
		health:  health,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.withRequestIDs(s.mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/v1/disponibilidad", s.handler.Availability)
	s.mux.HandleFunc("POST /api/v1/reservas", s.handler.CreateReservation)
	s.mux.HandleFunc("POST /api/v1/bloqueos", s.handler.CreateBlocking)
	s.mux.HandleFunc("POST /api/v1/reset", s.handler.Reset)
}

// handleHealth runs the registered health checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	results := s.health.Check(r.Context())
	status := http.StatusOK
	overall := observability.HealthStatusHealthy
	for _, res := range results {
		if res.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
			overall = observability.HealthStatusUnhealthy
			break
		}
		if res.Status == observability.HealthStatusDegraded {
			overall = observability.HealthStatusDegraded
		}
	}
	writeJSON(w, status, map[string]any{
		"status": overall,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": results,
	})
}

// withRequestIDs tags every request with a request ID (minted unless the
// client sent X-Request-ID) and propagates an X-Correlation-ID header when
// present, so log records written under the request context carry both.
func (s *Server) withRequestIDs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithRequestID(r.Context(), r.Header.Get("X-Request-ID"))
		if corr := r.Header.Get("X-Correlation-ID"); corr != "" {
			ctx = observability.WithCorrelationID(ctx, corr)
		}
		w.Header().Set("X-Request-ID", observability.RequestIDFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.withRequestIDs(s.mux)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
