// Package api - Thin, deterministic API layer
// The API is ONLY responsible for: input ingestion, engine orchestration, output serialization.
// The API NEVER performs cost logic.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"warehouse-cost/core/pricing"
	"warehouse-cost/internal/config"
	"warehouse-cost/internal/errors"
	"warehouse-cost/internal/logging"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

type ctxKey struct{}

// Server is the API server
type Server struct {
	mux      *http.ServeMux
	version  string
	cfg      *config.Config
	registry *pricing.Registry
	metrics  *Metrics
	logger   *zap.Logger
}

// NewServer creates a new API server. Collectors are registered with reg,
// which also backs the metrics endpoint.
func NewServer(version string, cfg *config.Config, registry *pricing.Registry, reg *prometheus.Registry) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if registry == nil {
		registry = pricing.NewDefaultRegistry()
	}

	s := &Server{
		mux:      http.NewServeMux(),
		version:  version,
		cfg:      cfg,
		registry: registry,
		metrics:  NewMetrics(reg),
		logger:   logging.With(zap.String("component", "api")),
	}

	s.registerRoutes(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes(metrics http.Handler) {
	// Core endpoints
	s.mux.HandleFunc("POST /estimate", s.handleEstimate)
	s.mux.HandleFunc("POST /compare", s.handleCompare)
	s.mux.HandleFunc("POST /diff", s.handleDiff)

	// Supporting endpoints
	s.mux.HandleFunc("GET /catalogs", s.handleListCatalogs)
	s.mux.HandleFunc("GET /catalogs/{name}", s.handleGetCatalog)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)

	metricsPath := s.cfg.Server.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	s.mux.Handle("GET "+metricsPath, metrics)
}

// ServeHTTP implements http.Handler. Every request gets an ID, an access
// log line and request metrics.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)
	r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, requestID))

	_, endpoint := s.mux.Handler(r)
	if endpoint == "" {
		endpoint = "unmatched"
	}

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)

	elapsed := time.Since(start)
	s.metrics.observeRequest(endpoint, rec.status, elapsed)
	s.logger.Info("request served",
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("duration", elapsed),
	)
}

// ListenAndServe starts the server and shuts it down when ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":   "healthy",
		"version":  s.version,
		"catalogs": len(s.registry.Names()),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version": s.version,
		"catalog": s.cfg.Pricing.Catalog,
	}, http.StatusOK)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}

// writeError writes a bare error response
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, details := errorDetails(err)
	s.writeJSON(w, map[string]interface{}{
		"request_id": requestIDFrom(r),
		"status":     "error",
		"errors":     details,
	}, status)
}

func requestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

// statusFor maps an error to an HTTP status code
func statusFor(err error) int {
	t, ok := errors.TypeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch t {
	case errors.TypeInput, errors.TypeConfig, errors.TypeParsing:
		return http.StatusBadRequest
	case errors.TypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
