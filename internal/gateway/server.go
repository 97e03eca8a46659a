package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/alert"
)

// Server is the alert gateway's HTTP surface: ingestion, queries, and
// dashboard aggregations, backed by a single in-memory Store.
type Server struct {
	store   *Store
	router  *mux.Router
	server  *http.Server
	metrics *Metrics
	started time.Time
	addr    string
}

// NewServer builds a gateway server listening on addr (host:port).
func NewServer(addr string, store *Store) *Server {
	s := &Server{
		store:   store,
		router:  mux.NewRouter(),
		metrics: newMetrics(),
		started: time.Now(),
		addr:    addr,
	}
	s.setupRoutes()
	s.router.Use(s.loggingMiddleware, s.metricsMiddleware)
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/alerts", s.handlePostAlert).Methods("POST")
	s.router.HandleFunc("/alerts", s.handleGetAlerts).Methods("GET")
	s.router.HandleFunc("/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/attack-details", s.handleAttackDetails).Methods("GET")
	s.router.HandleFunc("/attack-type/{name}", s.handleAttackType).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// Start runs the HTTP server until it errors or is shut down.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	slog.Info("starting alert gateway", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// handlePostAlert implements §4.7.A ingestion. It always returns 202,
// even on a decode failure, to avoid client-side retry storms; a
// malformed body is coerced to an empty envelope rather than rejected.
func (s *Server) handlePostAlert(w http.ResponseWriter, r *http.Request) {
	var env alert.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		slog.Warn("failed to decode alert body, storing defensive default", "error", err)
	}

	stored := s.store.Append(env)
	s.metrics.alertsIngested.WithLabelValues(stored.Engine).Inc()
	s.metrics.alertsTotal.Set(float64(s.store.Len()))

	s.writeJSON(w, http.StatusAccepted, map[string]any{"accepted": true, "sequence": stored.Sequence})
}

func (s *Server) handleGetAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	engine := q.Get("engine")

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	alerts := FilterByEngine(s.store.Snapshot(), engine)
	alerts = Truncate(alerts, limit)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, ComputeStats(s.store.Snapshot()))
}

func (s *Server) handleAttackDetails(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"attack_details": ComputeAttackDetails(s.store.Snapshot()),
	})
}

func (s *Server) handleAttackType(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	alerts := ByAttackType(s.store.Snapshot(), name)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"attack_type": name,
		"count":       len(alerts),
		"alerts":      alerts,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"alert_count": s.store.Len(),
		"uptime":      time.Since(s.started).String(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		slog.Info("http request",
			"method", r.Method, "path", r.URL.Path,
			"status", wrapped.status, "duration", time.Since(start))
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.metrics.requestsTotal.WithLabelValues(r.Method, r.URL.Path, fmt.Sprintf("%d", wrapped.status)).Inc()
		s.metrics.requestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
