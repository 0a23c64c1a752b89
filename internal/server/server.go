// Package server exposes the analysis pipeline over HTTP. This layer routes
// requests, resolves media references, calls the pipeline, and shapes
// responses — business logic stays in the core packages.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"adpulse/internal/metrics"
	"adpulse/internal/model"
	"adpulse/internal/pipeline"
	"adpulse/internal/store"
)

// Server wires HTTP routes for the analysis API.
type Server struct {
	processor pipeline.Processor
	store     store.Store
	media     *MediaRegistry
}

// New creates an API server.
func New(processor pipeline.Processor, st store.Store, media *MediaRegistry) *Server {
	return &Server{
		processor: processor,
		store:     st,
		media:     media,
	}
}

// Register attaches all routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/analyze-segment", instrument(s.handleAnalyzeSegment, "analyze_segment"))
	mux.HandleFunc("/api/events", instrument(s.handleEvents, "events"))
	mux.HandleFunc("/api/ads", instrument(s.handleAds, "ads"))
	mux.HandleFunc("/api/metrics", instrument(s.handleStats, "stats"))
	mux.HandleFunc("/api/reset", instrument(s.handleReset, "reset"))
	mux.HandleFunc("/api/health", instrument(s.handleHealth, "health"))
	mux.HandleFunc("/api/register-media", instrument(s.handleRegisterMedia, "register_media"))
	mux.HandleFunc("/api/media-status", instrument(s.handleMediaStatus, "media_status"))
	mux.Handle("/metrics", metrics.Handler())
}

// ListenAndServe runs the server on addr until it fails.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	s.Register(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// statusRecorder captures the response status for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument wraps a handler with request logging and prometheus counters.
func instrument(h http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		h(rec, r)

		elapsed := time.Since(started)
		metrics.ObserveHTTPRequest(endpoint, rec.status, elapsed)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, elapsed)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// analysisResponse is the caller-facing shape of one segment analysis: the
// persisted event record, optional ad content, and the combined explanation.
type analysisResponse struct {
	Outcome        pipeline.OutcomeKind  `json:"outcome"`
	Event          model.PipelineRecord  `json:"event"`
	Ad             *model.AdContent      `json:"ad,omitempty"`
	DecisionReason string                `json:"decision_reason"`
}
