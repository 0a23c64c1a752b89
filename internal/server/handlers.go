package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"adpulse/internal/pipeline"
)

// analyzeRequest mirrors the public contract for POST /api/analyze-segment.
type analyzeRequest struct {
	StartSec     int    `json:"start_sec"`
	EndSec       int    `json:"end_sec"`
	MediaRef     string `json:"media_ref,omitempty"`
	BusinessName string `json:"business_name,omitempty"`
	BusinessType string `json:"business_type,omitempty"`
}

func (r analyzeRequest) validate() error {
	if r.StartSec < 0 {
		return errors.New("start_sec must be non-negative")
	}
	if r.EndSec <= r.StartSec {
		return errors.New("end_sec must be greater than start_sec")
	}
	return nil
}

// handleAnalyzeSegment runs the full pipeline for one segment.
func (s *Server) handleAnalyzeSegment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Resolve the media reference: explicit in the request, or the
	// registry's current one.
	mediaRef := strings.TrimSpace(req.MediaRef)
	if mediaRef == "" {
		current, ok := s.media.Current()
		if !ok {
			writeError(w, http.StatusBadRequest, "no media registered; register media first or pass media_ref")
			return
		}
		mediaRef = current
	}

	outcome, err := s.processor.ProcessSegment(r.Context(), pipeline.SegmentRequest{
		MediaRef:     mediaRef,
		StartSec:     req.StartSec,
		EndSec:       req.EndSec,
		BusinessName: req.BusinessName,
		BusinessType: req.BusinessType,
	})
	if err != nil {
		// Only persistence and configuration problems surface here; discards
		// and creative failures come back as outcomes.
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, analysisResponse{
		Outcome:        outcome.Kind,
		Event:          outcome.Record,
		Ad:             outcome.Ad,
		DecisionReason: outcome.Explanation,
	})
}

// handleEvents returns all persisted records.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	records, err := s.store.ListRecords(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleAds returns all generated ads.
func (s *Server) handleAds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	ads, err := s.store.ListAds(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ads)
}

// handleStats returns aggregate pipeline statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	stats, err := s.store.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleReset clears all persisted data and the media registry.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	if err := s.store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.media.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "cleared",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleHealth reports liveness and store connectivity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	dbStatus := "connected"
	if _, err := s.store.Stats(r.Context()); err != nil {
		dbStatus = "error"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// registerMediaRequest mirrors the contract for POST /api/register-media.
type registerMediaRequest struct {
	MediaRef string `json:"media_ref"`
}

// handleRegisterMedia stores the active media reference.
func (s *Server) handleRegisterMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req registerMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.MediaRef) == "" {
		writeError(w, http.StatusBadRequest, "media_ref is required")
		return
	}

	if err := s.media.Register(strings.TrimSpace(req.MediaRef)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"media_ref": strings.TrimSpace(req.MediaRef),
		"status":    "ready",
	})
}

// handleMediaStatus reports the currently registered media reference.
func (s *Server) handleMediaStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	current, ok := s.media.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"media_ref": current,
		"ready":     ok,
	})
}
