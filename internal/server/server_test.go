package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"adpulse/internal/cache"
	"adpulse/internal/model"
	"adpulse/internal/pipeline"
	"adpulse/internal/store"
)

// fakeProcessor returns a canned outcome and records the requests it sees.
type fakeProcessor struct {
	outcome *pipeline.Outcome
	err     error
	seen    []pipeline.SegmentRequest
}

func (f *fakeProcessor) ProcessSegment(ctx context.Context, req pipeline.SegmentRequest) (*pipeline.Outcome, error) {
	f.seen = append(f.seen, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func scoredOutcome() *pipeline.Outcome {
	return &pipeline.Outcome{
		Kind: pipeline.OutcomeScoredWithAd,
		Record: model.PipelineRecord{
			ID:        "rec-1",
			StartSec:  30,
			EndSec:    45,
			EventType: model.EventTouchdown,
			Score:     8,
			Urgency:   model.UrgencyAggressive,
		},
		Ad: &model.AdContent{
			ID:       "ad-1",
			RecordID: "rec-1",
			AdCopy:   "TOUCHDOWN! Grab a slice!",
		},
		Explanation: "Score 8.0 >= 7.0: high-value moment",
	}
}

func newTestServer(t *testing.T, proc pipeline.Processor) (*httptest.Server, *MediaRegistry, store.Store) {
	t.Helper()

	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open store failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	media := NewMediaRegistry(cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	mux := http.NewServeMux()
	New(proc, st, media).Register(mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, media, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func TestAnalyzeSegment(t *testing.T) {
	proc := &fakeProcessor{outcome: scoredOutcome()}
	ts, _, _ := newTestServer(t, proc)

	resp := postJSON(t, ts.URL+"/api/analyze-segment", map[string]any{
		"start_sec": 30,
		"end_sec":   45,
		"media_ref": "file:///game.mp4",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Outcome != pipeline.OutcomeScoredWithAd {
		t.Errorf("Expected scored_with_ad, got %s", body.Outcome)
	}
	if body.Ad == nil || body.Ad.AdCopy == "" {
		t.Error("Expected ad content in response")
	}
	if len(proc.seen) != 1 || proc.seen[0].MediaRef != "file:///game.mp4" {
		t.Errorf("Processor saw unexpected requests: %+v", proc.seen)
	}
}

func TestAnalyzeSegment_UsesRegisteredMedia(t *testing.T) {
	proc := &fakeProcessor{outcome: scoredOutcome()}
	ts, media, _ := newTestServer(t, proc)

	if err := media.Register("gs://bucket/game.mp4"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	resp := postJSON(t, ts.URL+"/api/analyze-segment", map[string]any{
		"start_sec": 0,
		"end_sec":   10,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if len(proc.seen) != 1 || proc.seen[0].MediaRef != "gs://bucket/game.mp4" {
		t.Errorf("Expected registered media ref, got %+v", proc.seen)
	}
}

func TestAnalyzeSegment_NoMedia(t *testing.T) {
	ts, _, _ := newTestServer(t, &fakeProcessor{outcome: scoredOutcome()})

	resp := postJSON(t, ts.URL+"/api/analyze-segment", map[string]any{
		"start_sec": 0,
		"end_sec":   10,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestAnalyzeSegment_InvalidWindow(t *testing.T) {
	ts, _, _ := newTestServer(t, &fakeProcessor{outcome: scoredOutcome()})

	tests := []map[string]any{
		{"start_sec": -1, "end_sec": 10, "media_ref": "x"},
		{"start_sec": 10, "end_sec": 10, "media_ref": "x"},
		{"start_sec": 10, "end_sec": 5, "media_ref": "x"},
	}

	for _, body := range tests {
		resp := postJSON(t, ts.URL+"/api/analyze-segment", body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400 for %v, got %d", body, resp.StatusCode)
		}
	}
}

func TestAnalyzeSegment_PipelineError(t *testing.T) {
	ts, _, _ := newTestServer(t, &fakeProcessor{err: errors.New("persist record: disk full")})

	resp := postJSON(t, ts.URL+"/api/analyze-segment", map[string]any{
		"start_sec": 0,
		"end_sec":   10,
		"media_ref": "x",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", resp.StatusCode)
	}
}

func TestRegisterAndStatus(t *testing.T) {
	ts, _, _ := newTestServer(t, &fakeProcessor{outcome: scoredOutcome()})

	resp := postJSON(t, ts.URL+"/api/register-media", map[string]string{"media_ref": "gs://bucket/game.mp4"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	statusResp, err := http.Get(ts.URL + "/api/media-status")
	if err != nil {
		t.Fatalf("GET media-status failed: %v", err)
	}
	defer statusResp.Body.Close()

	var status struct {
		MediaRef string `json:"media_ref"`
		Ready    bool   `json:"ready"`
	}
	if err := json.NewDecoder(statusResp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Ready || status.MediaRef != "gs://bucket/game.mp4" {
		t.Errorf("Unexpected status: %+v", status)
	}
}

func TestRegisterMedia_Empty(t *testing.T) {
	ts, _, _ := newTestServer(t, &fakeProcessor{outcome: scoredOutcome()})

	resp := postJSON(t, ts.URL+"/api/register-media", map[string]string{"media_ref": "   "})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestEventsAndAds(t *testing.T) {
	ts, _, st := newTestServer(t, &fakeProcessor{outcome: scoredOutcome()})

	rec := &model.PipelineRecord{
		ID:        "rec-1",
		StartSec:  0,
		EndSec:    10,
		EventType: model.EventGoal,
		Intensity: model.IntensityHigh,
		Score:     6,
		Urgency:   model.UrgencySoft,
	}
	if err := st.CreateRecord(context.Background(), rec); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if err := st.AttachAd(context.Background(), &model.AdContent{ID: "ad-1", RecordID: "rec-1", AdCopy: "x"}); err != nil {
		t.Fatalf("AttachAd failed: %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/events")
	if err != nil {
		t.Fatalf("GET events failed: %v", err)
	}
	defer resp.Body.Close()
	var events []model.PipelineRecord
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 1 || events[0].ID != "rec-1" {
		t.Errorf("Unexpected events: %+v", events)
	}

	adsResp, err := http.Get(ts.URL + "/api/ads")
	if err != nil {
		t.Fatalf("GET ads failed: %v", err)
	}
	defer adsResp.Body.Close()
	var ads []model.AdContent
	if err := json.NewDecoder(adsResp.Body).Decode(&ads); err != nil {
		t.Fatalf("decode ads: %v", err)
	}
	if len(ads) != 1 || ads[0].RecordID != "rec-1" {
		t.Errorf("Unexpected ads: %+v", ads)
	}
}

func TestReset(t *testing.T) {
	ts, media, st := newTestServer(t, &fakeProcessor{outcome: scoredOutcome()})

	if err := st.CreateRecord(context.Background(), &model.PipelineRecord{ID: "rec-1", EndSec: 10}); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if err := media.Register("gs://bucket/game.mp4"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	resp := postJSON(t, ts.URL+"/api/reset", map[string]string{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	records, err := st.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty store after reset, got %d records", len(records))
	}
	if _, ok := media.Current(); ok {
		t.Error("Expected media registry cleared after reset")
	}
}

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t, &fakeProcessor{outcome: scoredOutcome()})

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body["status"] != "ok" || body["database"] != "connected" {
		t.Errorf("Unexpected health: %v", body)
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts, _, st := newTestServer(t, &fakeProcessor{outcome: scoredOutcome()})

	if err := st.CreateRecord(context.Background(), &model.PipelineRecord{ID: "rec-1", EndSec: 10, DiscardKind: model.DiscardLowConfidence}); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/metrics")
	if err != nil {
		t.Fatalf("GET metrics failed: %v", err)
	}
	defer resp.Body.Close()

	var stats model.PipelineStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalSegments != 1 || stats.SegmentsDiscarded != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _, _ := newTestServer(t, &fakeProcessor{outcome: scoredOutcome()})

	// GET on a POST-only route
	resp, err := http.Get(ts.URL + "/api/analyze-segment")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}

	// POST on a GET-only route
	postResp := postJSON(t, ts.URL+"/api/events", map[string]string{})
	postResp.Body.Close()
	if postResp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", postResp.StatusCode)
	}
}
