package store

import (
	"context"
	"errors"
	"testing"

	"adpulse/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleRecord(id string, start int) *model.PipelineRecord {
	return &model.PipelineRecord{
		ID:                  id,
		StartSec:            start,
		EndSec:              start + 10,
		EventType:           model.EventTouchdown,
		Intensity:           model.IntensityHigh,
		Confidence:          0.92,
		CrowdReaction:       "crowd roars",
		Summary:             "40-yard touchdown pass",
		Score:               8,
		ScoreReasons:        []string{"Event type 'touchdown': +4", "Intensity 'high': +2", "Crowd 'roar': +2"},
		GenerateAd:          true,
		Urgency:             model.UrgencyAggressive,
		DecisionReason:      "Score 8.0 >= 7.0: high-value moment",
		RawResponse:         `{"event_type":"touchdown"}`,
		PerceptionLatencyMS: 1200,
	}
}

func TestCreateAndListRecords(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.CreateRecord(ctx, sampleRecord("rec-2", 60)); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if err := st.CreateRecord(ctx, sampleRecord("rec-1", 30)); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}

	records, err := st.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	// Ordered by start time, not insertion order.
	if records[0].ID != "rec-1" || records[1].ID != "rec-2" {
		t.Errorf("Unexpected order: %s, %s", records[0].ID, records[1].ID)
	}

	got := records[0]
	if got.EventType != model.EventTouchdown {
		t.Errorf("EventType round-trip: got %s", got.EventType)
	}
	if got.Score != 8 {
		t.Errorf("Score round-trip: got %f", got.Score)
	}
	if len(got.ScoreReasons) != 3 {
		t.Errorf("ScoreReasons round-trip: got %v", got.ScoreReasons)
	}
	if !got.GenerateAd || got.Urgency != model.UrgencyAggressive {
		t.Errorf("Decision round-trip: %v / %s", got.GenerateAd, got.Urgency)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not populated")
	}
}

func TestAttachAd(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("rec-1", 0)
	if err := st.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}

	ad := &model.AdContent{
		ID:                "ad-1",
		RecordID:          rec.ID,
		AdCopy:            "TOUCHDOWN! Score big with 20% off!",
		PromoSuggestion:   "Flash sale for the next 10 minutes",
		Hashtags:          []string{"#TouchdownDeal", "#GameDay"},
		Urgency:           model.UrgencyAggressive,
		BusinessName:      "Joe's Pizza",
		BusinessType:      "restaurant",
		CreativeLatencyMS: 450,
	}
	if err := st.AttachAd(ctx, ad); err != nil {
		t.Fatalf("AttachAd failed: %v", err)
	}

	ads, err := st.ListAds(ctx)
	if err != nil {
		t.Fatalf("ListAds failed: %v", err)
	}
	if len(ads) != 1 {
		t.Fatalf("Expected 1 ad, got %d", len(ads))
	}
	if ads[0].RecordID != rec.ID {
		t.Errorf("RecordID round-trip: got %s", ads[0].RecordID)
	}
	if len(ads[0].Hashtags) != 2 || ads[0].Hashtags[0] != "#TouchdownDeal" {
		t.Errorf("Hashtags round-trip: got %v", ads[0].Hashtags)
	}
}

func TestAttachAd_RecordNotFound(t *testing.T) {
	st := openTestStore(t)

	err := st.AttachAd(context.Background(), &model.AdContent{
		ID:       "ad-1",
		RecordID: "no-such-record",
		AdCopy:   "orphan",
	})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	// Two scored records, one discarded.
	if err := st.CreateRecord(ctx, sampleRecord("rec-1", 0)); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if err := st.CreateRecord(ctx, sampleRecord("rec-2", 30)); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	discarded := sampleRecord("rec-3", 60)
	discarded.GenerateAd = false
	discarded.Urgency = model.UrgencyIgnore
	discarded.DiscardKind = model.DiscardLowConfidence
	if err := st.CreateRecord(ctx, discarded); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}

	if err := st.AttachAd(ctx, &model.AdContent{ID: "ad-1", RecordID: "rec-1", AdCopy: "x", CreativeLatencyMS: 100}); err != nil {
		t.Fatalf("AttachAd failed: %v", err)
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalSegments != 3 {
		t.Errorf("TotalSegments: expected 3, got %d", stats.TotalSegments)
	}
	if stats.SegmentsDiscarded != 1 {
		t.Errorf("SegmentsDiscarded: expected 1, got %d", stats.SegmentsDiscarded)
	}
	if stats.AdsGenerated != 1 {
		t.Errorf("AdsGenerated: expected 1, got %d", stats.AdsGenerated)
	}
	if stats.DiscardRate < 0.33 || stats.DiscardRate > 0.34 {
		t.Errorf("DiscardRate: expected ~0.33, got %f", stats.DiscardRate)
	}
	if stats.AvgPerceptionLatency != 1200 {
		t.Errorf("AvgPerceptionLatency: expected 1200, got %f", stats.AvgPerceptionLatency)
	}
}

func TestReset(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.CreateRecord(ctx, sampleRecord("rec-1", 0)); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if err := st.AttachAd(ctx, &model.AdContent{ID: "ad-1", RecordID: "rec-1", AdCopy: "x"}); err != nil {
		t.Fatalf("AttachAd failed: %v", err)
	}

	if err := st.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	records, err := st.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records after reset, got %d", len(records))
	}
	ads, err := st.ListAds(ctx)
	if err != nil {
		t.Fatalf("ListAds failed: %v", err)
	}
	if len(ads) != 0 {
		t.Errorf("Expected no ads after reset, got %d", len(ads))
	}
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/adpulse.db"

	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := st.CreateRecord(context.Background(), sampleRecord("rec-1", 0)); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopening applies the schema again without clobbering data.
	st2, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer st2.Close()

	records, err := st2.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record after reopen, got %d", len(records))
	}
}
