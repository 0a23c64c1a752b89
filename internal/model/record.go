package model

import "time"

// ScoreResult is the scoring engine output: a clamped score plus the ordered
// list of contributions that produced it. Summing the numeric contributions
// and clamping to [0,10] reproduces Score exactly.
type ScoreResult struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// Decision is the decision engine output. GenerateAd is always equivalent to
// Urgency != UrgencyIgnore.
type Decision struct {
	GenerateAd bool    `json:"generate_ad"`
	Urgency    Urgency `json:"urgency"`
	Reason     string  `json:"reason"`
}

// DiscardKind distinguishes why a segment was discarded in the audit trail.
// The persisted record keeps transport errors apart from threshold discards.
type DiscardKind string

const (
	DiscardNone          DiscardKind = ""
	DiscardPerception    DiscardKind = "perception_failure"
	DiscardNormalization DiscardKind = "normalization_failure"
	DiscardLowConfidence DiscardKind = "low_confidence"
)

// PipelineRecord is the persisted outcome of one segment analysis. Created
// once per analyzed segment and immutable afterwards, except for the optional
// attachment of ad content when a creative call succeeds.
type PipelineRecord struct {
	ID string `json:"id"`

	// Time window
	StartSec int `json:"start_sec"`
	EndSec   int `json:"end_sec"`

	// Canonical event fields
	EventType     EventType `json:"event_type"`
	Intensity     Intensity `json:"intensity"`
	Confidence    float64   `json:"confidence"`
	CrowdReaction string    `json:"crowd_reaction,omitempty"`
	Summary       string    `json:"summary,omitempty"`

	// Scoring engine output
	Score        float64  `json:"score"`
	ScoreReasons []string `json:"score_reasons,omitempty"`

	// Decision engine output
	GenerateAd     bool    `json:"generate_ad"`
	Urgency        Urgency `json:"urgency"`
	DecisionReason string  `json:"decision_reason,omitempty"`

	// Discard audit
	DiscardKind DiscardKind `json:"discard_kind,omitempty"`

	// Raw perception response, kept for debugging
	RawResponse string `json:"raw_response,omitempty"`

	// Wall-clock latency of the perception call
	PerceptionLatencyMS int64 `json:"perception_latency_ms"`

	CreatedAt time.Time `json:"created_at"`
}

// Discarded reports whether the record is a terminal discard.
func (r *PipelineRecord) Discarded() bool {
	return r.DiscardKind != DiscardNone
}

// AdContent is generated advertisement content attached to a PipelineRecord.
type AdContent struct {
	ID       string `json:"id"`
	RecordID string `json:"record_id"`

	AdCopy          string   `json:"ad_copy"`
	PromoSuggestion string   `json:"promo_suggestion,omitempty"`
	Hashtags        []string `json:"hashtags,omitempty"`

	Urgency      Urgency `json:"urgency"`
	BusinessName string  `json:"business_name,omitempty"`
	BusinessType string  `json:"business_type,omitempty"`

	// Wall-clock latency of the creative call
	CreativeLatencyMS int64 `json:"creative_latency_ms"`

	CreatedAt time.Time `json:"created_at"`
}

// PipelineStats aggregates persisted records for the metrics endpoint.
type PipelineStats struct {
	TotalSegments        int     `json:"total_segments"`
	SegmentsDiscarded    int     `json:"segments_discarded"`
	AdsGenerated         int     `json:"ads_generated"`
	DiscardRate          float64 `json:"discard_rate"`
	AvgPerceptionLatency float64 `json:"avg_perception_latency_ms"`
	AvgCreativeLatency   float64 `json:"avg_creative_latency_ms"`
}
