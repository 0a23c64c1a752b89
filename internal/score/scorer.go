// Package score implements the deterministic event scoring engine.
//
// Scoring is pure data plus one fold: fixed lookup tables contribute additive
// terms, the running sum is clamped to [0,10], and every applied rule leaves
// a human-readable reason. No AI, no randomness — every score can be
// explained from its reasons alone.
package score

import (
	"fmt"
	"strings"

	"adpulse/internal/model"
)

// eventTypeScores is the base contribution per event type.
// Positive means ad-worthy, negative means skip.
var eventTypeScores = map[model.EventType]int{
	model.EventGoal:         4,
	model.EventTouchdown:    4,
	model.EventInterception: 3,
	model.EventFumble:       3,
	model.EventBigPlay:      3,
	model.EventCelebration:  2,
	model.EventPenalty:      1,
	model.EventHalftime:     1,
	model.EventTackle:       0,
	model.EventTimeout:      -1,
	model.EventInjury:       -1,
	model.EventUnknown:      -2,
}

// fallbackEventScore covers event types missing from the table so the
// function stays total over any CanonicalEvent.
const fallbackEventScore = -2

// intensityScores is the intensity modifier table.
var intensityScores = map[model.Intensity]int{
	model.IntensityHigh:   2,
	model.IntensityMedium: 1,
	model.IntensityLow:    0,
}

// crowdKeyword pairs a crowd-reaction keyword with its bonus. The slice order
// is the tie-break: the first matching keyword wins and at most one bonus is
// ever applied.
type crowdKeyword struct {
	keyword string
	bonus   int
}

var crowdKeywords = []crowdKeyword{
	{"loud", 2},
	{"roar", 2},
	{"cheer", 2},
	{"wild", 2},
	{"silent", -1},
	{"boo", 1},
	{"gasp", 1},
}

const (
	minScore = 0.0
	maxScore = 10.0
)

// Scorer calculates event scores with itemized reasons.
type Scorer struct {
	confidenceThreshold float64
	confidencePenalty   float64
}

// NewScorer creates a scorer with the given confidence-penalty settings.
func NewScorer(cfg model.ScoringConfig) *Scorer {
	return &Scorer{
		confidenceThreshold: cfg.ConfidencePenaltyThreshold,
		confidencePenalty:   cfg.ConfidencePenalty,
	}
}

// Score maps a canonical event to a score in [0,10] plus the ordered list of
// contributions. Deterministic and side-effect-free: identical input yields
// identical output across runs.
func (s *Scorer) Score(ev model.CanonicalEvent) model.ScoreResult {
	var reasons []string
	sum := 0.0

	// 1. Base contribution from event type. Always recorded, even when 0.
	base, ok := eventTypeScores[ev.EventType]
	if !ok {
		base = fallbackEventScore
	}
	sum += float64(base)
	reasons = append(reasons, fmt.Sprintf("Event type '%s': %+d", ev.EventType, base))

	// 2. Intensity modifier; recorded only when non-zero. Missing table
	// entries contribute 0.
	intensity := intensityScores[ev.Intensity]
	sum += float64(intensity)
	if intensity != 0 {
		reasons = append(reasons, fmt.Sprintf("Intensity '%s': %+d", ev.Intensity, intensity))
	}

	// 3. Confidence penalty below the threshold.
	if ev.Confidence < s.confidenceThreshold {
		sum += s.confidencePenalty
		reasons = append(reasons, fmt.Sprintf("Low confidence (%.2f): %+.0f", ev.Confidence, s.confidencePenalty))
	}

	// 4. Crowd-reaction bonus: first matching keyword in table order wins.
	if ev.CrowdReaction != "" {
		crowd := strings.ToLower(ev.CrowdReaction)
		for _, ck := range crowdKeywords {
			if strings.Contains(crowd, ck.keyword) {
				sum += float64(ck.bonus)
				reasons = append(reasons, fmt.Sprintf("Crowd '%s': %+d", ck.keyword, ck.bonus))
				break
			}
		}
	}

	// 5. Clamp to [0,10], noting the pre- and post-clamp values when the
	// clamp changed anything.
	clamped := sum
	if clamped < minScore {
		clamped = minScore
	}
	if clamped > maxScore {
		clamped = maxScore
	}
	if clamped != sum {
		reasons = append(reasons, fmt.Sprintf("Clamped from %.1f to %.1f", sum, clamped))
	}

	return model.ScoreResult{
		Score:   clamped,
		Reasons: reasons,
	}
}

// Explain renders a human-readable breakdown of the score for an event.
func (s *Scorer) Explain(ev model.CanonicalEvent) string {
	result := s.Score(ev)

	var b strings.Builder
	fmt.Fprintf(&b, "Score: %.1f/10\n", result.Score)
	b.WriteString("Breakdown:\n")
	for _, reason := range result.Reasons {
		fmt.Fprintf(&b, "  - %s\n", reason)
	}
	return b.String()
}
