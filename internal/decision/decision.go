// Package decision implements the threshold-based ad decision layer.
//
// No AI here. The entire decision surface is two constants: a score below the
// ignore threshold produces no ad, a score at or above the aggressive
// threshold produces an aggressive ad, everything between produces a soft ad.
package decision

import (
	"fmt"

	"adpulse/internal/model"
)

// Engine makes ad-generation decisions from scores.
type Engine struct {
	ignoreThreshold     float64
	aggressiveThreshold float64
}

// NewEngine creates a decision engine with the given thresholds.
func NewEngine(cfg model.DecisionConfig) *Engine {
	return &Engine{
		ignoreThreshold:     cfg.IgnoreThreshold,
		aggressiveThreshold: cfg.AggressiveThreshold,
	}
}

// Decide maps a score to a decision. Pure and total: boundaries are inclusive
// on the lower bound of each band, so a score exactly at a threshold belongs
// to the higher band. The event type appears only in the reason text.
func (e *Engine) Decide(score float64, eventType model.EventType) model.Decision {
	if eventType == "" {
		eventType = model.EventUnknown
	}

	if score < e.ignoreThreshold {
		return model.Decision{
			GenerateAd: false,
			Urgency:    model.UrgencyIgnore,
			Reason: fmt.Sprintf("Score %.1f below threshold (%.1f). Event type: %s",
				score, e.ignoreThreshold, eventType),
		}
	}

	if score >= e.aggressiveThreshold {
		return model.Decision{
			GenerateAd: true,
			Urgency:    model.UrgencyAggressive,
			Reason: fmt.Sprintf("Score %.1f >= %.1f: high-value moment. Event type: %s. Aggressive ad recommended",
				score, e.aggressiveThreshold, eventType),
		}
	}

	return model.Decision{
		GenerateAd: true,
		Urgency:    model.UrgencySoft,
		Reason: fmt.Sprintf("Score %.1f in moderate range [%.1f-%.1f). Event type: %s. Soft ad recommended",
			score, e.ignoreThreshold, e.aggressiveThreshold, eventType),
	}
}
