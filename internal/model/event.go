package model

import "strings"

// EventType classifies a detected match moment.
// The set is closed: anything the perception provider invents collapses to
// EventUnknown during normalization.
type EventType string

const (
	EventGoal         EventType = "goal"
	EventTouchdown    EventType = "touchdown"
	EventTackle       EventType = "tackle"
	EventInterception EventType = "interception"
	EventFumble       EventType = "fumble"
	EventPenalty      EventType = "penalty"
	EventBigPlay      EventType = "big_play"
	EventInjury       EventType = "injury"
	EventHalftime     EventType = "halftime"
	EventTimeout      EventType = "timeout"
	EventCelebration  EventType = "celebration"
	EventUnknown      EventType = "unknown"
)

// knownEventTypes is the closed enumeration accepted from perception output.
var knownEventTypes = map[EventType]bool{
	EventGoal:         true,
	EventTouchdown:    true,
	EventTackle:       true,
	EventInterception: true,
	EventFumble:       true,
	EventPenalty:      true,
	EventBigPlay:      true,
	EventInjury:       true,
	EventHalftime:     true,
	EventTimeout:      true,
	EventCelebration:  true,
	EventUnknown:      true,
}

// ParseEventType maps an arbitrary string to a member of the closed
// enumeration. Unrecognized values map to EventUnknown.
func ParseEventType(s string) EventType {
	et := EventType(strings.ToLower(strings.TrimSpace(s)))
	if knownEventTypes[et] {
		return et
	}
	return EventUnknown
}

// Intensity describes how energetic a moment is.
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// ParseIntensity maps an arbitrary string to an intensity level.
// Unrecognized values map to IntensityLow.
func ParseIntensity(s string) Intensity {
	switch Intensity(strings.ToLower(strings.TrimSpace(s))) {
	case IntensityMedium:
		return IntensityMedium
	case IntensityHigh:
		return IntensityHigh
	default:
		return IntensityLow
	}
}

// Urgency is the decision tier controlling how aggressive a generated ad
// should be.
type Urgency string

const (
	UrgencyIgnore     Urgency = "ignore"
	UrgencySoft       Urgency = "soft"
	UrgencyAggressive Urgency = "aggressive"
)

// CanonicalEvent is the normalized perception output. Every CanonicalEvent is
// valid input for scoring: the enum fields are always members of their closed
// sets and Confidence is always within [0,1].
type CanonicalEvent struct {
	EventType     EventType `json:"event_type"`
	Intensity     Intensity `json:"intensity"`
	Confidence    float64   `json:"confidence"`
	CrowdReaction string    `json:"crowd_reaction,omitempty"`
	Summary       string    `json:"summary,omitempty"`
}

// ClampConfidence clamps a confidence value into [0,1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
