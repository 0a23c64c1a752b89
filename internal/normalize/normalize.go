// Package normalize turns untrusted perception output into canonical events.
//
// Perception providers are asked for strict JSON but routinely wrap it in
// prose or markdown code fences. The normalizer locates the embedded payload,
// parses it, and coerces every field into its closed domain so that whatever
// reaches the scoring engine is valid by construction.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"adpulse/internal/model"
)

// ParseError reports perception output whose structured payload could not be
// located or parsed. It carries the raw text for the audit trail.
type ParseError struct {
	Raw string
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("normalize: %s", e.Msg)
}

// LowConfidenceError reports a successfully parsed event whose confidence is
// below the configured perception threshold. The event is well-formed but not
// eligible for scoring.
type LowConfidenceError struct {
	Event      model.CanonicalEvent
	Confidence float64
	Threshold  float64
}

func (e *LowConfidenceError) Error() string {
	return fmt.Sprintf("normalize: confidence %.2f below threshold %.2f", e.Confidence, e.Threshold)
}

// Normalizer validates and coerces raw perception output.
type Normalizer struct {
	confidenceThreshold float64
}

// New creates a normalizer with the given perception-confidence threshold.
func New(confidenceThreshold float64) *Normalizer {
	return &Normalizer{confidenceThreshold: confidenceThreshold}
}

// rawPayload mirrors the JSON contract the perception provider is prompted
// to satisfy. Confidence is kept raw because providers sometimes emit it as
// a quoted string.
type rawPayload struct {
	EventType     string          `json:"event_type"`
	Intensity     string          `json:"intensity"`
	Confidence    json.RawMessage `json:"confidence"`
	CrowdReaction string          `json:"crowd_reaction"`
	Summary       string          `json:"summary"`
}

// Normalize parses raw perception output into a CanonicalEvent.
//
// A malformed payload returns a *ParseError. A parsed event below the
// confidence threshold returns the event wrapped in a *LowConfidenceError.
// Field-level normalization itself never fails: unknown event types collapse
// to "unknown", unknown intensities to "low", and unparsable confidence to 0.
func (n *Normalizer) Normalize(raw string) (*model.CanonicalEvent, error) {
	payload, err := extractPayload(raw)
	if err != nil {
		return nil, &ParseError{Raw: raw, Msg: err.Error()}
	}

	var parsed rawPayload
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, &ParseError{Raw: raw, Msg: fmt.Sprintf("invalid JSON payload: %v", err)}
	}

	ev := &model.CanonicalEvent{
		EventType:     model.ParseEventType(parsed.EventType),
		Intensity:     model.ParseIntensity(parsed.Intensity),
		Confidence:    coerceConfidence(parsed.Confidence),
		CrowdReaction: strings.TrimSpace(parsed.CrowdReaction),
		Summary:       strings.TrimSpace(parsed.Summary),
	}

	if ev.Confidence < n.confidenceThreshold {
		return nil, &LowConfidenceError{
			Event:      *ev,
			Confidence: ev.Confidence,
			Threshold:  n.confidenceThreshold,
		}
	}

	return ev, nil
}

// extractPayload locates the JSON object embedded in raw model output,
// tolerating one layer of code-fence wrapping and surrounding prose.
func extractPayload(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("empty perception output")
	}

	// Strip one layer of markdown fencing.
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}

	// Locate the outermost object within any remaining prose.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object found in output")
	}

	return strings.TrimSpace(text[start : end+1]), nil
}

// coerceConfidence parses a confidence value that may be a number, a quoted
// number, or garbage. The result is clamped to [0,1]; anything unparsable
// becomes 0.
func coerceConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return model.ClampConfidence(f)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return model.ClampConfidence(f)
		}
	}

	return 0
}
