// Package perceive defines the perception collaborator: an external vision
// service that inspects a time-bounded media segment and emits a structured
// event description. Providers observe, they never decide — their raw output
// goes through the normalizer before anything downstream sees it.
package perceive

import (
	"context"
	"fmt"
	"strings"
)

// Request identifies one segment to analyze. MediaRef is an already-resolved
// opaque media reference; resolving uploads to references is the plumbing
// layer's job.
type Request struct {
	MediaRef string
	StartSec int
	EndSec   int
}

// Result is the perception provider's answer. Success is always explicit: a
// transport or provider error yields Success=false with Error set, never a
// silent empty result.
type Result struct {
	Success   bool
	RawText   string
	LatencyMS int64
	Error     string
}

// Provider is the perception collaborator interface.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Analyze inspects one segment and returns its raw structured output.
	Analyze(ctx context.Context, req Request) Result

	// IsAvailable checks if the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// Config holds perception provider configuration.
type Config struct {
	// Provider name: "openai" or "" (disabled)
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey authenticates against the provider
	APIKey string

	// BaseURL for OpenAI-compatible endpoints
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int
}

// NewProvider creates a perception provider from configuration. An empty
// provider name returns (nil, nil): perception disabled.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown perception provider: %s (supported: openai)", cfg.Provider)
	}
}

// analysisPrompt forces the provider into strict JSON output. Anything that
// deviates is handled (or rejected) by the normalizer.
const analysisPrompt = `Analyze this video clip for significant sports events.

You MUST respond with ONLY a valid JSON object in this exact format:
{
  "event_type": "goal|touchdown|tackle|interception|fumble|penalty|big_play|injury|halftime|timeout|celebration|unknown",
  "intensity": "low|medium|high",
  "summary": "Brief description of what happened",
  "crowd_reaction": "Description of crowd response",
  "confidence": 0.0
}

Rules:
- event_type MUST be one of the listed values
- intensity MUST be "low", "medium", or "high"
- confidence is your certainty (0.0 to 1.0)
- If nothing significant happens, use event_type "unknown" with low confidence
- Output ONLY the JSON object, no other text`

// buildUserPrompt renders the segment reference for the provider.
func buildUserPrompt(req Request) string {
	return fmt.Sprintf("Media: %s\nSegment: %ds to %ds\n\n%s",
		req.MediaRef, req.StartSec, req.EndSec, analysisPrompt)
}
