// Package creative defines the creative collaborator: an external text
// service that turns a scored and decided event into advertisement copy.
// Providers never see raw video and never decide whether an ad should exist —
// the decision engine has already settled that by the time they are called.
package creative

import (
	"context"
	"fmt"
	"strings"

	"adpulse/internal/model"
)

// Request carries everything the provider needs to write an ad.
type Request struct {
	EventType    model.EventType
	Urgency      model.Urgency
	Summary      string
	BusinessName string
	BusinessType string
}

// Result is the provider's answer. Success is always explicit: a transport or
// parse error yields Success=false with Error set.
type Result struct {
	Success         bool
	AdCopy          string
	PromoSuggestion string
	Hashtags        []string
	LatencyMS       int64
	Error           string
}

// Provider is the creative collaborator interface.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Generate writes ad content for one decided event.
	Generate(ctx context.Context, req Request) Result

	// IsAvailable checks if the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// Config holds creative provider configuration.
type Config struct {
	// Provider name: "openai", "ollama" or "" (disabled)
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible providers
	APIKey string

	// BaseURL for custom endpoints (compatible gateways, Ollama)
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	// MaxTokens caps the response length
	MaxTokens int
}

// NewProvider creates a creative provider from configuration. An empty
// provider name returns (nil, nil): ad generation disabled.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "ollama":
		return NewOllamaProvider(cfg)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown creative provider: %s (supported: openai, ollama)", cfg.Provider)
	}
}

// systemPrompt keeps the copywriter short, constrained, and JSON-only.
const systemPrompt = `You are a sports marketing copywriter. Generate SHORT, PUNCHY ads.

Rules:
- ad_copy: 1-2 sentences MAX. Reference the game moment.
- promo_suggestion: A specific deal (%, $, or BOGO).
- hashtags: 2-3 relevant hashtags.
- Match urgency to tone: "aggressive"=exciting, "soft"=subtle.

Output ONLY valid JSON:
{
  "ad_copy": "Your ad text here",
  "promo_suggestion": "Specific promo deal",
  "hashtags": ["#hashtag1", "#hashtag2"]
}`

// buildUserPrompt renders the event context for the provider.
func buildUserPrompt(req Request) string {
	name := req.BusinessName
	if name == "" {
		name = "Local Business"
	}
	kind := req.BusinessType
	if kind == "" {
		kind = "general"
	}
	summary := req.Summary
	if summary == "" {
		summary = "Exciting game moment"
	}

	return fmt.Sprintf("Event: %s\nDescription: %s\nUrgency: %s\nBusiness: %s (%s)\n\nGenerate an ad for this moment. JSON only.",
		strings.ToUpper(string(req.EventType)), summary, req.Urgency, name, kind)
}
