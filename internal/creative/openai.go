package creative

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider against any OpenAI-compatible chat API.
// Pointing BaseURL at an OpenAI-compatible gateway covers hosted fast-inference
// backends as well.
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI-compatible creative provider.
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("creative API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured.
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creative API check failed: %v\n", err)
		return false
	}
	return true
}

// adPayload mirrors the JSON contract the provider is prompted to satisfy.
type adPayload struct {
	AdCopy          string   `json:"ad_copy"`
	PromoSuggestion string   `json:"promo_suggestion"`
	Hashtags        []string `json:"hashtags"`
}

// Generate requests ad content for one decided event. The call is
// wall-clocked; errors are reported through the Result's Success flag.
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) Result {
	model := p.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 200
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(req),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.7,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	started := time.Now()
	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	latency := time.Since(started).Milliseconds()

	if err != nil {
		return Result{
			Success:   false,
			LatencyMS: latency,
			Error:     fmt.Sprintf("creative API error: %v", err),
		}
	}

	if len(resp.Choices) == 0 {
		return Result{
			Success:   false,
			LatencyMS: latency,
			Error:     "no response from creative provider",
		}
	}

	return parseAdResponse(strings.TrimSpace(resp.Choices[0].Message.Content), latency)
}

// parseAdResponse validates the provider's JSON output.
func parseAdResponse(raw string, latencyMS int64) Result {
	var payload adPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Result{
			Success:   false,
			LatencyMS: latencyMS,
			Error:     fmt.Sprintf("JSON parse error: %v", err),
		}
	}

	return Result{
		Success:         true,
		AdCopy:          payload.AdCopy,
		PromoSuggestion: payload.PromoSuggestion,
		Hashtags:        payload.Hashtags,
		LatencyMS:       latencyMS,
	}
}
