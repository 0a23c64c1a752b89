package perceive

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider against any OpenAI-compatible chat API.
// A custom BaseURL points it at compatible gateways that front video-capable
// models.
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI-compatible perception provider.
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("perception API key is required")
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
		fmt.Fprintf(os.Stderr, "perception API check failed: %v\n", err)
		return false
	}
	return true
}

// Analyze requests a structured event description for one segment. The call
// is wall-clocked; any transport or provider error is reported through the
// Result's Success flag, never as a Go error.
func (p *OpenAIProvider) Analyze(ctx context.Context, req Request) Result {
	model := p.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a sports video perception service. You observe and describe; you never decide.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(req),
			},
		},
		Temperature: 0.2,
	}

	started := time.Now()
	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	latency := time.Since(started).Milliseconds()

	if err != nil {
		return Result{
			Success:   false,
			LatencyMS: latency,
			Error:     fmt.Sprintf("perception API error: %v", err),
		}
	}

	if len(resp.Choices) == 0 {
		return Result{
			Success:   false,
			LatencyMS: latency,
			Error:     "no response from perception provider",
		}
	}

	return Result{
		Success:   true,
		RawText:   resp.Choices[0].Message.Content,
		LatencyMS: latency,
	}
}
