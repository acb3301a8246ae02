package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"codeberg.org/snonux/wortschatz/internal/entry"
)

// OpenAIGenerator implements Generator on the OpenAI chat completion API.
type OpenAIGenerator struct {
	client  *openai.Client
	config  *Config
	breaker *gobreaker.CircuitBreaker
}

// NewOpenAIGenerator creates a new OpenAI-backed generator.
func NewOpenAIGenerator(config *Config) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: openai.NewClient(config.OpenAIKey),
		config: config,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "openai-generate",
		}),
	}
}

// Generate asks the model for entry content and parses the answer.
func (g *OpenAIGenerator) Generate(ctx context.Context, query string, prefs entry.UserPreferences) (*Result, error) {
	model := g.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: g.config.systemPrompt(prefs),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: query,
			},
		},
		MaxTokens:   1000,
		Temperature: 0.3,
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.client.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		return nil, &GenerationError{Err: fmt.Errorf("OpenAI API error: %w", err)}
	}

	resp := out.(openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 {
		return nil, &GenerationError{Err: fmt.Errorf("no completion returned")}
	}

	return ParseResponse(strings.TrimSpace(resp.Choices[0].Message.Content))
}

// Name returns the provider name.
func (g *OpenAIGenerator) Name() string {
	return "openai"
}
