package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"codeberg.org/snonux/wortschatz/internal/entry"
)

// GeminiGenerator implements Generator on the Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	config  *Config
	breaker *gobreaker.CircuitBreaker
}

// NewGeminiGenerator creates a new Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, config *Config) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		config: config,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "gemini-generate",
		}),
	}, nil
}

// Generate asks the model for entry content and parses the answer.
func (g *GeminiGenerator) Generate(ctx context.Context, query string, prefs entry.UserPreferences) (*Result, error) {
	model := g.config.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.config.systemPrompt(prefs), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.3),
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.client.Models.GenerateContent(ctx, model, genai.Text(query), cfg)
	})
	if err != nil {
		return nil, &GenerationError{Err: fmt.Errorf("Gemini API error: %w", err)}
	}

	resp := out.(*genai.GenerateContentResponse)
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, &GenerationError{Err: fmt.Errorf("no completion returned")}
	}

	return ParseResponse(text)
}

// Name returns the provider name.
func (g *GeminiGenerator) Name() string {
	return "gemini"
}
