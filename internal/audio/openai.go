package audio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

// OpenAISynthesizer implements Synthesizer on the OpenAI TTS API.
type OpenAISynthesizer struct {
	client  *openai.Client
	config  *Config
	breaker *gobreaker.CircuitBreaker
}

// NewOpenAISynthesizer creates a new OpenAI TTS synthesizer.
func NewOpenAISynthesizer(config *Config) *OpenAISynthesizer {
	return &OpenAISynthesizer{
		client: openai.NewClient(config.OpenAIKey),
		config: config,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "openai-tts",
		}),
	}
}

// Synthesize generates audio for text and returns the raw bytes.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	processed := preprocessText(text)
	if processed == "" {
		return nil, &SynthesisError{Err: fmt.Errorf("nothing to synthesize")}
	}

	req := openai.CreateSpeechRequest{
		Model: openai.SpeechModel(s.config.OpenAIModel),
		Input: processed,
		Voice: openai.SpeechVoice(s.config.OpenAIVoice),
		Speed: s.config.OpenAISpeed,
	}

	switch strings.ToLower(s.config.OutputFormat) {
	case "wav":
		req.ResponseFormat = openai.SpeechResponseFormatWav
	default:
		req.ResponseFormat = openai.SpeechResponseFormatMp3
	}

	// Instructions are only honored by the gpt-4o-mini TTS models.
	if s.config.OpenAIInstruction != "" &&
		(s.config.OpenAIModel == "gpt-4o-mini-tts" || s.config.OpenAIModel == "gpt-4o-mini-audio-preview") {
		req.Instructions = s.config.OpenAIInstruction
	}

	out, err := s.breaker.Execute(func() (interface{}, error) {
		response, err := s.client.CreateSpeech(ctx, req)
		if err != nil {
			return nil, err
		}
		defer response.Close()
		return io.ReadAll(response)
	})
	if err != nil {
		return nil, &SynthesisError{Err: fmt.Errorf("OpenAI TTS API error: %w", err)}
	}

	data := out.([]byte)
	if len(data) == 0 {
		return nil, &SynthesisError{Err: fmt.Errorf("no audio data received")}
	}
	return data, nil
}

// Name returns the provider name.
func (s *OpenAISynthesizer) Name() string {
	return "openai"
}

// preprocessText strips punctuation that should not be spoken so single
// words and short sentences come out clean.
func preprocessText(text string) string {
	cleaned := strings.TrimSpace(text)

	punctuationToRemove := []string{"!", "?", "\"", "'", "(", ")", "[", "]", "{", "}", "—", "–"}
	for _, punct := range punctuationToRemove {
		cleaned = strings.ReplaceAll(cleaned, punct, "")
	}

	return strings.TrimSpace(cleaned)
}
