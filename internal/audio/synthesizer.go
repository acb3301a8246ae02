// Package audio synthesizes pronunciation audio for entry text via a
// text-to-speech provider and derives the deterministic storage keys the
// resulting blobs live under.
package audio

import (
	"context"
	"fmt"
)

// SynthesisError reports a failed speech synthesis. Synthesis failures are
// non-fatal to the pipeline: an entry may be persisted without audio and
// pick it up on a later pass.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Synthesizer turns text into spoken audio.
type Synthesizer interface {
	// Synthesize returns the synthesized audio bytes for text.
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// Name returns the provider name.
	Name() string
}

// Config holds configuration for audio synthesizers.
type Config struct {
	Provider     string // only "openai" is supported
	OutputFormat string // "mp3" or "wav"

	OpenAIKey         string
	OpenAIModel       string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice       string  // "alloy", "ash", "ballad", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer", "verse"
	OpenAISpeed       float64 // 0.25 to 4.0
	OpenAIInstruction string  // voice instructions for gpt-4o-mini-tts
}

// DefaultConfig returns default synthesizer configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:     "openai",
		OutputFormat: "mp3",
		OpenAIModel:  "gpt-4o-mini-tts",
		OpenAIVoice:  "alloy",
		OpenAISpeed:  1.0,
		OpenAIInstruction: "Pronounce the text clearly and slowly for a language learner, " +
			"with authentic native phonetics.",
	}
}

// NewSynthesizer creates the configured synthesizer implementation.
func NewSynthesizer(config *Config) (Synthesizer, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAISynthesizer(config), nil

	default:
		return nil, fmt.Errorf("unknown audio provider: %s", config.Provider)
	}
}
