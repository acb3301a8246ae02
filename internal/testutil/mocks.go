package testutil

import (
	"context"
	"fmt"

	"codeberg.org/snonux/wortschatz/internal/entry"
	"codeberg.org/snonux/wortschatz/internal/generate"
)

// FakeGenerator mocks the content generator
type FakeGenerator struct {
	Results map[string]*generate.Result
	Errors  map[string]error
	Calls   []string
}

// Generate returns the canned result for query, or a default enrichment
func (f *FakeGenerator) Generate(ctx context.Context, query string, prefs entry.UserPreferences) (*generate.Result, error) {
	f.Calls = append(f.Calls, fmt.Sprintf("Generate: %s (level=%s)", query, prefs.Level))

	if err, ok := f.Errors[query]; ok {
		return nil, &generate.GenerationError{Err: err}
	}

	if result, ok := f.Results[query]; ok {
		return result, nil
	}

	// Default response
	return &generate.Result{
		Definition:  "definition of " + query,
		Translation: "translation of " + query,
		Examples: []entry.Example{
			{Text: query + " example", Translation: query + " example translated"},
		},
	}, nil
}

// Name identifies the fake in logs
func (f *FakeGenerator) Name() string { return "fake" }

// FakeSynthesizer mocks the audio synthesizer
type FakeSynthesizer struct {
	Responses map[string][]byte
	Errors    map[string]error
	Calls     []string
}

// Synthesize returns the canned audio for text, or a default MP3 stub
func (f *FakeSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.Calls = append(f.Calls, fmt.Sprintf("Synthesize: %s", text))

	if err, ok := f.Errors[text]; ok {
		return nil, err
	}

	if data, ok := f.Responses[text]; ok {
		return data, nil
	}

	// Default response
	return AudioData(), nil
}

// Name identifies the fake in logs
func (f *FakeSynthesizer) Name() string { return "fake" }

// AudioData generates mock audio data
func AudioData() []byte {
	// Simple mock MP3 header
	return []byte{0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00, 0x00, 0x00}
}
