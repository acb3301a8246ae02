package generate

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/snonux/wortschatz/internal/entry"
)

// Result is the validated output of one model call.
type Result struct {
	Definition  string
	Translation string
	Examples    []entry.Example
}

// GenerationError reports a model call that failed or returned output the
// parser could not use. Requests failing this way are eligible for
// redelivery up to the queue's own retry policy.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Generator produces entry content for a query under a user's study profile.
type Generator interface {
	Generate(ctx context.Context, query string, prefs entry.UserPreferences) (*Result, error)

	// Name returns the provider name.
	Name() string
}

// Config holds common configuration for content generators.
type Config struct {
	Provider string // "openai" or "gemini"
	Model    string

	// Languages of the study profile: the learner studies Target and reads
	// translations in Native.
	TargetLanguage string
	NativeLanguage string

	// ExampleCount is how many usage examples to request.
	ExampleCount int

	OpenAIKey string
	GeminiKey string
}

// DefaultConfig returns the default German-for-Russian-speakers profile.
func DefaultConfig() *Config {
	return &Config{
		Provider:       "openai",
		TargetLanguage: "German",
		NativeLanguage: "Russian",
		ExampleCount:   5,
	}
}

// NewGenerator creates the configured generator implementation.
func NewGenerator(ctx context.Context, config *Config) (Generator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.ExampleCount < 1 {
		config.ExampleCount = 5
	}

	switch config.Provider {
	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIGenerator(config), nil

	case "gemini":
		if config.GeminiKey == "" {
			return nil, fmt.Errorf("Gemini API key is required")
		}
		return NewGeminiGenerator(ctx, config)

	default:
		return nil, fmt.Errorf("unknown generation provider: %s", config.Provider)
	}
}

// systemPrompt builds the assistant instructions for a study profile.
func (c *Config) systemPrompt(prefs entry.UserPreferences) string {
	level := prefs.Level
	if level == "" {
		level = entry.DefaultLevel
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s language assistant for a %s student.\n", c.TargetLanguage, level)
	fmt.Fprintf(&b, "First write the dictionary form of the word and its %s translation separated by |.\n", c.NativeLanguage)
	fmt.Fprintf(&b, "Then provide %d different simple usage examples of the %s word and their %s translations.\n",
		c.ExampleCount, c.TargetLanguage, c.NativeLanguage)
	b.WriteString("Examples should be short. Answer only with a list, without any explanations, " +
		"sticking to the following format: Example | Translation.\n")
	b.WriteString("Don't use any line numbers.")
	if prefs.Context != "" {
		fmt.Fprintf(&b, "\nThe student's learning context: %s", prefs.Context)
	}
	return b.String()
}

// ParseResponse validates and splits the model's pipe-delimited answer. The
// first line carries "dictionary form | translation", every following line
// one "example | translation" pair.
func ParseResponse(response string) (*Result, error) {
	var lines []string
	for _, line := range strings.Split(response, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, &GenerationError{Err: fmt.Errorf("empty model response")}
	}

	definition, translation, ok := splitPair(lines[0])
	if !ok {
		return nil, &GenerationError{Err: fmt.Errorf("malformed definition line: %q", lines[0])}
	}

	result := &Result{Definition: definition, Translation: translation}
	for _, line := range lines[1:] {
		if text, translated, ok := splitPair(line); ok {
			result.Examples = append(result.Examples, entry.Example{
				Text:        text,
				Translation: translated,
			})
		}
	}
	if len(result.Examples) == 0 {
		return nil, &GenerationError{Err: fmt.Errorf("model returned no usage examples")}
	}
	return result, nil
}

func splitPair(line string) (left, right string, ok bool) {
	parts := strings.SplitN(line, "|", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	left = strings.TrimSpace(parts[0])
	right = strings.TrimSpace(parts[1])
	return left, right, left != "" && right != ""
}
