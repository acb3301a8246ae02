package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"codeberg.org/snonux/wortschatz/internal/entry"
)

func TestParseResponse(t *testing.T) {
	response := `das Haus | дом
Das Haus ist groß. | Дом большой.
Ich gehe nach Hause. | Я иду домой.

Wir kaufen ein Haus. | Мы покупаем дом.`

	result, err := ParseResponse(response)
	if err != nil {
		t.Fatalf("ParseResponse() error: %v", err)
	}

	if result.Definition != "das Haus" {
		t.Errorf("Definition = %q, want %q", result.Definition, "das Haus")
	}
	if result.Translation != "дом" {
		t.Errorf("Translation = %q, want %q", result.Translation, "дом")
	}
	if len(result.Examples) != 3 {
		t.Fatalf("got %d examples, want 3", len(result.Examples))
	}
	want := entry.Example{Text: "Das Haus ist groß.", Translation: "Дом большой."}
	if result.Examples[0] != want {
		t.Errorf("first example = %+v, want %+v", result.Examples[0], want)
	}
}

func TestParseResponseSkipsMalformedExampleLines(t *testing.T) {
	response := `laufen | бегать
1. no pipe here
Er läuft schnell. | Он бежит быстро.`

	result, err := ParseResponse(response)
	if err != nil {
		t.Fatalf("ParseResponse() error: %v", err)
	}
	if len(result.Examples) != 1 {
		t.Errorf("got %d examples, want 1", len(result.Examples))
	}
}

func TestParseResponseErrors(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"empty response", ""},
		{"whitespace only", "  \n\n  "},
		{"definition line without pipe", "das Haus дом\nexample | translation"},
		{"definition line with empty side", "das Haus |\nexample | translation"},
		{"no usage examples", "das Haus | дом"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.response)
			if err == nil {
				t.Fatalf("ParseResponse(%q) expected error", tt.response)
			}
			var gerr *GenerationError
			if !errors.As(err, &gerr) {
				t.Errorf("error is %T, want *GenerationError", err)
			}
		})
	}
}

func TestSystemPrompt(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExampleCount = 3

	t.Run("includes profile", func(t *testing.T) {
		prompt := cfg.systemPrompt(entry.UserPreferences{Level: entry.LevelC1, Context: "medicine"})
		for _, want := range []string{"German", "Russian", "C1", "3 different", "medicine"} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q:\n%s", want, prompt)
			}
		}
	})

	t.Run("defaults level when unset", func(t *testing.T) {
		prompt := cfg.systemPrompt(entry.UserPreferences{})
		if !strings.Contains(prompt, entry.DefaultLevel) {
			t.Errorf("prompt missing default level:\n%s", prompt)
		}
	})
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	ctx := context.Background()

	cfg := DefaultConfig()
	if _, err := NewGenerator(ctx, cfg); err == nil {
		t.Error("expected error without OpenAI key")
	}

	cfg.Provider = "unknown"
	if _, err := NewGenerator(ctx, cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}
