package cli

import (
	"testing"
)

func TestNewFlagsDefaults(t *testing.T) {
	flags := NewFlags()

	if flags.Listen != ":8080" {
		t.Errorf("Listen = %q, want :8080", flags.Listen)
	}
	if flags.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", flags.Provider)
	}
	if flags.TargetLanguage != "German" || flags.NativeLanguage != "Russian" {
		t.Errorf("languages = %q/%q, want German/Russian", flags.TargetLanguage, flags.NativeLanguage)
	}
	if flags.ExampleCount != 5 {
		t.Errorf("ExampleCount = %d, want 5", flags.ExampleCount)
	}
	if flags.OpenAIModel != "gpt-4o-mini-tts" {
		t.Errorf("OpenAIModel = %q", flags.OpenAIModel)
	}
}

func TestCreateRootCommand(t *testing.T) {
	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	if cmd.Use != "wortschatz" {
		t.Errorf("Use = %q, want wortschatz", cmd.Use)
	}

	for _, name := range []string{"config", "store", "redis-addr", "provider", "target-language"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag %q", name)
		}
	}
}
