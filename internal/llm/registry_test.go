package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeProvider struct {
	name string
	key  string
}

func (f fakeProvider) Complete(context.Context, Request) (string, error)  { return f.key, nil }
func (f fakeProvider) Transcribe(context.Context, Image) (string, error) { return f.key, nil }
func (f fakeProvider) Name() string                                      { return f.name }
func (f fakeProvider) Model() string                                     { return "fake" }

func fakeCtor(name string) Constructor {
	return func(key string) (Provider, error) {
		if key == "broken" {
			return nil, errors.New("bad key")
		}
		return fakeProvider{name: name, key: key}, nil
	}
}

func TestRegistryForKeysKeepsOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register("openai", fakeCtor("openai"))
	reg.Register("Gemini", fakeCtor("gemini"))

	got := reg.ForKeys(map[string]string{"gemini": "g", "openai": "o"})
	if len(got) != 2 || got[0].Name() != "openai" || got[1].Name() != "gemini" {
		t.Fatalf("unexpected providers: %+v", got)
	}

	got = reg.ForKeysIn([]string{"Gemini", "unknown", "openai", "gemini"}, map[string]string{"gemini": "g", "openai": "o"})
	if len(got) != 2 || got[0].Name() != "gemini" || got[1].Name() != "openai" {
		t.Fatalf("expected explicit order gemini, openai, got %+v", got)
	}
	if names := reg.Names(); len(names) != 2 || names[0] != "openai" {
		t.Fatalf("explicit order must not change registration order, got %v", names)
	}
}

func TestRegistrySkipsMissingAndBrokenKeys(t *testing.T) {
	reg := NewRegistry()
	reg.Register("openai", fakeCtor("openai"))
	reg.Register("gemini", fakeCtor("gemini"))

	got := reg.ForKeys(map[string]string{"openai": "  ", "gemini": "broken"})
	if len(got) != 0 {
		t.Fatalf("expected no providers, got %d", len(got))
	}
	if !reg.Supports(" OpenAI ") {
		t.Fatalf("expected openai supported")
	}
	if _, err := reg.New("mistral", "k"); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}

func TestAnalysisSystemPromptTargetsLanguage(t *testing.T) {
	prompt := AnalysisSystemPrompt("uk")
	if !strings.Contains(prompt, "in Ukrainian.") {
		t.Fatalf("expected Ukrainian target language in prompt")
	}
	if strings.Contains(prompt, "{{TARGET_LANGUAGE}}") {
		t.Fatalf("placeholder not replaced")
	}
	if LanguageName("") != "English" || LanguageName("Klingon") != "Klingon" {
		t.Fatalf("unexpected language name fallback")
	}
}
