package analyses

import (
	"context"
	"fmt"
	"strings"

	"letter-backend/internal/llm"
)

// Generator turns extracted letter text into an Analysis with one model call.
// It keeps no state between calls.
type Generator struct {
	Model llm.Completer
}

// Analyze asks the model for a structured analysis in targetLanguage and
// parses the answer. Malformed answers degrade to an unstructured summary;
// only a failed model call is an error.
func (g Generator) Analyze(ctx context.Context, text, targetLanguage string) (Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return Analysis{}, ErrNoText
	}
	if g.Model == nil {
		return Analysis{}, ErrNoModel
	}

	raw, err := g.Model.Complete(ctx, llm.Request{
		System: llm.AnalysisSystemPrompt(targetLanguage),
		Prompt: llm.AnalysisUserPrompt(text),
		JSON:   true,
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	out := Analysis{RawResponse: raw}
	if named, ok := g.Model.(interface {
		Name() string
		Model() string
	}); ok {
		out.Provider = named.Name()
		out.Model = named.Model()
	}

	switch p := ParseResponse(raw).(type) {
	case Structured:
		out.Structured = true
		out.DocumentLanguage = p.DocumentLanguage
		out.Urgency = p.Urgency
		out.Summary = p.Summary
		out.Fields = p.Fields
		out.Warnings = p.Warnings
	case Unstructured:
		out.Urgency = UrgencyUnknown
		out.Summary = p.RawText
	}
	if out.Urgency == "" {
		out.Urgency = UrgencyUnknown
	}
	out.Fields = out.Fields.normalized()
	return out, nil
}

// ModelPicker chooses the completion model for a request: the first provider
// the user holds a key for, otherwise the service-wide fallback.
type ModelPicker struct {
	Registry *llm.Registry
	Fallback llm.Completer
}

// For returns the model to use, or nil when none is available.
func (m ModelPicker) For(keys map[string]string) llm.Completer {
	if m.Registry != nil {
		if providers := m.Registry.ForKeys(keys); len(providers) > 0 {
			return providers[0]
		}
	}
	return m.Fallback
}
