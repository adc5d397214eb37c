package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"letter-backend/internal/documents"
	"letter-backend/internal/llm"
)

// Vision transcribes images and PDFs with vision-capable LLMs using the
// caller's own provider keys. Providers are tried in Providers order, or in
// registry order when Providers is empty.
type Vision struct {
	Registry  *llm.Registry
	Providers []string
}

func (v *Vision) Method() Method { return MethodLLMVision }

func (v *Vision) Applicable(doc documents.Document, creds Credentials) error {
	if !v.hasUsableKey(creds) {
		return ErrNoCredential
	}
	if !doc.IsImage() && !doc.IsPDF() {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, doc.ContentType)
	}
	return nil
}

func (v *Vision) Extract(ctx context.Context, doc documents.Document, creds Credentials) (string, error) {
	if err := v.Applicable(doc, creds); err != nil {
		return "", err
	}
	providers := v.Registry.ForKeysIn(v.order(), creds.LLMKeys)
	if len(providers) == 0 {
		return "", ErrNoCredential
	}

	img := llm.Image{Data: doc.Data, MimeType: doc.ContentType, FileName: doc.FileName}
	var failures []string
	unsupported, empty := 0, 0
	for _, p := range providers {
		text, err := p.Transcribe(ctx, img)
		if err == nil {
			if text, err = nonEmpty(text); err == nil {
				return text, nil
			}
		}
		switch {
		case errors.Is(err, llm.ErrUnsupportedInput):
			unsupported++
		case errors.Is(err, llm.ErrEmptyResponse), errors.Is(err, ErrEmptyResult):
			empty++
		}
		failures = append(failures, p.Name()+": "+err.Error())
		if ctx.Err() != nil {
			break
		}
	}

	detail := strings.Join(failures, ", ")
	switch {
	case unsupported == len(failures):
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, detail)
	case unsupported+empty == len(failures):
		return "", fmt.Errorf("%w: %s", ErrEmptyResult, detail)
	default:
		return "", fmt.Errorf("%w: %s", ErrProviderUnavailable, detail)
	}
}

func (v *Vision) order() []string {
	if len(v.Providers) > 0 {
		return v.Providers
	}
	return v.Registry.Names()
}

// hasUsableKey checks the same provider subset Extract tries.
func (v *Vision) hasUsableKey(creds Credentials) bool {
	if v.Registry == nil {
		return false
	}
	for _, name := range v.order() {
		name = strings.ToLower(strings.TrimSpace(name))
		if strings.TrimSpace(creds.LLMKeys[name]) != "" && v.Registry.Supports(name) {
			return true
		}
	}
	return false
}
