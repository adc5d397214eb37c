package extraction

import (
	"errors"
	"strings"
)

var (
	// ErrUnsupportedType means the adapter cannot handle the content type.
	ErrUnsupportedType = errors.New("unsupported content type")
	// ErrNoCredential means the adapter has no key to call its provider with.
	ErrNoCredential = errors.New("no credential")
	// ErrProviderUnavailable covers network, auth, HTTP status and timeout failures.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrEmptyResult means the call succeeded but produced no usable text.
	ErrEmptyResult = errors.New("empty result")
	// ErrEmptyDocument is returned by the orchestrator for zero-byte input.
	ErrEmptyDocument = errors.New("extraction: empty document")
)

// Outcome returns a metrics label for an adapter error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrNoCredential):
		return "no_credential"
	case errors.Is(err, ErrEmptyResult):
		return "empty_result"
	default:
		return "provider_unavailable"
	}
}

func nonEmpty(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResult
	}
	return text, nil
}
