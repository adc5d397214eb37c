package llm

import (
	"context"
	"errors"
)

// Request is a single-turn completion request.
type Request struct {
	System string
	Prompt string
	// JSON asks the provider for a JSON object response when it supports that mode.
	JSON bool
}

// Image is binary content sent to a vision-capable model.
type Image struct {
	Data     []byte
	MimeType string
	FileName string
}

// Completer produces a text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Transcriber reads the text out of an image or PDF.
type Transcriber interface {
	Transcribe(ctx context.Context, img Image) (string, error)
}

// Provider is a configured model backend bound to one API key.
type Provider interface {
	Completer
	Transcriber
	Name() string
	Model() string
}

var (
	// ErrUnavailable marks network, auth, HTTP status and timeout failures.
	ErrUnavailable = errors.New("llm provider unavailable")
	// ErrEmptyResponse is returned when the provider answered without content.
	ErrEmptyResponse = errors.New("llm response empty")
	// ErrUnsupportedInput is returned when a transcriber cannot accept the content type.
	ErrUnsupportedInput = errors.New("llm input type not supported")
)
