package extraction

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"letter-backend/internal/documents"
	"letter-backend/internal/llm"
	"letter-backend/internal/ocr"
)

type fakeTranscriber struct {
	name  string
	text  string
	err   error
	calls *int
}

func (f fakeTranscriber) Complete(context.Context, llm.Request) (string, error) { return "", nil }
func (f fakeTranscriber) Transcribe(context.Context, llm.Image) (string, error) {
	*f.calls++
	return f.text, f.err
}
func (f fakeTranscriber) Name() string  { return f.name }
func (f fakeTranscriber) Model() string { return "fake" }

func registryWith(providers ...fakeTranscriber) *llm.Registry {
	reg := llm.NewRegistry()
	for _, p := range providers {
		p := p
		reg.Register(p.name, func(string) (llm.Provider, error) { return p, nil })
	}
	return reg
}

func TestVisionApplicable(t *testing.T) {
	var calls int
	v := &Vision{Registry: registryWith(fakeTranscriber{name: "openai", calls: &calls})}

	if err := v.Applicable(pngDoc(), Credentials{}); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
	if err := v.Applicable(pngDoc(), Credentials{LLMKeys: map[string]string{"mistral": "k"}}); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential for unknown provider, got %v", err)
	}
	text := documents.Document{Data: []byte("hi"), ContentType: documents.MimeText}
	if err := v.Applicable(text, Credentials{LLMKeys: map[string]string{"openai": "k"}}); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestVisionFallsBackBetweenProviders(t *testing.T) {
	var openaiCalls, geminiCalls int
	v := &Vision{Registry: registryWith(
		fakeTranscriber{name: "openai", err: fmt.Errorf("%w: openai http status 429", llm.ErrUnavailable), calls: &openaiCalls},
		fakeTranscriber{name: "gemini", text: "Jobcenter Hamburg", calls: &geminiCalls},
	)}
	creds := Credentials{LLMKeys: map[string]string{"openai": "o", "gemini": "g"}}

	text, err := v.Extract(context.Background(), pngDoc(), creds)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "Jobcenter Hamburg" || openaiCalls != 1 || geminiCalls != 1 {
		t.Fatalf("unexpected result %q openai=%d gemini=%d", text, openaiCalls, geminiCalls)
	}
}

func TestVisionProvidersLimitApplicability(t *testing.T) {
	var openaiCalls, geminiCalls int
	v := &Vision{
		Registry: registryWith(
			fakeTranscriber{name: "openai", text: "openai text", calls: &openaiCalls},
			fakeTranscriber{name: "gemini", text: "gemini text", calls: &geminiCalls},
		),
		Providers: []string{"gemini"},
	}

	onlyOpenAI := Credentials{LLMKeys: map[string]string{"openai": "o"}}
	if err := v.Applicable(pngDoc(), onlyOpenAI); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential for a key outside the vision providers, got %v", err)
	}

	both := Credentials{LLMKeys: map[string]string{"openai": "o", "gemini": "g"}}
	text, err := v.Extract(context.Background(), pngDoc(), both)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "gemini text" || openaiCalls != 0 || geminiCalls != 1 {
		t.Fatalf("unexpected result %q openai=%d gemini=%d", text, openaiCalls, geminiCalls)
	}
}

func TestVisionErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		text string
		want error
	}{
		{name: "unavailable", err: llm.ErrUnavailable, want: ErrProviderUnavailable},
		{name: "unsupported", err: llm.ErrUnsupportedInput, want: ErrUnsupportedType},
		{name: "blank", text: "  ", want: ErrEmptyResult},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			v := &Vision{Registry: registryWith(fakeTranscriber{name: "openai", text: tt.text, err: tt.err, calls: &calls})}
			_, err := v.Extract(context.Background(), pngDoc(), Credentials{LLMKeys: map[string]string{"openai": "k"}})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

type fakeRecognizer struct {
	text     string
	err      error
	fileType string
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ []byte, _ string, fileType string) (string, error) {
	f.fileType = fileType
	return f.text, f.err
}

func TestHostedOCR(t *testing.T) {
	if err := (&HostedOCR{}).Applicable(pngDoc(), Credentials{}); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}

	rec := &fakeRecognizer{text: "Mahnung"}
	h := &HostedOCR{Client: rec}
	webp := documents.Document{Data: []byte("RIFF"), ContentType: documents.MimeWEBP}
	if err := h.Applicable(webp, Credentials{}); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType for webp, got %v", err)
	}
	text, err := h.Extract(context.Background(), pngDoc(), Credentials{})
	if err != nil || text != "Mahnung" || rec.fileType != "PNG" {
		t.Fatalf("unexpected result %q %v filetype=%s", text, err, rec.fileType)
	}

	h.Client = &fakeRecognizer{err: fmt.Errorf("%w: ocr http status 503", ocr.ErrUnavailable)}
	if _, err := h.Extract(context.Background(), pngDoc(), Credentials{}); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	h.Client = &fakeRecognizer{err: ocr.ErrEmpty}
	if _, err := h.Extract(context.Background(), pngDoc(), Credentials{}); !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
}

func TestLocalAdapters(t *testing.T) {
	text := documents.Document{Data: []byte("URGENT: pay invoice #123 by 2024-01-15\n"), ContentType: documents.MimeText}
	got, err := PlainText{}.Extract(context.Background(), text, Credentials{})
	if err != nil || got != "URGENT: pay invoice #123 by 2024-01-15" {
		t.Fatalf("unexpected plain text result %q %v", got, err)
	}
	if err := (PDFText{}).Applicable(text, Credentials{}); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	broken := documents.Document{Data: []byte("%PDF-1.4 nope"), ContentType: documents.MimePDF}
	if _, err := (PDFText{}).Extract(context.Background(), broken, Credentials{}); !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult for broken pdf, got %v", err)
	}
}

func TestBuildChain(t *testing.T) {
	chain, err := BuildChain([]string{"pdf-direct-text", "plain-text"}, ChainDeps{})
	if err != nil {
		t.Fatalf("BuildChain: %v", err)
	}
	if len(chain) != 2 || chain[0].Method() != MethodPDFDirectText {
		t.Fatalf("unexpected chain %+v", chain)
	}
	if _, err := BuildChain([]string{"tesseract"}, ChainDeps{}); err == nil {
		t.Fatalf("expected unknown method error")
	}
	if _, err := BuildChain([]string{"plain-text", "plain-text"}, ChainDeps{}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := BuildChain([]string{"none"}, ChainDeps{}); err == nil {
		t.Fatalf("expected none to be rejected")
	}
}
