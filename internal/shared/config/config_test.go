package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("PROVIDER_TIMEOUT", "")
	t.Setenv("EXTRACTION_CONFIG", "")

	cfg := Load()
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("expected 10 MiB limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.ProviderTimeout != 45*time.Second {
		t.Fatalf("expected 45s provider timeout, got %s", cfg.ProviderTimeout)
	}
	want := []string{"llm-vision", "hosted-ocr", "pdf-direct-text", "plain-text"}
	if len(cfg.Extraction.Order) != len(want) {
		t.Fatalf("unexpected order: %v", cfg.Extraction.Order)
	}
	for i := range want {
		if cfg.Extraction.Order[i] != want[i] {
			t.Fatalf("order[%d] = %q, want %q", i, cfg.Extraction.Order[i], want[i])
		}
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "-5")
	t.Setenv("PROVIDER_TIMEOUT", "soon")
	t.Setenv("ARCHIVE_UPLOADS", "yes please")

	cfg := Load()
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("expected default limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.ProviderTimeout != 45*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.ProviderTimeout)
	}
	if cfg.ArchiveUploads {
		t.Fatalf("expected archive disabled")
	}
}

func TestLoadExtractionConfigExpandsEnv(t *testing.T) {
	t.Setenv("TEST_OCR_KEY", "secret-ocr")
	path := filepath.Join(t.TempDir(), "extraction.yaml")
	doc := `order: [pdf-direct-text, hosted-ocr]
hosted_ocr:
  api_key: ${TEST_OCR_KEY}
  language: eng
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadExtractionConfig(path, DefaultExtractionConfig())
	if err != nil {
		t.Fatalf("LoadExtractionConfig: %v", err)
	}
	if len(cfg.Order) != 2 || cfg.Order[0] != "pdf-direct-text" {
		t.Fatalf("unexpected order: %v", cfg.Order)
	}
	if cfg.HostedOCR.APIKey != "secret-ocr" {
		t.Fatalf("expected expanded key, got %q", cfg.HostedOCR.APIKey)
	}
	if cfg.HostedOCR.Language != "eng" {
		t.Fatalf("unexpected language %q", cfg.HostedOCR.Language)
	}
	if cfg.HostedOCR.Endpoint != defaultOCREndpoint {
		t.Fatalf("expected default endpoint kept, got %q", cfg.HostedOCR.Endpoint)
	}
	if len(cfg.VisionProviders) != 2 {
		t.Fatalf("expected default vision providers kept, got %v", cfg.VisionProviders)
	}
}

func TestParseEnvLine(t *testing.T) {
	tests := []struct {
		line   string
		key    string
		val    string
		wantOK bool
	}{
		{line: "PORT=9000", key: "PORT", val: "9000", wantOK: true},
		{line: `export OCR_API_KEY="abc=def"`, key: "OCR_API_KEY", val: "abc=def", wantOK: true},
		{line: "# comment", wantOK: false},
		{line: "NOVALUE", wantOK: false},
	}
	for _, tt := range tests {
		key, val, ok := parseEnvLine(tt.line)
		if ok != tt.wantOK {
			t.Fatalf("parseEnvLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
		}
		if ok && (key != tt.key || val != tt.val) {
			t.Fatalf("parseEnvLine(%q) = %q, %q", tt.line, key, val)
		}
	}
}
