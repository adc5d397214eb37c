package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"letter-backend/internal/documents"
	"letter-backend/internal/extraction"
	"letter-backend/internal/shared/config"
)

func testConfig() config.Config {
	return config.Config{
		Env:                "dev",
		DefaultLanguage:    "en",
		MaxUploadBytes:     1 << 20,
		LLMProvider:        "openai",
		LLMModel:           "gpt-4o-mini",
		VisionModel:        "gpt-4o",
		GeminiModel:        "gemini-2.0-flash",
		ExtractionCacheTTL: 0,
		Extraction:         config.DefaultExtractionConfig(),
	}
}

func TestBuildInMemory(t *testing.T) {
	app, err := Build(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	if app.DB != nil || app.Redis != nil || app.Queue != nil || app.Store != nil {
		t.Fatalf("expected optional dependencies to stay unset")
	}
	if app.AnalysesService.Models.Fallback != nil {
		t.Fatalf("expected no fallback model without a system key")
	}
	if len(app.Extractor.Adapters) != 4 {
		t.Fatalf("expected full chain, got %d adapters", len(app.Extractor.Adapters))
	}

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestBuildWiresRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	app, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	if app.Extractor.Cache == nil {
		t.Fatalf("expected extraction cache")
	}
	report := app.Health.Status(context.Background())
	if !report.OK {
		t.Fatalf("expected healthy report, got %+v", report)
	}
}

func TestNewExtractorHonoursOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Extraction.Order = []string{"pdf-direct-text", "plain-text"}

	orch, err := NewExtractor(cfg, NewLLMRegistry(cfg), nil)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	if len(orch.Adapters) != 2 || orch.Adapters[0].Method() != extraction.MethodPDFDirectText {
		t.Fatalf("unexpected chain %+v", orch.Adapters)
	}

	cfg.Extraction.Order = []string{"carrier-pigeon"}
	if _, err := NewExtractor(cfg, NewLLMRegistry(cfg), nil); err == nil {
		t.Fatalf("expected unknown method to fail")
	}
}

func TestNewModelPicker(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = "sk-system"

	picker, err := NewModelPicker(cfg, NewLLMRegistry(cfg))
	if err != nil {
		t.Fatalf("NewModelPicker: %v", err)
	}
	if picker.Fallback == nil {
		t.Fatalf("expected system fallback model")
	}
	if got := picker.For(map[string]string{"gemini": "user-key"}); got == picker.Fallback {
		t.Fatalf("expected the user's provider to win over the fallback")
	}

	cfg.LLMProvider = "mystery"
	if _, err := NewModelPicker(cfg, NewLLMRegistry(cfg)); err == nil {
		t.Fatalf("expected unsupported provider error")
	}
}

func TestVisionProvidersDoNotNarrowAnalysisOrSettings(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = "sk-system"
	cfg.Extraction.VisionProviders = []string{"gemini"}

	app, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	if names := app.LLM.Names(); len(names) != 2 {
		t.Fatalf("expected every provider registered for analysis, got %v", names)
	}
	if known := app.UsersService.KnownProviders; len(known) != 2 {
		t.Fatalf("expected settings to accept every provider, got %v", known)
	}
	picker := app.AnalysesService.Models
	if got := picker.For(map[string]string{"openai": "user-key"}); got == nil || got == picker.Fallback {
		t.Fatalf("expected the user's openai key to be used for analysis")
	}

	vision, ok := app.Extractor.Adapters[0].(*extraction.Vision)
	if !ok {
		t.Fatalf("expected vision adapter first, got %T", app.Extractor.Adapters[0])
	}
	if len(vision.Providers) != 1 || vision.Providers[0] != "gemini" {
		t.Fatalf("expected vision order from config, got %v", vision.Providers)
	}
	creds := extraction.Credentials{LLMKeys: map[string]string{"openai": "user-key"}}
	if err := vision.Applicable(documents.Document{Data: []byte{1}, ContentType: documents.MimePNG}, creds); err == nil {
		t.Fatalf("expected vision to be inapplicable without a gemini key")
	}
}
