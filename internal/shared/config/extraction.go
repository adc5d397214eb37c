package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultOCREndpoint = "https://api.ocr.space/parse/image"

// ExtractionConfig describes the extraction chain.
type ExtractionConfig struct {
	// Order lists extraction methods in priority order.
	Order []string
	// VisionProviders lists LLM providers tried by the vision adapter, in order.
	VisionProviders []string
	HostedOCR       HostedOCRConfig
}

// HostedOCRConfig configures the hosted OCR REST adapter.
type HostedOCRConfig struct {
	Endpoint string
	APIKey   string
	Language string
	Engine   int
}

type rawExtractionConfig struct {
	Order           []string `yaml:"order"`
	VisionProviders []string `yaml:"vision_providers"`
	HostedOCR       struct {
		Endpoint string `yaml:"endpoint"`
		APIKey   string `yaml:"api_key"`
		Language string `yaml:"language"`
		Engine   int    `yaml:"engine"`
	} `yaml:"hosted_ocr"`
}

// DefaultExtractionConfig returns the built-in chain.
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		Order:           []string{"llm-vision", "hosted-ocr", "pdf-direct-text", "plain-text"},
		VisionProviders: []string{"openai", "gemini"},
		HostedOCR: HostedOCRConfig{
			Endpoint: defaultOCREndpoint,
			Language: "ger",
			Engine:   2,
		},
	}
}

// LoadExtractionConfig reads a YAML chain file, expanding ${VAR} references.
// Keys missing from the file keep the values from base.
func LoadExtractionConfig(path string, base ExtractionConfig) (ExtractionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read extraction config: %w", err)
	}
	return ParseExtractionConfig([]byte(os.ExpandEnv(string(data))), base)
}

// ParseExtractionConfig parses an already expanded YAML document.
func ParseExtractionConfig(data []byte, base ExtractionConfig) (ExtractionConfig, error) {
	var raw rawExtractionConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return base, fmt.Errorf("parse extraction config: %w", err)
	}

	cfg := base
	if order := lowerAll(raw.Order); len(order) > 0 {
		cfg.Order = order
	}
	if providers := lowerAll(raw.VisionProviders); len(providers) > 0 {
		cfg.VisionProviders = providers
	}
	if v := strings.TrimSpace(raw.HostedOCR.Endpoint); v != "" {
		cfg.HostedOCR.Endpoint = v
	}
	if v := strings.TrimSpace(raw.HostedOCR.APIKey); v != "" {
		cfg.HostedOCR.APIKey = v
	}
	if v := strings.TrimSpace(raw.HostedOCR.Language); v != "" {
		cfg.HostedOCR.Language = v
	}
	if raw.HostedOCR.Engine > 0 {
		cfg.HostedOCR.Engine = raw.HostedOCR.Engine
	}
	return cfg, nil
}

func lowerAll(in []string) []string {
	var out []string
	for _, s := range in {
		if trimmed := strings.ToLower(strings.TrimSpace(s)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
