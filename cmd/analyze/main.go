package main

// Analyze a local letter without the HTTP server:
//   go run ./cmd/analyze -file brief.pdf -language en -openai-key sk-...

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"letter-backend/internal/analyses"
	"letter-backend/internal/bootstrap"
	"letter-backend/internal/documents"
	"letter-backend/internal/extraction"
	"letter-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	filePath := flag.String("file", "", "Path to the letter (pdf, image or text)")
	language := flag.String("language", cfg.DefaultLanguage, "Target language for the analysis")
	openaiKey := flag.String("openai-key", os.Getenv("USER_OPENAI_API_KEY"), "User OpenAI key (vision extraction and analysis)")
	geminiKey := flag.String("gemini-key", os.Getenv("USER_GEMINI_API_KEY"), "User Gemini key (vision extraction and analysis)")
	ocrKey := flag.String("ocr-key", cfg.Extraction.HostedOCR.APIKey, "Hosted OCR key")
	outPath := flag.String("out", "", "Path to write the record JSON (optional)")
	flag.Parse()

	if strings.TrimSpace(*filePath) == "" {
		exitErr("file path is required")
	}
	data, err := os.ReadFile(*filePath)
	if err != nil {
		exitErr(fmt.Sprintf("read file: %v", err))
	}
	fileName := filepath.Base(*filePath)

	cfg.Extraction.HostedOCR.APIKey = *ocrKey
	registry := bootstrap.NewLLMRegistry(cfg)
	extractor, err := bootstrap.NewExtractor(cfg, registry, nil)
	if err != nil {
		exitErr(fmt.Sprintf("extraction chain: %v", err))
	}
	models, err := bootstrap.NewModelPicker(cfg, registry)
	if err != nil {
		exitErr(fmt.Sprintf("model: %v", err))
	}

	svc := &analyses.Service{
		Repo:            analyses.NewMemoryRepo(),
		Extractor:       extractor,
		Models:          models,
		MaxBytes:        cfg.MaxUploadBytes,
		DefaultLanguage: cfg.DefaultLanguage,
	}

	keys := map[string]string{}
	if k := strings.TrimSpace(*openaiKey); k != "" {
		keys["openai"] = k
	}
	if k := strings.TrimSpace(*geminiKey); k != "" {
		keys["gemini"] = k
	}

	rec, err := svc.Handle(context.Background(), analyses.Intake{
		UserID: "local",
		Document: documents.Document{
			Data:        data,
			ContentType: documents.NormalizeContentType("", fileName, data),
			FileName:    fileName,
		},
		Language:    *language,
		Credentials: extraction.Credentials{LLMKeys: keys},
	})
	if err != nil {
		exitErr(fmt.Sprintf("analyze (%s): %v", analyses.ErrorCode(err), err))
	}

	pretty, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	pretty = append(pretty, '\n')

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
