package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultMaxUploadBytes = 10 << 20

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	ArchiveUploads  bool

	MaxUploadBytes  int64
	DefaultLanguage string
	ProviderTimeout time.Duration

	// Service-wide model used for analysis when the user has no key of their own.
	LLMProvider  string
	OpenAIAPIKey string
	GeminiAPIKey string
	LLMModel     string
	VisionModel  string
	GeminiModel  string

	Extraction ExtractionConfig

	RedisURL           string
	ExtractionCacheTTL time.Duration
	SQSQueueURL        string
	CredentialsKey     string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	if env == "production" && strings.TrimSpace(os.Getenv("CREDENTIALS_KEY")) == "" {
		log.Printf("CREDENTIALS_KEY is required in production")
	}

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:                env,
		DatabaseURL:        dbURL,
		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:          getEnv("AWS_REGION", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", ""),
		ArchiveUploads:     getEnvBool("ARCHIVE_UPLOADS", false),
		MaxUploadBytes:     getEnvInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes),
		DefaultLanguage:    strings.ToLower(getEnv("DEFAULT_LANGUAGE", "en")),
		ProviderTimeout:    getEnvDuration("PROVIDER_TIMEOUT", 45*time.Second),
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o-mini"),
		VisionModel:        getEnv("VISION_MODEL", "gpt-4o"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		RedisURL:           getEnv("REDIS_URL", ""),
		ExtractionCacheTTL: getEnvDuration("EXTRACTION_CACHE_TTL", 24*time.Hour),
		SQSQueueURL:        getEnv("SQS_QUEUE_URL", ""),
		CredentialsKey:     getEnv("CREDENTIALS_KEY", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),
	}

	cfg.Extraction = DefaultExtractionConfig()
	cfg.Extraction.HostedOCR.APIKey = getEnv("OCR_API_KEY", "")
	cfg.Extraction.HostedOCR.Endpoint = getEnv("OCR_ENDPOINT", cfg.Extraction.HostedOCR.Endpoint)
	cfg.Extraction.HostedOCR.Language = getEnv("OCR_LANGUAGE", cfg.Extraction.HostedOCR.Language)

	if path := strings.TrimSpace(os.Getenv("EXTRACTION_CONFIG")); path != "" {
		ext, err := LoadExtractionConfig(path, cfg.Extraction)
		if err != nil {
			log.Printf("extraction config %s ignored: %v", path, err)
		} else {
			cfg.Extraction = ext
		}
	}

	return cfg
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config %s invalid bool: %v", key, err)
		return def
	}
	return val
}

func getEnvInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || val <= 0 {
		log.Printf("config %s invalid positive int: %q", key, raw)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		log.Printf("config %s invalid duration: %q", key, raw)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
