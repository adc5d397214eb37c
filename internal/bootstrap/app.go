package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"letter-backend/internal/analyses"
	googleauth "letter-backend/internal/auth"
	"letter-backend/internal/documents"
	"letter-backend/internal/extraction"
	"letter-backend/internal/llm"
	"letter-backend/internal/llm/gemini"
	openai "letter-backend/internal/llm/openai"
	"letter-backend/internal/ocr"
	"letter-backend/internal/queue"
	"letter-backend/internal/services/health"
	"letter-backend/internal/shared/config"
	"letter-backend/internal/shared/server"
	"letter-backend/internal/shared/storage/db"
	"letter-backend/internal/shared/storage/object"
	localstore "letter-backend/internal/shared/storage/object/local"
	s3store "letter-backend/internal/shared/storage/object/s3"
	"letter-backend/internal/users"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Redis  *redis.Client
	Store  object.ObjectStore
	Queue  queue.Client

	LLM             *llm.Registry
	Extractor       *extraction.Orchestrator
	AnalysesService *analyses.Service
	UsersService    *users.Service
	Health          *health.Service

	AnalysisHandler *analyses.Handler
	UsersHandler    *users.Handler
	GoogleAuth      *googleauth.GoogleService
}

// Build prepares dependencies and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rdb, err := buildRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := NewLLMRegistry(cfg)
	extractor, err := NewExtractor(cfg, registry, rdb)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Redis:     rdb,
		Queue:     queueClient,
		LLM:       registry,
		Extractor: extractor,
	}

	if cfg.ArchiveUploads {
		store, err := buildStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		app.Store = store
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		AnalysisHandler: app.AnalysisHandler,
		UserHandler:     app.UsersHandler,
		GoogleAuth:      app.GoogleAuth,
		Health:          app.Health,
	})

	return app, nil
}

// Close releases connections opened by Build.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

// NewLLMRegistry registers every supported provider. Registration order is the
// preference order for analysis and the set of providers accepted in settings.
func NewLLMRegistry(cfg config.Config) *llm.Registry {
	registry := llm.NewRegistry()
	registry.Register("openai", func(apiKey string) (llm.Provider, error) {
		return openai.NewClient(apiKey, cfg.LLMModel,
			openai.WithVisionModel(cfg.VisionModel),
			openai.WithTimeout(cfg.ProviderTimeout),
		)
	})
	registry.Register("gemini", func(apiKey string) (llm.Provider, error) {
		return gemini.NewClient(apiKey, cfg.GeminiModel, gemini.WithTimeout(cfg.ProviderTimeout))
	})
	return registry
}

// NewExtractor builds the extraction chain. The hosted OCR adapter stays in the
// chain without a client so its absence shows up in diagnostics. rdb is optional.
func NewExtractor(cfg config.Config, registry *llm.Registry, rdb *redis.Client) (*extraction.Orchestrator, error) {
	deps := extraction.ChainDeps{Vision: registry, VisionProviders: cfg.Extraction.VisionProviders}
	if strings.TrimSpace(cfg.Extraction.HostedOCR.APIKey) != "" {
		client, err := ocr.New(ocr.Options{
			Endpoint: cfg.Extraction.HostedOCR.Endpoint,
			APIKey:   cfg.Extraction.HostedOCR.APIKey,
			Language: cfg.Extraction.HostedOCR.Language,
			Engine:   cfg.Extraction.HostedOCR.Engine,
			Timeout:  cfg.ProviderTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("hosted ocr: %w", err)
		}
		deps.OCR = client
	}

	adapters, err := extraction.BuildChain(cfg.Extraction.Order, deps)
	if err != nil {
		return nil, err
	}

	orch := &extraction.Orchestrator{Adapters: adapters, Timeout: cfg.ProviderTimeout}
	if rdb != nil {
		orch.Cache = extraction.NewRedisCache(rdb, cfg.ExtractionCacheTTL)
	}
	return orch, nil
}

// NewModelPicker prefers the user's own provider keys and falls back to the
// service-wide model when a system key is configured.
func NewModelPicker(cfg config.Config, registry *llm.Registry) (analyses.ModelPicker, error) {
	picker := analyses.ModelPicker{Registry: registry}

	var key string
	switch cfg.LLMProvider {
	case "openai":
		key = cfg.OpenAIAPIKey
	case "gemini":
		key = cfg.GeminiAPIKey
	default:
		return picker, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
	if strings.TrimSpace(key) == "" {
		log.Printf("bootstrap: no system key for %s; analysis needs a user key", cfg.LLMProvider)
		return picker, nil
	}

	provider, err := registry.New(cfg.LLMProvider, key)
	if err != nil {
		return picker, err
	}
	picker.Fallback = provider
	return picker, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("bootstrap: redis ping failed; extraction cache will retry per request: %v", err)
	}
	return rdb, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.SQSQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var analysisRepo analyses.Repo
	var userRepo users.Repo
	if app.DB != nil {
		analysisRepo = &analyses.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		analysisRepo = analyses.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	sealer, err := users.NewSealer(app.Config.CredentialsKey)
	if err != nil {
		return err
	}
	userSvc := users.NewService(userRepo, sealer, app.LLM.Names())

	models, err := NewModelPicker(app.Config, app.LLM)
	if err != nil {
		return err
	}

	analysisSvc := &analyses.Service{
		Repo:            analysisRepo,
		Extractor:       app.Extractor,
		Models:          models,
		MaxBytes:        app.Config.MaxUploadBytes,
		DefaultLanguage: app.Config.DefaultLanguage,
	}
	if app.Store != nil {
		analysisSvc.Archive = &documents.Archive{Store: app.Store}
	}
	if app.Queue != nil {
		analysisSvc.Events = app.Queue
	}

	checks := map[string]health.Check{}
	if app.DB != nil {
		checks["database"] = app.DB.PingContext
	}
	if app.Redis != nil {
		rdb := app.Redis
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	app.UsersService = userSvc
	app.AnalysesService = analysisSvc
	app.Health = health.NewService(checks)
	app.UsersHandler = users.NewHandler(userSvc)
	app.AnalysisHandler = analyses.NewHandler(analysisSvc, userSvc)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)
	return nil
}
