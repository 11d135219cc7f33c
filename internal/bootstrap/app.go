package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"discovery-backend/internal/catalog"
	"discovery-backend/internal/llm"
	"discovery-backend/internal/llm/gemini"
	openai "discovery-backend/internal/llm/openai"
	"discovery-backend/internal/moods"
	"discovery-backend/internal/recommend"
	"discovery-backend/internal/services/health"
	"discovery-backend/internal/shared/config"
	"discovery-backend/internal/shared/server"
	"discovery-backend/internal/shared/storage/db"
	"discovery-backend/internal/shared/storage/object"
	"discovery-backend/internal/shared/storage/object/local"
	objects3 "discovery-backend/internal/shared/storage/object/s3"
	"discovery-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	CatalogRepo      catalog.Repo
	CatalogService   *catalog.Service
	Moods            *moods.Table
	LLM              llm.Generator
	Breaker          *llm.Breaker
	RecommendService *recommend.Service
	CatalogHandler   *catalog.Handler
	RecommendHandler *recommend.Handler
	Health           *health.Service
}

// Build prepares shared dependencies and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Moods:  moods.Default(),
	}

	if err := buildCatalog(ctx, app); err != nil {
		return nil, err
	}
	if err := buildLLM(app); err != nil {
		return nil, err
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		CatalogHandler:   app.CatalogHandler,
		RecommendHandler: app.RecommendHandler,
		Health:           app.Health,
	})
	return app, nil
}

// Close releases the database pool, if any.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.catalog", map[string]any{"backend": "memory", "reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.DefaultServerOptions().Merge(dbOptions(cfg.DB))
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.catalog", map[string]any{"backend": "memory", "reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func dbOptions(c config.DBConfig) db.Options {
	return db.Options{
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
		PingTimeout:     c.PingTimeout,
	}
}

// maxSeedBytes caps an external catalog seed.
const maxSeedBytes = 8 << 20

func buildCatalog(ctx context.Context, app *App) error {
	if app.DB != nil {
		app.CatalogRepo = &catalog.PGRepo{DB: app.DB}
		return nil
	}
	seed, err := loadSeed(ctx, app.Config.Catalog)
	if err != nil {
		return err
	}
	app.CatalogRepo = catalog.NewMemoryRepo(seed...)
	return nil
}

func loadSeed(ctx context.Context, cfg config.CatalogConfig) ([]catalog.Vendor, error) {
	if cfg.SeedURI == "" {
		seed, err := catalog.DevSeed()
		if err != nil {
			return nil, fmt.Errorf("load dev catalog: %w", err)
		}
		return seed, nil
	}

	loc, err := object.ParseURI(cfg.SeedURI)
	if err != nil {
		return nil, err
	}
	var store object.Store
	switch loc.Scheme {
	case "s3":
		store, err = objects3.New(ctx, cfg.AWSRegion, loc.Root, "")
		if err != nil {
			return nil, err
		}
	default:
		store = local.New(loc.Root)
	}

	raw, err := object.ReadAll(ctx, store, loc.Key, maxSeedBytes)
	if err != nil {
		return nil, fmt.Errorf("load catalog seed %s: %w", cfg.SeedURI, err)
	}
	seed, err := catalog.ParseSeed(raw)
	if err != nil {
		return nil, err
	}
	telemetry.Info("bootstrap.catalog.seed", map[string]any{"source": loc.Scheme, "vendors": len(seed)})
	return seed, nil
}

// BuildGenerator selects the provider named in cfg. A missing credential
// yields llm.Unavailable so the service still answers in fallback mode.
func BuildGenerator(cfg config.LLMConfig) (llm.Generator, error) {
	var (
		gen llm.Generator
		err error
	)
	switch cfg.Provider {
	case "", "none":
		return llm.Unavailable{}, nil
	case "openai":
		gen, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.Model, openai.WithHTTPTimeout(cfg.Timeout))
	case "gemini":
		gen, err = gemini.NewClient(cfg.GeminiAPIKey, geminiModel(cfg.Model))
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.Provider)
	}
	if err != nil {
		telemetry.Warn("bootstrap.llm", map[string]any{"provider": cfg.Provider, "status": "unavailable", "error": err.Error()})
		return llm.Unavailable{}, nil
	}
	return gen, nil
}

// The shared model default targets OpenAI; Gemini picks its own unless told otherwise.
func geminiModel(model string) string {
	if strings.HasPrefix(strings.ToLower(model), "gpt") {
		return ""
	}
	return model
}

func buildLLM(app *App) error {
	gen, err := BuildGenerator(app.Config.LLM)
	if err != nil {
		return err
	}
	if llm.Available(gen) {
		app.Breaker = llm.NewBreaker(gen, llm.BreakerConfig{
			Name:             app.Config.LLM.Provider,
			FailureThreshold: app.Config.LLM.BreakerFailures,
			Cooldown:         app.Config.LLM.BreakerCooldown,
		})
		gen = app.Breaker
	}
	app.LLM = gen
	return nil
}

func buildServices(app *App) {
	cfg := app.Config
	app.CatalogService = catalog.NewService(app.CatalogRepo)
	app.RecommendService = &recommend.Service{
		Catalog:    app.CatalogService,
		Ranker:     &recommend.Ranker{LLM: app.LLM, Timeout: cfg.LLM.Timeout},
		Classifier: moods.NewClassifier(app.Moods, app.LLM, cfg.LLM.Timeout),
		Limits: recommend.ContextLimits{
			Vendors:        cfg.Recommend.ContextVendors,
			ItemsPerVendor: cfg.Recommend.ItemsPerVendor,
		},
		RadiusKM: cfg.Recommend.RadiusLimit(),
		K:        recommend.MaxEntries,
	}
	app.CatalogHandler = catalog.NewHandler(app.CatalogService)
	app.RecommendHandler = recommend.NewHandler(app.RecommendService, app.Moods)

	app.Health = health.NewService()
	app.Health.MoodsVersion = app.Moods.Version()
	if app.DB != nil {
		app.Health.DB = app.DB
		app.Health.Catalog = "postgres"
	}
	if llm.Available(app.LLM) {
		app.Health.LLMProvider = cfg.LLM.Provider
	}
	if app.Breaker != nil {
		app.Health.BreakerState = app.Breaker.State
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
