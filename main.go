package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/datachat-io/datachat-engine/pkg/analysis"
	"github.com/datachat-io/datachat-engine/pkg/config"
	"github.com/datachat-io/datachat-engine/pkg/database"
	"github.com/datachat-io/datachat-engine/pkg/handlers"
	"github.com/datachat-io/datachat-engine/pkg/ingest"
	"github.com/datachat-io/datachat-engine/pkg/llm"
	"github.com/datachat-io/datachat-engine/pkg/logging"
	"github.com/datachat-io/datachat-engine/pkg/repositories"
	"github.com/datachat-io/datachat-engine/pkg/schema"
	"github.com/datachat-io/datachat-engine/pkg/services"
	"github.com/datachat-io/datachat-engine/pkg/text2sql"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Optional .env for local development; env vars win regardless.
	_ = godotenv.Load()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:             cfg.Database.URL(),
		MaxConnections:  cfg.Database.MaxConnections,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	stdDB := stdlib.OpenDBFromPool(db.Pool)
	if err := database.RunMigrations(stdDB, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := stdDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	generator, err := llm.NewGenerator(&llm.FactoryConfig{
		Provider: cfg.LLM.Provider,
		Endpoint: cfg.LLM.Endpoint,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	introspector := schema.NewIntrospector(db.Pool, schema.Config{
		SampleRows:       cfg.Pipeline.SampleRows,
		DistinctValueCap: cfg.Pipeline.DistinctValueCap,
		ExcludePrefixes:  cfg.Pipeline.SystemTablePrefixes,
	}, logger)
	executor := text2sql.NewExecutor(db.Pool, cfg.Pipeline.RowLimit, logger)
	pipeline := text2sql.NewPipeline(generator, executor, logger)
	analyzer := analysis.NewAnalyzer(generator, logger)
	store := ingest.NewStore(db.Pool, logger)

	datasetRepo := repositories.NewDatasetRepository(db)
	queryRepo := repositories.NewQueryRepository(db)

	datasetService := services.NewDatasetService(datasetRepo, store, logger)
	queryService := services.NewQueryService(datasetRepo, queryRepo, introspector, pipeline, analyzer, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewDatasetHandler(datasetService, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(queryService, logger).RegisterRoutes(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting datachat-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
