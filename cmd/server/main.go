package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/healthlens/risk-engine/internal/api"
	"github.com/healthlens/risk-engine/internal/cache"
	"github.com/healthlens/risk-engine/internal/config"
	"github.com/healthlens/risk-engine/internal/database"
	"github.com/healthlens/risk-engine/internal/domain"
	"github.com/healthlens/risk-engine/internal/reconcile"
	"github.com/healthlens/risk-engine/internal/repository"
	"github.com/healthlens/risk-engine/internal/service"
	"github.com/healthlens/risk-engine/internal/store"
	"github.com/healthlens/risk-engine/pkg/genai"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(&cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	heuristics := domain.DefaultHeuristics()
	if cfg.Engine.HeuristicsVersion != "" && cfg.Engine.HeuristicsVersion != heuristics.Version {
		logger.WithFields(logrus.Fields{
			"configured": cfg.Engine.HeuristicsVersion,
			"available":  heuristics.Version,
		}).Warn("Configured heuristics version not available, using default")
	}

	// Remote store. The engine runs degraded without it: the reconciler
	// proceeds on the remaining sources.
	var repo *repository.AssessmentRepository
	db, err := database.NewConnection(ctx, database.FromDomainConfig(&cfg.Database), logger)
	if err != nil {
		logger.WithField("error", err).Warn("Remote database unavailable, continuing without it")
	} else {
		defer db.Close()
		if err := runMigrations(configManager, &cfg.Database, logger); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		repo = repository.NewAssessmentRepository(db.Pool, logger)
	}

	// Client-local session cache (Redis), also optional.
	var snapCache *cache.SnapshotCache
	kv, err := cache.NewRedisKVFromURL(cfg.Cache.RedisURL, cfg.Cache.PoolSize, cfg.Cache.MaxRetries)
	if err != nil {
		logger.WithField("error", err).Warn("Session cache unavailable, continuing without it")
	} else {
		defer kv.Close()
		snapCache = cache.NewSnapshotCache(kv, cfg.Cache.DefaultTTL, cfg.Cache.HistoryLimit, logger)
	}

	snapStore, err := newSnapshotStore(ctx, &cfg.Store)
	if err != nil {
		log.Fatalf("Failed to open snapshot store: %v", err)
	}
	defer snapStore.Close()

	generator := newGenerator(&cfg.Generator, logger)

	assessor, err := service.NewAssessor(heuristics, generator, cfg.Engine.MemoizeSize, logger)
	if err != nil {
		log.Fatalf("Failed to create assessor: %v", err)
	}

	// Local sources come first so their records win lab deduplication.
	var sources []reconcile.Source
	if snapCache != nil {
		sources = append(sources, reconcile.NewCacheSource(snapCache))
	}
	sources = append(sources, reconcile.NewStoreSource(snapStore, 0))
	if repo != nil {
		sources = append(sources, reconcile.NewRepositorySource(repo))
	}
	reconciler := reconcile.NewReconciler(logger, sources...)

	var sinks []api.AssessmentSink
	if snapCache != nil {
		sinks = append(sinks, api.NewCacheSink(snapCache))
	}
	sinks = append(sinks, api.NewStoreSink(snapStore))
	if repo != nil {
		sinks = append(sinks, api.NewRepositorySink(repo))
	}

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting risk engine server")

	server := api.NewServer(configManager, assessor, reconciler, sinks, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}

	logger.Info("Server stopped")
}

func newLogger(cfg *domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

func runMigrations(configManager *config.Manager, cfg *domain.DatabaseConfig, logger *logrus.Logger) error {
	if cfg.MigrationsPath == "" {
		return nil
	}

	runner, err := database.NewMigrationRunner(configManager.GetDatabaseURL(), cfg.MigrationsPath, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	return runner.Up(context.Background())
}

func newSnapshotStore(ctx context.Context, cfg *domain.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "postgres":
		pg, err := store.NewPostgresStoreFromURL(cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := pg.Init(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	default:
		return store.NewSQLiteStore(cfg.SQLitePath)
	}
}

func newGenerator(cfg *domain.GeneratorConfig, logger *logrus.Logger) *genai.Client {
	var responseCache *genai.ResponseCache
	if cfg.CacheURL != "" {
		rc, err := genai.NewResponseCache(cfg.CacheURL, cfg.CacheTTL)
		if err != nil {
			logger.WithField("error", err).Warn("Recommendation cache unavailable, continuing without it")
		} else {
			responseCache = rc
		}
	}

	return genai.NewClient(genai.Config{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Timeout:     cfg.Timeout,
		RateLimit:   cfg.RateLimit,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}, responseCache, logger)
}
