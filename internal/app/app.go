package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/doyaji/rift-rewind/external/riot"
	"github.com/doyaji/rift-rewind/external/secrets"
	"github.com/doyaji/rift-rewind/internal/config"
	"github.com/doyaji/rift-rewind/internal/domain/blob"
	"github.com/doyaji/rift-rewind/internal/domain/collectionrun"
	"github.com/doyaji/rift-rewind/internal/infrastructure/blobstore/memory"
	blobminio "github.com/doyaji/rift-rewind/internal/infrastructure/blobstore/minio"
	"github.com/doyaji/rift-rewind/internal/infrastructure/repository/noop"
	"github.com/doyaji/rift-rewind/internal/infrastructure/repository/postgres"
	"github.com/doyaji/rift-rewind/internal/interfaces/httpapi"
	idgen "github.com/doyaji/rift-rewind/internal/platform/id"
	"github.com/doyaji/rift-rewind/internal/platform/logging"
	"github.com/doyaji/rift-rewind/internal/platform/resilience"
	"github.com/doyaji/rift-rewind/internal/usecase"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// NewHTTPServer wires the full service graph and returns the server
// plus a cleanup that releases held resources (database handles).
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*http.Server, func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	appLogger := logging.Default()

	store, err := newBlobStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	runs, db, err := newRunRepository(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	riotClient := riot.NewClient(riot.ClientConfig{
		Secrets:         newSecretProvider(cfg),
		TokenSecretName: cfg.RiotTokenSecretName,
		Timeout:         cfg.RiotTimeout,
		MaxAttempts:     cfg.RiotMaxAttempts,
		Logger:          appLogger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			FailureThreshold:  cfg.RiotCircuitFailureCount,
			OpenTimeout:       cfg.RiotCircuitOpenTimeout,
			HalfOpenSuccesses: cfg.RiotCircuitHalfOpenSucces,
		},
	})

	catalog := usecase.NewChampionCatalog(store, cfg.ChampionDataKey, appLogger)
	orchestrator := usecase.NewCollectionOrchestratorService(
		riotClient,
		usecase.NewMatchCollectorService(riotClient, store, appLogger),
		usecase.NewMasteryCollectorService(riotClient, store, catalog, appLogger),
		runs,
		idgen.NewRandomGenerator(),
		appLogger,
		usecase.OrchestratorConfig{
			MatchTimeout:      cfg.CollectMatchTimeout,
			MasteryTimeout:    cfg.CollectMasteryTimeout,
			DefaultMatchCount: cfg.CollectDefaultMatchCount,
		},
	)

	handler := httpapi.NewHandler(
		orchestrator,
		usecase.NewMatchQueryService(store, appLogger),
		usecase.NewMasteryQueryService(store, appLogger),
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	cleanup := func(context.Context) error {
		if db != nil {
			return db.Close()
		}
		return nil
	}

	return server, cleanup, nil
}

func newBlobStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (blob.Store, error) {
	if !cfg.StorageEnabled {
		logger.Warn("object storage disabled, using in-memory blob store", "reason", "STORAGE_ENABLED=false")
		return memory.New(), nil
	}

	store, err := blobminio.New(blobminio.Config{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccess,
		SecretKey: cfg.StorageSecret,
		Bucket:    cfg.StorageBucket,
		UseSSL:    cfg.StorageUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("build blob store: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	logger.Info("object storage ready", "endpoint", cfg.StorageEndpoint, "bucket", cfg.StorageBucket)
	return store, nil
}

func newRunRepository(cfg config.Config, logger *slog.Logger) (collectionrun.Repository, *sqlx.DB, error) {
	if cfg.DBURL == "" {
		logger.Info("collection run audit disabled", "reason", "DB_URL empty")
		return noop.CollectionRunRepository{}, nil, nil
	}

	db, err := otelsqlx.Open("postgres", cfg.DBURL, otelsql.WithDBName("rift_rewind"))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	logger.Info("collection run audit enabled")
	return postgres.NewCollectionRunRepository(db), db, nil
}

func newSecretProvider(cfg config.Config) secrets.Provider {
	if cfg.RiotSecretsDir != "" {
		// Mounted secret files rotate in place; reads stay uncached so
		// a new key applies without a restart.
		return secrets.FileProvider{BaseDir: cfg.RiotSecretsDir}
	}
	return secrets.NewCached(secrets.EnvProvider{})
}
