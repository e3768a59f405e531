package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/tallink-tennis/fuss-tracker/external/firebase"
	"github.com/tallink-tennis/fuss-tracker/internal/config"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	cacherepo "github.com/tallink-tennis/fuss-tracker/internal/infrastructure/repository/cache"
	"github.com/tallink-tennis/fuss-tracker/internal/infrastructure/repository/memory"
	"github.com/tallink-tennis/fuss-tracker/internal/infrastructure/repository/postgres"
	basecache "github.com/tallink-tennis/fuss-tracker/internal/platform/cache"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/resilience"
)

// openDocumentStore builds the configured backend, wrapped in the read cache
// when enabled. The returned closers release it in reverse order.
func openDocumentStore(ctx context.Context, cfg config.Config, logger *logging.Logger) (document.Store, []func() error, error) {
	var (
		store   document.Store
		closers []func() error
	)

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, db.Close)

		if err := postgres.BootstrapSeed(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("bootstrap documents: %w", err)
		}
		pg := postgres.NewDocumentStore(db, postgres.DocumentStoreConfig{
			DSN: normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		}, logger)
		closers = append(closers, pg.Close)
		store = pg
		logger.InfoContext(ctx, "document store ready", "backend", cfg.StoreBackend, "db", dbNameFromURL(cfg.DBURL))

	case config.BackendFirebase:
		client, err := firebase.NewClient(firebase.ClientConfig{
			BaseURL:   cfg.FirebaseDatabaseURL,
			AuthToken: cfg.FirebaseAuthToken,
			Timeout:   cfg.FirebaseTimeout,
			Logger:    logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.FirebaseCircuitEnabled,
				FailureThreshold: cfg.FirebaseCircuitFailures,
				OpenTimeout:      cfg.FirebaseCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.FirebaseCircuitHalfOpenMax,
			},
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create firebase client: %w", err)
		}
		store = client
		logger.InfoContext(ctx, "document store ready", "backend", cfg.StoreBackend)

	default:
		mem, err := memory.NewSeededDocumentStore(memory.SeedDocuments())
		if err != nil {
			return nil, nil, fmt.Errorf("seed memory store: %w", err)
		}
		store = mem
		logger.WarnContext(ctx, "document store is in-memory, data is lost on restart")
	}

	if cfg.CacheEnabled {
		store = cacherepo.NewDocumentStore(store, basecache.NewStore(cfg.CacheTTL))
	}
	return store, closers, nil
}

func openPostgres(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
