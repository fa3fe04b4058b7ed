// Package storage selects the backend the course catalog is served from.
package storage

import (
	"context"
	"fmt"

	"github.com/ipssi/codequest/internal/config"
	"github.com/ipssi/codequest/internal/exercise"
	"github.com/ipssi/codequest/internal/storage/local"
	"github.com/ipssi/codequest/internal/storage/postgres"
	"github.com/ipssi/codequest/internal/storage/sqlite"
)

// OpenStore opens the database-backed catalog named by cfg.Source. The
// returned close function releases the underlying connection.
func OpenStore(ctx context.Context, cfg config.CatalogConfig, dataDir string) (exercise.Store, func(), error) {
	switch cfg.Source {
	case config.SourceSQLite:
		db, err := sqlite.Open(cfg.SQLiteFile(dataDir))
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate catalog: %w", err)
		}
		return sqlite.NewCatalogStore(db), func() { db.Close() }, nil

	case config.SourcePostgres:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewCatalogStore(pool), pool.Close, nil

	case config.SourceJSON:
		docs, err := local.NewDirStore(cfg.JSONDir(dataDir))
		if err != nil {
			return nil, nil, err
		}
		return local.NewCatalogStore(docs), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("catalog source %q has no database", cfg.Source)
	}
}

// OpenSource returns the catalog source for cfg: the course directory for the
// yaml source, or the database store otherwise.
func OpenSource(ctx context.Context, cfg config.CatalogConfig, dataDir string) (exercise.Source, func(), error) {
	if cfg.Source == config.SourceYAML || cfg.Source == "" {
		return exercise.NewDirLoader(cfg.Path), func() {}, nil
	}
	return OpenStore(ctx, cfg, dataDir)
}
