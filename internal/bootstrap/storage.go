// Package bootstrap wires configuration into storage, use cases and
// handlers for the server and the admin CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	gormrepo "gamesage/internal/adapter/repo/gorm"
	memrepo "gamesage/internal/adapter/repo/memory"
	staticseed "gamesage/internal/adapter/seed/static"
	"gamesage/internal/app/ports"
	"gamesage/internal/app/seed"
	"gamesage/internal/config"
	"gamesage/migrations"

	"gorm.io/gorm"
)

type Storage struct {
	Rules     ports.RuleRepository
	Catalog   ports.CatalogRepository
	TxManager ports.TxManager
	// DB is nil for the memory driver.
	DB *gorm.DB
}

func OpenStorage(cfg config.DatabaseConfig) (Storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		store := memrepo.NewStore()
		return Storage{
			Rules:     memrepo.NewRuleRepo(store),
			Catalog:   memrepo.NewCatalogRepo(store),
			TxManager: memrepo.NewTxManager(store),
		}, nil
	case config.DriverPostgres:
		db, err := gormrepo.OpenPostgresWithPool(cfg.DSN, gormrepo.PoolConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		})
		if err != nil {
			return Storage{}, fmt.Errorf("open postgres: %w", err)
		}
		return Storage{
			Rules:     gormrepo.NewRuleRepo(db),
			Catalog:   gormrepo.NewCatalogRepo(db),
			TxManager: gormrepo.NewTxManager(db),
			DB:        db,
		}, nil
	default:
		return Storage{}, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate applies schema migrations; the memory driver has none.
func (s Storage) Migrate(ctx context.Context, cfg config.DatabaseConfig) error {
	if s.DB == nil {
		return nil
	}
	if cfg.MigrationsDir != "" {
		return gormrepo.ApplyMigrations(ctx, s.DB, cfg.MigrationsDir)
	}
	return gormrepo.ApplyMigrationsFS(ctx, s.DB, migrations.FS)
}

func (s Storage) Seeder(cfg config.DatabaseConfig) seed.UseCase {
	return seed.UseCase{
		Provider:  staticseed.Provider{Root: cfg.SeedDir},
		Rules:     s.Rules,
		Catalog:   s.Catalog,
		TxManager: s.TxManager,
	}
}
