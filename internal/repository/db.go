package repository

import (
	"fmt"

	"github.com/segyhp/coop-engine/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// OpenDatabase connects to Postgres, applies the pool settings and, when
// enabled, runs pending migrations.
func OpenDatabase(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.AutoMigrate {
		if err := RunMigrations(cfg.URL); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}
