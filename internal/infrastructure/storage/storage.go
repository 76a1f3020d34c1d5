// Package storage opens the reservation store selected by configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/example/slot-scheduler/internal/config"
	"github.com/example/slot-scheduler/internal/db"
	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/example/slot-scheduler/internal/infrastructure/postgres"
	"github.com/example/slot-scheduler/internal/infrastructure/sqlite"
	"github.com/example/slot-scheduler/internal/migrate"
	"go.uber.org/zap"
)

// Open connects to the configured backend. Postgres migrations run only
// when migrateUp is set; the SQLite schema is always ensured.
func Open(ctx context.Context, cfg config.Config, migrateUp bool, log *zap.Logger) (reservation.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		d, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := d.Ping(ctx); err != nil {
			d.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		if migrateUp {
			applied, err := migrate.Up(ctx, d)
			if err != nil {
				d.Close()
				return nil, err
			}
			for _, f := range applied {
				log.Info("migration applied", zap.String("file", f))
			}
		}
		log.Debug("store opened", zap.String("driver", cfg.DatabaseDriver))
		return postgres.NewStore(d, cfg.LockTimeout), nil

	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.SQLitePath, BusyTimeout: cfg.LockTimeout})
		if err != nil {
			return nil, err
		}
		log.Debug("store opened", zap.String("driver", cfg.DatabaseDriver), zap.String("path", cfg.SQLitePath))
		return s, nil
	}
	return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
}
