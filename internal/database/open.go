package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/clubpulse/lead-conversion-backend/internal/config"
)

// Open builds the store selected by cfg.Driver. For the memory driver the
// snapshot file is loaded when configured; for postgres the schema is
// created when AutoMigrate is set.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *logrus.Logger) (Store, error) {
	switch cfg.Driver {
	case "memory":
		if cfg.SnapshotPath == "" {
			logger.Info("Using in-memory store without snapshot file")
			return NewMemoryStore(), nil
		}
		store, err := LoadMemoryStore(cfg.SnapshotPath)
		if err != nil {
			return nil, err
		}
		logger.WithField("path", cfg.SnapshotPath).Info("Loaded in-memory store from snapshot")
		return store, nil

	case "postgres":
		conn, err := NewConnection(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := EnsureSchema(ctx, conn.DB); err != nil {
				conn.Close()
				return nil, err
			}
			logger.Info("Database schema ensured")
		}
		return NewPostgresStore(conn.DB, logger), nil

	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}
}
