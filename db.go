package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ligapro/pkg/ledger"
)

// ErrUnsupportedDriver is returned for an unknown store.driver.
var ErrUnsupportedDriver = errors.New("unsupported store driver")

// openStore opens and initialises the configured ledger store. The returned
// close function releases database handles and is never nil.
func openStore(ctx context.Context, cfg StoreConfig, logger *slog.Logger) (ledger.Store, func() error, error) {
	noop := func() error { return nil }
	var (
		store   ledger.Store
		closeFn = noop
	)
	switch cfg.Driver {
	case "csv":
		store = ledger.NewCSVStore(cfg.Path)
	case "memory":
		store = ledger.NewMemoryStore()
	case "sqlite":
		s, err := ledger.OpenSQLiteStore(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		store, closeFn = s, s.Close
	case "postgres":
		s, err := ledger.OpenGormStore(cfg.DSN, cfg.AutoMigrate)
		if err != nil {
			return nil, noop, err
		}
		store = s
		closeFn = func() error {
			sqlDB, err := s.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
	default:
		return nil, noop, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	if err := store.Init(ctx); err != nil {
		_ = closeFn()
		return nil, noop, fmt.Errorf("init %s store: %w", cfg.Driver, err)
	}
	logger.Debug("store ready", "driver", cfg.Driver, "path", cfg.Path)
	return store, closeFn, nil
}
