package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fixfast/mockdesk/internal/config"
	"github.com/fixfast/mockdesk/internal/memory"
	"github.com/fixfast/mockdesk/internal/repository"
	"github.com/fixfast/mockdesk/internal/sqlite"
)

// openStorage builds the configured storage driver. The returned func
// releases it.
func openStorage(cfg config.StorageConfig) (repository.Storage, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		storage := memory.New()
		return storage, func() { _ = storage.Close() }, nil

	case config.DriverSQLite:
		if err := ensureDBDir(cfg.Path); err != nil {
			return nil, nil, fmt.Errorf("failed to prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.RunMigrations(); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return sqlite.NewStorage(db), func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
