package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/infrastructure/configloader"
)

// NewStateStore opens the backend selected by cfg.Driver.
func NewStateStore(cfg configloader.StorageConfig, logger port.Logger) (port.StateStore, error) {
	switch cfg.Driver {
	case "badger":
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create badger dir %s: %w", cfg.Path, err)
		}
		return NewBadgerStore(cfg.Path, logger)
	case "sqlite":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite dir %s: %w", dir, err)
			}
		}
		return NewSQLiteStore(cfg.Path, logger)
	case "memory":
		return NewMemoryStore(logger), nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
}
