// Package backend selects and builds the data store the server runs on.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	ports "kakeibo/internal/sheets"
	gsheet "kakeibo/internal/sheets/google"
	"kakeibo/internal/sheets/memory"
	"kakeibo/internal/storage"
)

// Type identifies a data backend.
type Type string

const (
	Memory Type = "memory"
	Sheets Type = "sheets"
	SQLite Type = "sqlite"
)

func (t Type) String() string { return string(t) }

// IsValid returns true for a known backend type.
func (t Type) IsValid() bool {
	switch t {
	case Memory, Sheets, SQLite:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Config holds what each backend needs to start.
type Config struct {
	Type Type

	// SQLite
	SQLiteDBPath string

	// Memory (seed files directory)
	DataDirectory string
}

// Create builds the configured store. The sheets backend reads its
// credentials and sheet names from the environment, same as the worker.
func Create(ctx context.Context, cfg Config, logger *slog.Logger) (ports.Store, CleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Type.IsValid() {
		return nil, nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	switch cfg.Type {
	case Sheets:
		cli, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("google sheets backend: %w", err)
		}
		logger.Info("Initialized Google Sheets backend")
		return cli, nil, nil

	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite backend: %w", err)
		}
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
		return repo, repo.Close, nil

	default:
		dir := cfg.DataDirectory
		if dir == "" {
			dir = "data"
		}
		store := memory.NewFromFiles(dir)
		logger.Info("Initialized memory backend", "seed_dir", dir)
		return store, nil, nil
	}
}
