package sheets

import (
	"context"

	"kakeibo/internal/core"
)

// Ports for the spreadsheet-shaped store. The spreadsheet is treated as a
// row-oriented key-value store with exactly these operations; everything
// richer (filtering, aggregation) happens in memory.
type (
	RecordSource interface {
		// FetchRecords returns a snapshot of all expense rows.
		FetchRecords(ctx context.Context) ([]core.Expense, error)
	}

	RecordUpdater interface {
		// UpdateRecord applies a partial field update keyed by row number.
		// Returns core.ErrRowNotFound when no row matches.
		UpdateRecord(ctx context.Context, u core.RecordUpdate) error
	}

	CategorySource interface {
		// FetchCategories returns the persisted category list in user
		// order. An empty list is a valid response and means the caller
		// should fall back to the built-in defaults.
		FetchCategories(ctx context.Context) ([]string, error)
	}

	CategoryReplacer interface {
		// ReplaceCategories replaces the whole persisted list. There is
		// no partial update primitive; the last writer wins.
		ReplaceCategories(ctx context.Context, labels []string) error
	}

	// Store is the full surface a data backend must provide.
	Store interface {
		RecordSource
		RecordUpdater
		CategorySource
		CategoryReplacer
	}
)
