package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	ports "kakeibo/internal/sheets"
)

// SyncWorker replays mutation messages against a store. The worker
// binary runs one over the Google Sheets client so the spreadsheet
// mirrors whatever the server applied locally.
type SyncWorker struct {
	store ports.Store
}

// NewSyncWorker creates a sync worker over the given store.
func NewSyncWorker(store ports.Store) *SyncWorker {
	return &SyncWorker{store: store}
}

// Apply executes one mutation message. A missing row is logged and
// swallowed rather than returned: requeueing it would loop forever,
// and the next full fetch reconciles the stores anyway.
func (w *SyncWorker) Apply(ctx context.Context, msg *amqp.MutationMessage) error {
	switch msg.Kind {
	case amqp.KindRecordUpdate:
		err := w.store.UpdateRecord(ctx, *msg.Update)
		if errors.Is(err, core.ErrRowNotFound) {
			slog.WarnContext(ctx, "Mirrored update targets missing row, skipping",
				"row_number", msg.Update.RowNumber)
			return nil
		}
		if err != nil {
			return fmt.Errorf("mirror record update (row=%d): %w", msg.Update.RowNumber, err)
		}
		slog.InfoContext(ctx, "Mirrored record update", "row_number", msg.Update.RowNumber)
		return nil

	case amqp.KindCategoryReplace:
		if err := w.store.ReplaceCategories(ctx, msg.Labels); err != nil {
			return fmt.Errorf("mirror category replace: %w", err)
		}
		slog.InfoContext(ctx, "Mirrored category list", "count", len(msg.Labels))
		return nil

	default:
		return fmt.Errorf("unknown mutation kind: %s", msg.Kind)
	}
}

// Handler adapts Apply to the consume callback shape.
func (w *SyncWorker) Handler(ctx context.Context) func(*amqp.MutationMessage) error {
	return func(msg *amqp.MutationMessage) error {
		return w.Apply(ctx, msg)
	}
}
