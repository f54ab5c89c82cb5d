// Package services coordinates the two-phase mutation flow: apply to the
// in-memory state first, then hand the durable write to the persistence
// queue and, when configured, mirror it over AMQP.
package services

import (
	"context"
	"log/slog"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	ports "kakeibo/internal/sheets"
	"kakeibo/internal/state"
	"kakeibo/internal/worker"
)

// Publisher mirrors mutations to the message broker. Nil disables the
// mirror leg.
type Publisher interface {
	PublishMutation(ctx context.Context, msg *amqp.MutationMessage) error
}

// RecordService updates expense records. The local state changes
// synchronously so the caller sees the new views immediately; the
// spreadsheet write happens on the persistence queue.
type RecordService struct {
	state     *state.Store
	persister *worker.PersistWorker
	publisher Publisher
}

// NewRecordService creates a record service. publisher may be nil.
func NewRecordService(st *state.Store, persister *worker.PersistWorker, publisher Publisher) *RecordService {
	return &RecordService{state: st, persister: persister, publisher: publisher}
}

// Update applies a partial record update and returns the recomputed
// views. Unknown rows return core.ErrRowNotFound without touching the
// queue.
func (s *RecordService) Update(ctx context.Context, u core.RecordUpdate) (state.Views, error) {
	if err := u.Validate(); err != nil {
		return state.Views{}, err
	}
	if ok := s.state.SetRecord(u); !ok {
		return state.Views{}, core.ErrRowNotFound
	}

	s.persister.Enqueue(worker.Task{
		Name: "record_update",
		Run: func(ctx context.Context, store ports.Store) error {
			return store.UpdateRecord(ctx, u)
		},
	})
	s.mirror(ctx, amqp.NewRecordUpdateMessage(u))

	return s.state.Views(), nil
}

// UpdateGenre sets the genre on one record. An empty genre marks the
// record uncategorized again.
func (s *RecordService) UpdateGenre(ctx context.Context, rowNumber int64, genre string) (state.Views, error) {
	return s.Update(ctx, core.RecordUpdate{RowNumber: rowNumber, Genre: &genre})
}

// UpdateDescription sets the description on one record.
func (s *RecordService) UpdateDescription(ctx context.Context, rowNumber int64, description string) (state.Views, error) {
	return s.Update(ctx, core.RecordUpdate{RowNumber: rowNumber, Description: &description})
}

// Refresh replaces the record snapshot with a fresh fetch from the
// store and returns the recomputed views.
func (s *RecordService) Refresh(ctx context.Context, source ports.RecordSource) (state.Views, error) {
	records, err := source.FetchRecords(ctx)
	if err != nil {
		return state.Views{}, err
	}
	return s.state.Apply(func(st *state.State) {
		st.Records = records
	}), nil
}

func (s *RecordService) mirror(ctx context.Context, msg *amqp.MutationMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishMutation(ctx, msg); err != nil {
		// The mirror is best effort; the local write already landed.
		slog.WarnContext(ctx, "Failed to publish mutation mirror",
			"kind", msg.Kind, "error", err)
	}
}
