package services

import (
	"context"
	"log/slog"

	"kakeibo/internal/amqp"
	"kakeibo/internal/category"
	ports "kakeibo/internal/sheets"
	"kakeibo/internal/state"
	"kakeibo/internal/worker"
)

// CategoryService runs registry mutations under the state store's write
// lock and lets the registry's persister handle the durable side.
type CategoryService struct {
	state *state.Store
}

// NewCategoryService creates a category service over the state store.
func NewCategoryService(st *state.Store) *CategoryService {
	return &CategoryService{state: st}
}

// Add appends a label. Empty and duplicate labels are a silent no-op.
func (s *CategoryService) Add(ctx context.Context, label string) state.Views {
	return s.state.Apply(func(st *state.State) {
		st.Registry.Add(ctx, label)
	})
}

// Rename replaces the label at index, keeping its position.
func (s *CategoryService) Rename(ctx context.Context, index int, label string) (state.Views, error) {
	var err error
	v := s.state.Apply(func(st *state.State) {
		err = st.Registry.Rename(ctx, index, label)
	})
	return v, err
}

// Remove deletes the label at index.
func (s *CategoryService) Remove(ctx context.Context, index int) (state.Views, error) {
	var err error
	v := s.state.Apply(func(st *state.State) {
		err = st.Registry.Remove(ctx, index)
	})
	return v, err
}

// Reorder moves the label at from to position to.
func (s *CategoryService) Reorder(ctx context.Context, from, to int) (state.Views, error) {
	var err error
	v := s.state.Apply(func(st *state.State) {
		err = st.Registry.Reorder(ctx, from, to)
	})
	return v, err
}

// Move shifts the label at index one step up or down. Pushing past
// either end is a no-op.
func (s *CategoryService) Move(ctx context.Context, index int, dir category.Direction) (state.Views, error) {
	var err error
	v := s.state.Apply(func(st *state.State) {
		err = st.Registry.MoveAdjacent(ctx, index, dir)
	})
	return v, err
}

// Replace swaps in a whole new label list.
func (s *CategoryService) Replace(ctx context.Context, labels []string) state.Views {
	return s.state.Apply(func(st *state.State) {
		st.Registry.Replace(ctx, labels)
	})
}

// Labels returns the current registry labels in user order.
func (s *CategoryService) Labels() []string {
	return s.state.CategoryLabels()
}

// QueuePersister is the category.Persister wired in production: it
// enqueues the whole-list replacement on the persistence queue and
// mirrors it over AMQP.
type QueuePersister struct {
	persister *worker.PersistWorker
	publisher Publisher
}

// NewQueuePersister creates a queue-backed persister. publisher may be
// nil.
func NewQueuePersister(persister *worker.PersistWorker, publisher Publisher) *QueuePersister {
	return &QueuePersister{persister: persister, publisher: publisher}
}

var _ category.Persister = (*QueuePersister)(nil)

// PersistCategories replaces the stored label list asynchronously.
func (p *QueuePersister) PersistCategories(ctx context.Context, labels []string) {
	p.persister.Enqueue(worker.Task{
		Name: "category_replace",
		Run: func(ctx context.Context, store ports.Store) error {
			return store.ReplaceCategories(ctx, labels)
		},
	})
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishMutation(ctx, amqp.NewCategoryReplaceMessage(labels)); err != nil {
		slog.WarnContext(ctx, "Failed to publish category mirror", "error", err)
	}
}
