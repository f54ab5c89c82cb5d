package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kakeibo/internal/amqp"
	"kakeibo/internal/category"
	"kakeibo/internal/core"
	"kakeibo/internal/currency"
	"kakeibo/internal/sheets/memory"
	"kakeibo/internal/state"
	"kakeibo/internal/worker"
)

func strPtr(s string) *string { return &s }

type capturePublisher struct {
	mu       sync.Mutex
	messages []*amqp.MutationMessage
	fail     bool
}

func (p *capturePublisher) PublishMutation(_ context.Context, msg *amqp.MutationMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *capturePublisher) kinds() []amqp.MutationKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.MutationKind, len(p.messages))
	for i, m := range p.messages {
		out[i] = m.Kind
	}
	return out
}

type fixture struct {
	store     *memory.Store
	state     *state.Store
	persister *worker.PersistWorker
	pub       *capturePublisher
	records   *RecordService
	cats      *CategoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New([]core.Expense{
		{RowNumber: 2, Date: "2024/03/05", Amount: 12.5, Description: "coffee", Genre: ""},
		{RowNumber: 3, Date: "2024/03/06", Amount: 40, Description: "groceries", Genre: "食費"},
	}, nil)

	pw := worker.NewPersistWorker(store, worker.DefaultPersistConfig())
	if err := pw.Start(context.Background()); err != nil {
		t.Fatalf("start persist worker: %v", err)
	}
	t.Cleanup(func() { pw.Stop(context.Background()) })

	pub := &capturePublisher{}
	reg := category.New([]string{"食費", "交通費"}, NewQueuePersister(pw, pub), category.RenamePermissive)
	st := state.NewStore(nil, reg, currency.Base, currency.DefaultRate)

	records := NewRecordService(st, pw, pub)
	if _, err := records.Refresh(context.Background(), store); err != nil {
		t.Fatalf("initial refresh: %v", err)
	}

	return &fixture{
		store:     store,
		state:     st,
		persister: pw,
		pub:       pub,
		records:   records,
		cats:      NewCategoryService(st),
	}
}

// waitForStore polls until the persistence queue has applied check.
func waitForStore(t *testing.T, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("store never reached expected shape")
}

func TestRecordUpdateIsOptimisticThenDurable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.records.UpdateGenre(ctx, 2, "交通費")
	if err != nil {
		t.Fatalf("UpdateGenre: %v", err)
	}
	// Local state reflects the change before the store does.
	if len(v.Uncategorized) != 0 {
		t.Errorf("uncategorized = %+v", v.Uncategorized)
	}

	waitForStore(t, func() bool {
		recs, _ := f.store.FetchRecords(ctx)
		return recs[0].Genre == "交通費"
	})

	kinds := f.pub.kinds()
	if len(kinds) != 1 || kinds[0] != amqp.KindRecordUpdate {
		t.Errorf("published kinds = %v", kinds)
	}
}

func TestRecordUpdateUnknownRow(t *testing.T) {
	f := newFixture(t)
	if _, err := f.records.Update(context.Background(), core.RecordUpdate{RowNumber: 99, Genre: strPtr("x")}); !errors.Is(err, core.ErrRowNotFound) {
		t.Errorf("err = %v, want ErrRowNotFound", err)
	}
	if got := f.pub.kinds(); len(got) != 0 {
		t.Errorf("nothing should be mirrored for a rejected update, got %v", got)
	}
}

func TestRecordUpdateValidation(t *testing.T) {
	f := newFixture(t)
	if _, err := f.records.Update(context.Background(), core.RecordUpdate{RowNumber: 2}); !errors.Is(err, core.ErrEmptyUpdate) {
		t.Errorf("err = %v, want ErrEmptyUpdate", err)
	}
}

func TestPublisherFailureDoesNotBlockUpdate(t *testing.T) {
	f := newFixture(t)
	f.pub.fail = true

	if _, err := f.records.UpdateDescription(context.Background(), 3, "supermarket"); err != nil {
		t.Fatalf("UpdateDescription: %v", err)
	}
	waitForStore(t, func() bool {
		recs, _ := f.store.FetchRecords(context.Background())
		return recs[1].Description == "supermarket"
	})
}

func TestCategoryAddPersistsWholeList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := f.cats.Add(ctx, "娯楽")
	want := []string{"食費", "交通費", "娯楽"}
	for i, l := range want {
		if v.DisplayGenres[i] != l {
			t.Fatalf("display genres = %v, want prefix %v", v.DisplayGenres, want)
		}
	}

	waitForStore(t, func() bool {
		cats, _ := f.store.FetchCategories(ctx)
		return len(cats) == 3 && cats[2] == "娯楽"
	})

	kinds := f.pub.kinds()
	if len(kinds) != 1 || kinds[0] != amqp.KindCategoryReplace {
		t.Errorf("published kinds = %v", kinds)
	}
}

func TestCategoryRenameKeepsPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.cats.Rename(ctx, 0, "外食"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if f.cats.Labels()[0] != "外食" {
		t.Errorf("labels = %v", f.cats.Labels())
	}

	if _, err := f.cats.Rename(ctx, 10, "x"); !errors.Is(err, core.ErrIndexRange) {
		t.Errorf("out-of-range rename err = %v", err)
	}
}

func TestCategoryReorderAndMove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.cats.Add(ctx, "娯楽")
	if _, err := f.cats.Reorder(ctx, 2, 0); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if got := f.cats.Labels(); got[0] != "娯楽" {
		t.Errorf("labels after reorder = %v", got)
	}

	if _, err := f.cats.Move(ctx, 0, category.Up); err != nil {
		t.Fatalf("Move: %v", err)
	}
	// Moving the first entry up is a no-op.
	if got := f.cats.Labels(); got[0] != "娯楽" {
		t.Errorf("labels after boundary move = %v", got)
	}
}

func TestCategoryReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.cats.Replace(ctx, []string{" 固定費 ", "固定費", "その他", ""})
	got := f.cats.Labels()
	if len(got) != 2 || got[0] != "固定費" || got[1] != "その他" {
		t.Errorf("labels = %v", got)
	}

	waitForStore(t, func() bool {
		cats, _ := f.store.FetchCategories(ctx)
		return len(cats) == 2
	})
}
