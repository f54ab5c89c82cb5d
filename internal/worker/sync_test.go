package worker

import (
	"context"
	"testing"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/sheets/memory"
)

func TestSyncWorkerAppliesRecordUpdate(t *testing.T) {
	store := memory.New([]core.Expense{
		{RowNumber: 2, Date: "2024/03/05", Amount: 10, Genre: ""},
	}, nil)
	w := NewSyncWorker(store)

	msg := amqp.NewRecordUpdateMessage(core.RecordUpdate{RowNumber: 2, Genre: strPtr("交通費")})
	if err := w.Apply(context.Background(), msg); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	records, _ := store.FetchRecords(context.Background())
	if records[0].Genre != "交通費" {
		t.Errorf("genre = %q", records[0].Genre)
	}
}

func TestSyncWorkerSkipsMissingRow(t *testing.T) {
	w := NewSyncWorker(memory.New(nil, nil))
	msg := amqp.NewRecordUpdateMessage(core.RecordUpdate{RowNumber: 99, Genre: strPtr("x")})
	if err := w.Apply(context.Background(), msg); err != nil {
		t.Errorf("missing row should be skipped, got %v", err)
	}
}

func TestSyncWorkerReplacesCategories(t *testing.T) {
	store := memory.New(nil, []string{"old"})
	w := NewSyncWorker(store)

	msg := amqp.NewCategoryReplaceMessage([]string{"食費", "交通費"})
	if err := w.Apply(context.Background(), msg); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	cats, _ := store.FetchCategories(context.Background())
	if len(cats) != 2 || cats[0] != "食費" {
		t.Errorf("categories = %v", cats)
	}
}

func TestSyncWorkerRejectsUnknownKind(t *testing.T) {
	w := NewSyncWorker(memory.New(nil, nil))
	if err := w.Apply(context.Background(), &amqp.MutationMessage{Kind: "bogus"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}
