package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"kakeibo/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "kakeibo.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func strPtr(s string) *string { return &s }

func TestRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	row, err := repo.AppendRecord(ctx, core.Expense{
		Date: "2024/03/05", Amount: 12.5, Description: "coffee",
	})
	if err != nil {
		t.Fatal(err)
	}
	if row != 2 {
		t.Errorf("first row = %d, want 2", row)
	}

	if err := repo.UpdateRecord(ctx, core.RecordUpdate{RowNumber: row, Genre: strPtr("食費")}); err != nil {
		t.Fatal(err)
	}
	records, err := repo.FetchRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Genre != "食費" || records[0].Description != "coffee" {
		t.Errorf("records = %+v", records)
	}

	if err := repo.UpdateRecord(ctx, core.RecordUpdate{RowNumber: 99, Genre: strPtr("x")}); err != core.ErrRowNotFound {
		t.Errorf("missing row error = %v, want ErrRowNotFound", err)
	}
}

func TestUpsertRecord(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	e := core.Expense{RowNumber: 5, Date: "2024/03/05", Amount: 1, Description: "a", Genre: ""}
	if err := repo.UpsertRecord(ctx, e); err != nil {
		t.Fatal(err)
	}
	e.Amount = 2
	if err := repo.UpsertRecord(ctx, e); err != nil {
		t.Fatal(err)
	}
	records, _ := repo.FetchRecords(ctx)
	if len(records) != 1 || records[0].Amount != 2 {
		t.Errorf("records = %+v", records)
	}
}

func TestCategoryReplaceRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	want := []string{"食費", "交通費", "娯楽"}
	if err := repo.ReplaceCategories(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := repo.FetchCategories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("categories = %v, want %v", got, want)
	}

	// Replacing with the fetched list leaves the store unchanged.
	if err := repo.ReplaceCategories(ctx, got); err != nil {
		t.Fatal(err)
	}
	again, _ := repo.FetchCategories(ctx)
	if !reflect.DeepEqual(again, want) {
		t.Errorf("round trip changed list: %v", again)
	}

	// Full replacement: a shorter list drops the rest.
	if err := repo.ReplaceCategories(ctx, []string{"X"}); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.FetchCategories(ctx)
	if !reflect.DeepEqual(got, []string{"X"}) {
		t.Errorf("categories = %v, want [X]", got)
	}
}
