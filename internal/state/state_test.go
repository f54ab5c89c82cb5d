package state

import (
	"testing"

	"kakeibo/internal/category"
	"kakeibo/internal/core"
	"kakeibo/internal/currency"
	"kakeibo/internal/derive"
)

func strPtr(s string) *string { return &s }

func newTestStore() *Store {
	records := []core.Expense{
		{RowNumber: 2, Date: "2024/03/05", Amount: 12.5, Description: "coffee", Genre: ""},
		{RowNumber: 3, Date: "2024/03/06", Amount: 40, Description: "groceries", Genre: "Food"},
	}
	reg := category.New([]string{"Food", "Fun"}, nil, category.RenamePermissive)
	return NewStore(records, reg, currency.Base, currency.DefaultRate)
}

func TestInitialViews(t *testing.T) {
	v := newTestStore().Views()

	if len(v.Uncategorized) != 1 || v.Uncategorized[0].RowNumber != 2 {
		t.Errorf("uncategorized = %+v", v.Uncategorized)
	}
	if len(v.History) != 1 || v.History[0].RowNumber != 3 {
		t.Errorf("history = %+v", v.History)
	}
	if v.Total != 52.5 {
		t.Errorf("total = %v", v.Total)
	}
	if v.Currency != "EUR" {
		t.Errorf("currency = %q", v.Currency)
	}
	if len(v.GenreBreakdown) != 1 || v.GenreBreakdown[0].Percent != "76.2" {
		t.Errorf("breakdown = %+v", v.GenreBreakdown)
	}
}

func TestSetRecordRecomputes(t *testing.T) {
	st := newTestStore()

	if ok := st.SetRecord(core.RecordUpdate{RowNumber: 2, Genre: strPtr("Fun")}); !ok {
		t.Fatal("SetRecord reported row missing")
	}
	v := st.Views()
	if len(v.Uncategorized) != 0 {
		t.Errorf("uncategorized should drain after categorizing: %+v", v.Uncategorized)
	}
	if len(v.History) != 2 {
		t.Errorf("history = %+v", v.History)
	}

	if ok := st.SetRecord(core.RecordUpdate{RowNumber: 99, Genre: strPtr("x")}); ok {
		t.Error("SetRecord should report missing rows")
	}
}

func TestApplyCurrencySwitch(t *testing.T) {
	st := newTestStore()
	v := st.Apply(func(s *State) {
		s.Mode = currency.Secondary
		s.Rate = 160
	})
	if v.Currency != "JPY" {
		t.Errorf("currency = %q", v.Currency)
	}
	if v.TotalDisplay != "¥8,400" {
		t.Errorf("total display = %q, want ¥8,400", v.TotalDisplay)
	}
	if v.GenreBreakdown[0].Value != 6400 {
		t.Errorf("breakdown value = %v, want 6400", v.GenreBreakdown[0].Value)
	}
	// Percent denominator stays unconverted.
	if v.GenreBreakdown[0].Percent != "76.2" {
		t.Errorf("percent = %q", v.GenreBreakdown[0].Percent)
	}
}

func TestApplyFilterChange(t *testing.T) {
	st := newTestStore()
	v := st.Apply(func(s *State) {
		s.Filter = derive.Filter{Genre: "Food", Month: derive.FilterAll, SortKey: derive.SortByAmount, Order: derive.Asc}
	})
	if len(v.History) != 1 || v.History[0].Genre != "Food" {
		t.Errorf("history = %+v", v.History)
	}
}

func TestDisplayGenresIncludeAdHoc(t *testing.T) {
	st := newTestStore()
	st.SetRecord(core.RecordUpdate{RowNumber: 2, Genre: strPtr("サブスク")})
	v := st.Views()
	want := []string{"Food", "Fun", "サブスク"}
	if len(v.DisplayGenres) != len(want) {
		t.Fatalf("display genres = %v", v.DisplayGenres)
	}
	for i, g := range want {
		if v.DisplayGenres[i] != g {
			t.Errorf("display genres = %v, want %v", v.DisplayGenres, want)
		}
	}
}
