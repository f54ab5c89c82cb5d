package google

import (
	"reflect"
	"testing"

	"kakeibo/internal/core"
)

func TestParseRecordRows(t *testing.T) {
	values := [][]any{
		{"2024/03/05", "12.5", "coffee", ""},
		{"2024/03/06", 40, "groceries", "食費"},
		{"2024年03月07日", "not-a-number", "weird"},
		{},
	}
	got := parseRecordRows(values, 2)
	want := []core.Expense{
		{RowNumber: 2, Date: "2024/03/05", Amount: 12.5, Description: "coffee", Genre: ""},
		{RowNumber: 3, Date: "2024/03/06", Amount: 40, Description: "groceries", Genre: "食費"},
		{RowNumber: 4, Date: "2024年03月07日", Amount: 0, Description: "weird", Genre: ""},
		{RowNumber: 5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseRecordRows = %+v, want %+v", got, want)
	}
}

func TestParseRecordRowsEmpty(t *testing.T) {
	if got := parseRecordRows(nil, 2); len(got) != 0 {
		t.Errorf("parseRecordRows(nil) = %+v, want empty", got)
	}
}
