package core

import (
	"errors"
	"strconv"
	"strings"
)

// UncategorizedLabel is the display label used for records without a genre.
const UncategorizedLabel = "未分類"

type (
	// Expense is a single row from the expense sheet. The date is kept as
	// the raw cell text because the sheet mixes several locale formats;
	// use ParseDate when a real date is needed.
	Expense struct {
		RowNumber   int64   `json:"rowNumber"`
		Date        string  `json:"date"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		Genre       string  `json:"genre"`
	}

	// RecordUpdate is a partial field update keyed by row number.
	// A nil field is left untouched by the store.
	RecordUpdate struct {
		RowNumber   int64   `json:"rowNumber"`
		Genre       *string `json:"genre,omitempty"`
		Description *string `json:"description,omitempty"`
	}
)

var (
	ErrRowNotFound    = errors.New("row not found")
	ErrInvalidRow     = errors.New("invalid row number")
	ErrEmptyUpdate    = errors.New("update has no fields")
	ErrDuplicateLabel = errors.New("duplicate category label")
	ErrEmptyLabel     = errors.New("empty category label")
	ErrIndexRange     = errors.New("index out of range")
)

// Uncategorized reports whether the expense has no genre assigned.
func (e Expense) Uncategorized() bool {
	return e.Genre == ""
}

// Validate checks that the update targets a row and carries at least one field.
func (u RecordUpdate) Validate() error {
	if u.RowNumber < 1 {
		return ErrInvalidRow
	}
	if u.Genre == nil && u.Description == nil {
		return ErrEmptyUpdate
	}
	return nil
}

// ParseAmount converts a sheet cell to a non-negative amount.
// Malformed or negative values fall back to zero so a bad row never
// breaks the whole view.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
