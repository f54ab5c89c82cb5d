package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"kakeibo/internal/core"
	ports "kakeibo/internal/sheets"
)

// Store is an in-memory implementation of the spreadsheet ports, used in
// tests and as the dev backend.
type Store struct {
	mu      sync.Mutex
	records []core.Expense
	cats    []string
	nextRow int64
}

var _ ports.Store = (*Store)(nil)

func New(records []core.Expense, cats []string) *Store {
	s := &Store{nextRow: 2}
	for _, r := range records {
		if r.RowNumber == 0 {
			r.RowNumber = s.nextRow
		}
		if r.RowNumber >= s.nextRow {
			s.nextRow = r.RowNumber + 1
		}
		s.records = append(s.records, r)
	}
	s.cats = dedupe(cats)
	return s
}

// NewFromFiles seeds the store from optional text files under base:
// seed_expenses.tsv (date, amount, description, genre — tab separated)
// and seed_categories.txt (one label per line).
func NewFromFiles(base string) *Store {
	var records []core.Expense
	for _, line := range readLines(filepath.Join(base, "seed_expenses.tsv")) {
		parts := strings.Split(line, "\t")
		for len(parts) < 4 {
			parts = append(parts, "")
		}
		records = append(records, core.Expense{
			Date:        strings.TrimSpace(parts[0]),
			Amount:      core.ParseAmount(parts[1]),
			Description: strings.TrimSpace(parts[2]),
			Genre:       strings.TrimSpace(parts[3]),
		})
	}
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	return New(records, cats)
}

// Append adds a record, assigning the next row number. Record creation
// happens out-of-band in production; this exists for seeding and tests.
func (s *Store) Append(e core.Expense) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.RowNumber = s.nextRow
	s.nextRow++
	s.records = append(s.records, e)
	return e.RowNumber
}

func (s *Store) FetchRecords(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.records...), nil
}

func (s *Store) UpdateRecord(_ context.Context, u core.RecordUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].RowNumber != u.RowNumber {
			continue
		}
		if u.Genre != nil {
			s.records[i].Genre = *u.Genre
		}
		if u.Description != nil {
			s.records[i].Description = *u.Description
		}
		return nil
	}
	return core.ErrRowNotFound
}

func (s *Store) FetchCategories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cats...), nil
}

func (s *Store) ReplaceCategories(_ context.Context, labels []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cats = dedupe(labels)
	return nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
