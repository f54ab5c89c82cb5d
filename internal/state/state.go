// Package state holds the single application-state struct and recomputes
// every derived view whenever it changes. All reads go through immutable
// snapshots; all writes go through one entry point.
package state

import (
	"sync"
	"time"

	"kakeibo/internal/category"
	"kakeibo/internal/core"
	"kakeibo/internal/currency"
	"kakeibo/internal/derive"
)

// Last30DaysWindow is the rolling window shown in the header.
const Last30DaysWindow = 30

// State is everything the derivation pipeline depends on: the record
// snapshot, the category registry, the view parameters and the currency
// mode. It is mutated only inside Store.Apply.
type State struct {
	Records  []core.Expense
	Registry *category.Registry
	Filter   derive.Filter
	Mode     currency.Mode
	Rate     float64
}

// Views is the derived snapshot the presentation layer renders. It is
// recomputed as a whole after every state change.
type Views struct {
	Uncategorized  []core.Expense     `json:"uncategorized"`
	History        []core.Expense     `json:"history"`
	DisplayGenres  []string           `json:"displayGenres"`
	MonthList      []string           `json:"monthList"`
	DailyBuckets   []derive.Bucket    `json:"dailyBuckets"`
	MonthlyBuckets []derive.Bucket    `json:"monthlyBuckets"`
	GenreBreakdown []derive.GenreShare `json:"genreBreakdown"`
	DailyAverage   float64            `json:"dailyAverage"`
	MonthlyAverage float64            `json:"monthlyAverage"`
	Total          float64            `json:"total"`
	TotalDisplay   string             `json:"totalDisplay"`
	Last30Days     float64            `json:"last30Days"`
	Last30Display  string             `json:"last30Display"`
	Currency       string             `json:"currency"`
	Rate           float64            `json:"rate"`
}

// Store serializes access to the state and keeps the derived views in
// sync with it.
type Store struct {
	mu    sync.RWMutex
	state State
	views Views
	now   func() time.Time
}

// NewStore builds a store around the initial state and computes the
// first view snapshot.
func NewStore(records []core.Expense, registry *category.Registry, mode currency.Mode, rateValue float64) *Store {
	st := &Store{
		state: State{
			Records:  records,
			Registry: registry,
			Filter: derive.Filter{
				Genre: derive.FilterAll,
				Month: derive.FilterAll,
			},
			Mode: mode,
			Rate: rateValue,
		},
		now: time.Now,
	}
	st.views = recompute(&st.state, st.now())
	return st
}

// Apply runs the mutation under the write lock, recomputes the views and
// returns the fresh snapshot. This is the only way to change state.
func (st *Store) Apply(mutate func(*State)) Views {
	st.mu.Lock()
	defer st.mu.Unlock()
	mutate(&st.state)
	st.views = recompute(&st.state, st.now())
	return st.views
}

// Views returns the current derived snapshot.
func (st *Store) Views() Views {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.views
}

// ViewsFor recomputes the views with the given filter, currency mode and
// rate without touching the stored state. Used by read paths that carry
// their own view parameters, like the dashboard endpoint.
func (st *Store) ViewsFor(f derive.Filter, mode currency.Mode, rateValue float64) Views {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s := st.state
	s.Filter = f
	s.Mode = mode
	s.Rate = rateValue
	return recompute(&s, st.now())
}

// CategoryLabels returns a copy of the registry labels in user order.
func (st *Store) CategoryLabels() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.state.Registry.Labels()
}

// Records returns a copy of the current record list.
func (st *Store) Records() []core.Expense {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return append([]core.Expense(nil), st.state.Records...)
}

// SetRecord updates one record's fields in place, optimistically.
// Returns false when the row is not in the snapshot.
func (st *Store) SetRecord(u core.RecordUpdate) bool {
	found := false
	st.Apply(func(s *State) {
		for i := range s.Records {
			if s.Records[i].RowNumber != u.RowNumber {
				continue
			}
			if u.Genre != nil {
				s.Records[i].Genre = *u.Genre
			}
			if u.Description != nil {
				s.Records[i].Description = *u.Description
			}
			found = true
			return
		}
	})
	return found
}

func recompute(s *State, now time.Time) Views {
	conv := currency.Converter{Mode: s.Mode, Rate: s.Rate}
	display := s.Registry.ResolveDisplayList(s.Records)
	daily := derive.BucketBy(s.Records, derive.ByDay, conv)
	monthly := derive.BucketBy(s.Records, derive.ByMonth, conv)
	total := derive.Total(s.Records)
	last30 := derive.RollingWindowTotal(s.Records, Last30DaysWindow, now)

	return Views{
		Uncategorized:  derive.Uncategorized(s.Records),
		History:        derive.FilteredSorted(s.Records, s.Filter),
		DisplayGenres:  display,
		MonthList:      derive.MonthList(s.Records),
		DailyBuckets:   daily,
		MonthlyBuckets: monthly,
		GenreBreakdown: derive.GenreBreakdown(s.Records, display, conv),
		DailyAverage:   derive.Average(daily),
		MonthlyAverage: derive.Average(monthly),
		Total:          total,
		TotalDisplay:   conv.Format(total),
		Last30Days:     last30,
		Last30Display:  conv.Format(last30),
		Currency:       s.Mode.String(),
		Rate:           s.Rate,
	}
}
