// Package derive computes every view the app renders from the flat record
// list: uncategorized queue, filtered history, chart buckets, breakdowns
// and totals. All functions are pure; they are recomputed from the latest
// state snapshot on every mutation.
package derive

import (
	"sort"
	"time"

	"kakeibo/internal/color"
	"kakeibo/internal/core"
	"kakeibo/internal/currency"
)

// SortKey selects the history sort column.
type SortKey int

const (
	// SortByDate orders by row number. Rows are appended chronologically
	// by the upstream recorder, so the row number stands in for a real
	// timestamp, which the sheet does not reliably carry.
	SortByDate SortKey = iota
	SortByAmount
)

// Order is the sort direction.
type Order int

const (
	Desc Order = iota
	Asc
)

// FilterAll is the sentinel meaning "no filter" for genre and month.
const FilterAll = "All"

// Filter holds the history view parameters.
type Filter struct {
	Genre   string
	Month   string // YYYY/MM, or FilterAll
	SortKey SortKey
	Order   Order
}

// Granularity selects the bucketing period.
type Granularity int

const (
	ByDay Granularity = iota
	ByMonth
)

type (
	// Bucket is one aggregation group of the bar chart: a period key,
	// the converted sum per genre, and the period total.
	Bucket struct {
		Name   string             `json:"name"`
		Genres map[string]float64 `json:"genres"`
		Total  float64            `json:"total"`
	}

	// GenreShare is one slice of the pie chart.
	GenreShare struct {
		Name    string  `json:"name"`
		Value   float64 `json:"value"`
		Percent string  `json:"percent"`
		Color   string  `json:"color"`
	}
)

// Uncategorized returns the records without a genre, newest first
// (descending row number).
func Uncategorized(records []core.Expense) []core.Expense {
	out := make([]core.Expense, 0)
	for _, r := range records {
		if r.Uncategorized() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RowNumber > out[j].RowNumber
	})
	return out
}

// FilteredSorted returns the categorized history view: records with a
// genre, narrowed by the genre and month filters, in the requested order.
// Month filtering needs a parseable date; records with unparseable dates
// are excluded from month-filtered results. The sort is stable, so
// equal-key records keep their relative input order.
func FilteredSorted(records []core.Expense, f Filter) []core.Expense {
	out := make([]core.Expense, 0)
	for _, r := range records {
		if r.Uncategorized() {
			continue
		}
		if f.Genre != "" && f.Genre != FilterAll && r.Genre != f.Genre {
			continue
		}
		if f.Month != "" && f.Month != FilterAll {
			d, ok := core.ParseDate(r.Date)
			if !ok || d.MonthKey() != f.Month {
				continue
			}
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		if f.SortKey == SortByAmount {
			less = out[i].Amount < out[j].Amount
		} else {
			less = out[i].RowNumber < out[j].RowNumber
		}
		if f.Order == Desc {
			return !less && !equalKey(out[i], out[j], f.SortKey)
		}
		return less
	})
	return out
}

func equalKey(a, b core.Expense, k SortKey) bool {
	if k == SortByAmount {
		return a.Amount == b.Amount
	}
	return a.RowNumber == b.RowNumber
}

// MonthList returns the distinct YYYY/MM keys of all parseable record
// dates, most recent first. Unparseable dates contribute nothing.
func MonthList(records []core.Expense) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, r := range records {
		d, ok := core.ParseDate(r.Date)
		if !ok {
			continue
		}
		key := d.MonthKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// BucketBy groups records into day (MM/DD) or month (YYYY/MM) buckets.
// Records whose date cannot be parsed land in a literal "Unknown" bucket.
// Each record's amount is converted and rounded BEFORE accumulation, so a
// bucket total is the sum of already-rounded values; the resulting
// rounding drift against a round-after-sum figure is intended.
// Buckets come back sorted ascending by key.
func BucketBy(records []core.Expense, g Granularity, conv currency.Converter) []Bucket {
	byKey := map[string]*Bucket{}
	keys := make([]string, 0)
	for _, r := range records {
		key := "Unknown"
		if d, ok := core.ParseDate(r.Date); ok {
			if g == ByMonth {
				key = d.MonthKey()
			} else {
				key = d.DayKey()
			}
		}
		b, ok := byKey[key]
		if !ok {
			b = &Bucket{Name: key, Genres: map[string]float64{}}
			byKey[key] = b
			keys = append(keys, key)
		}
		label := r.Genre
		if label == "" {
			label = core.UncategorizedLabel
		}
		v := conv.Convert(r.Amount)
		b.Genres[label] += v
		b.Total += v
	}
	sort.Strings(keys)
	out := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byKey[k])
	}
	return out
}

// GenreBreakdown sums each display label's records and converts the sum
// for display. The percent share uses the unconverted grand total as
// denominator regardless of display currency, formatted to one decimal.
// Labels whose converted value is zero are omitted.
func GenreBreakdown(records []core.Expense, displayGenres []string, conv currency.Converter) []GenreShare {
	rawTotal := Total(records)
	out := make([]GenreShare, 0, len(displayGenres))
	for _, genre := range displayGenres {
		var raw float64
		for _, r := range records {
			if r.Genre == genre {
				raw += r.Amount
			}
		}
		value := conv.Convert(raw)
		if value == 0 {
			continue
		}
		percent := "0.0"
		if rawTotal > 0 {
			percent = currency.FormatPercent(raw / rawTotal * 100)
		}
		out = append(out, GenreShare{
			Name:    genre,
			Value:   value,
			Percent: percent,
			Color:   color.Of(genre),
		})
	}
	return out
}

// Average is the arithmetic mean of the bucket totals, zero when there
// are no buckets.
func Average(buckets []Bucket) float64 {
	if len(buckets) == 0 {
		return 0
	}
	var sum float64
	for _, b := range buckets {
		sum += b.Total
	}
	return sum / float64(len(buckets))
}

// Total sums the raw base-unit amounts of all records.
func Total(records []core.Expense) float64 {
	var sum float64
	for _, r := range records {
		sum += r.Amount
	}
	return sum
}

// RollingWindowTotal sums the raw amounts of records whose date falls
// within [now-days, now], both ends inclusive. A record with an
// unparseable date counts as dated now, so it is always inside the
// window.
func RollingWindowTotal(records []core.Expense, days int, now time.Time) float64 {
	start := core.DateOf(now).Time().AddDate(0, 0, -days)
	var sum float64
	for _, r := range records {
		t := now
		if d, ok := core.ParseDate(r.Date); ok {
			t = d.Time()
		}
		if !t.Before(start) && !t.After(now) {
			sum += r.Amount
		}
	}
	return sum
}
