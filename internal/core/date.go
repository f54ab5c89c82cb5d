package core

import (
	"fmt"
	"regexp"
	"time"
)

// Date is a calendar day extracted from a sheet cell.
type Date struct {
	Year  int
	Month int // 1-12
	Day   int // 1-31
}

// The sheet mixes YYYY/MM/DD, YYYY年MM月DD日 and ISO-like YYYY-MM-DD cells.
var dateRe = regexp.MustCompile(`(\d{4})[/年-](\d{1,2})[/月-](\d{1,2})`)

// ParseDate extracts a calendar day from free-form cell text.
// It returns ok=false for anything it cannot read; the caller decides the
// fallback (exclude the record, bucket it as unknown, or treat it as today).
func ParseDate(s string) (Date, bool) {
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return Date{}, false
	}
	d := Date{Year: atoi(m[1]), Month: atoi(m[2]), Day: atoi(m[3])}
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return Date{}, false
	}
	return d, true
}

// DateOf converts a time.Time to a Date in the local calendar.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// Time returns the date at midnight local time.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.Local)
}

// MonthKey formats the date as YYYY/MM, the month bucket key.
// Lexicographic order of month keys matches chronological order.
func (d Date) MonthKey() string {
	return fmt.Sprintf("%04d/%02d", d.Year, d.Month)
}

// DayKey formats the date as MM/DD, the day bucket key. Lexicographic
// order only matches chronological order within a single year.
func (d Date) DayKey() string {
	return fmt.Sprintf("%02d/%02d", d.Month, d.Day)
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
