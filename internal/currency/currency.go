// Package currency converts base-unit amounts to the display currency
// and applies the rounding policy for each unit.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Mode selects the display currency.
type Mode int

const (
	// Base is the currency amounts are stored in (EUR, fractional unit).
	Base Mode = iota
	// Secondary is the converted display currency (JPY, whole units only).
	Secondary
)

// DefaultRate is used until the first successful rate fetch.
const DefaultRate = 160.0

// ParseMode reads a mode from a query parameter. Anything that is not
// the secondary unit falls back to base.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "jpy") {
		return Secondary
	}
	return Base
}

func (m Mode) String() string {
	if m == Secondary {
		return "JPY"
	}
	return "EUR"
}

// Symbol returns the currency symbol for the mode.
func (m Mode) Symbol() string {
	if m == Secondary {
		return "¥"
	}
	return "€"
}

// Converter applies the active rate and rounding policy. Conversion never
// fails: a stale or default rate is used when no fresh one is available.
type Converter struct {
	Mode Mode
	Rate float64
}

// Convert multiplies by the rate in secondary mode and rounds per unit:
// whole yen, two-decimal euro. Half-up rounding via decimal arithmetic.
func (c Converter) Convert(amount float64) float64 {
	d := decimal.NewFromFloat(amount)
	if c.Mode == Secondary {
		rate := c.Rate
		if rate <= 0 {
			rate = DefaultRate
		}
		v, _ := d.Mul(decimal.NewFromFloat(rate)).Round(0).Float64()
		return v
	}
	v, _ := d.Round(2).Float64()
	return v
}

// Format renders an already base-unit amount in the display currency with
// thousands separators, e.g. "¥8,000" or "€52.50".
func (c Converter) Format(amount float64) string {
	converted := c.Convert(amount)
	d := decimal.NewFromFloat(converted)
	var s string
	if c.Mode == Secondary {
		s = d.StringFixed(0)
	} else {
		s = d.StringFixed(2)
		s = strings.TrimSuffix(strings.TrimSuffix(s, "0"), "0")
		s = strings.TrimSuffix(s, ".")
	}
	return c.Mode.Symbol() + groupThousands(s)
}

// FormatPercent renders a percentage with one decimal, e.g. "76.2".
func FormatPercent(p float64) string {
	return decimal.NewFromFloat(p).Round(1).StringFixed(1)
}

func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	for i := len(intPart) - 3; i > 0; i -= 3 {
		intPart = intPart[:i] + "," + intPart[i:]
	}
	out := intPart + frac
	if neg {
		out = "-" + out
	}
	return out
}
