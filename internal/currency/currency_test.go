package currency

import "testing"

func TestConvertBase(t *testing.T) {
	c := Converter{Mode: Base, Rate: 160}
	cases := []struct {
		in, want float64
	}{
		{12.5, 12.5},
		{12.345, 12.35},
		{12.344, 12.34},
		{40, 40},
		{0, 0},
	}
	for _, tc := range cases {
		if got := c.Convert(tc.in); got != tc.want {
			t.Errorf("Convert(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestConvertSecondary(t *testing.T) {
	c := Converter{Mode: Secondary, Rate: 160}
	cases := []struct {
		in, want float64
	}{
		{12.5, 2000},
		{0.01, 2},    // 1.6 rounds up
		{0.009, 1},   // 1.44 rounds down
		{40, 6400},
	}
	for _, tc := range cases {
		if got := c.Convert(tc.in); got != tc.want {
			t.Errorf("Convert(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestConvertZeroRateFallsBack(t *testing.T) {
	c := Converter{Mode: Secondary, Rate: 0}
	if got := c.Convert(1); got != DefaultRate {
		t.Errorf("Convert(1) with zero rate = %v, want %v", got, DefaultRate)
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want Mode
	}{
		{"jpy", Secondary},
		{"JPY", Secondary},
		{" jpy ", Secondary},
		{"eur", Base},
		{"", Base},
		{"usd", Base},
	}
	for _, tc := range cases {
		if got := ParseMode(tc.in); got != tc.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFormat(t *testing.T) {
	jpy := Converter{Mode: Secondary, Rate: 160}
	if got := jpy.Format(50); got != "¥8,000" {
		t.Errorf("Format(50) = %q, want ¥8,000", got)
	}
	eur := Converter{Mode: Base, Rate: 160}
	if got := eur.Format(52.5); got != "€52.5" {
		t.Errorf("Format(52.5) = %q, want €52.5", got)
	}
	if got := eur.Format(1234); got != "€1,234" {
		t.Errorf("Format(1234) = %q, want €1,234", got)
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(76.19047619); got != "76.2" {
		t.Errorf("FormatPercent = %q, want 76.2", got)
	}
	if got := FormatPercent(100); got != "100.0" {
		t.Errorf("FormatPercent = %q, want 100.0", got)
	}
}
