// Package color assigns a stable display color to every genre label.
package color

import (
	"unicode/utf16"

	"kakeibo/internal/category"
)

// Uncategorized is the fixed color for records without a genre.
const Uncategorized = "#E2E8F0"

// Pastel palette shared with the chart legend.
var palette = []string{
	"#93C5FD", "#6EE7B7", "#FDE047", "#FDBA74", "#C4B5FD", "#CBD5E1",
	"#FECACA", "#A7F3D0", "#DDD6FE", "#FBCFE8", "#E2E8F0",
}

// Of maps a genre label to a color token. Built-in genres get a fixed
// palette slot by position; any other label is hashed so the same label
// always gets the same color, in this run and the next. Collisions
// between distinct custom labels are acceptable.
func Of(label string) string {
	if label == "" {
		return Uncategorized
	}
	for i, g := range category.DefaultGenres {
		if g == label {
			return palette[i%len(palette)]
		}
	}
	idx := int64(hash(label))
	if idx < 0 {
		idx = -idx
	}
	return palette[idx%int64(len(palette))]
}

// hash accumulates h = h*31 + unit over the label's UTF-16 code units
// with signed 32-bit wraparound.
func hash(label string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(label)) {
		h = h*31 + int32(u)
	}
	return h
}
