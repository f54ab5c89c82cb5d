package color

import (
	"testing"

	"kakeibo/internal/category"
)

func TestOfEmptyLabel(t *testing.T) {
	if got := Of(""); got != Uncategorized {
		t.Errorf("Of(\"\") = %q, want %q", got, Uncategorized)
	}
}

func TestOfDefaultGenres(t *testing.T) {
	seen := map[string]string{}
	for _, g := range category.DefaultGenres {
		c := Of(g)
		if prev, ok := seen[c]; ok {
			t.Errorf("default genres %q and %q collide on %q", prev, g, c)
		}
		seen[c] = g
	}
	// Position-indexed: the first default genre always takes the first slot.
	if got := Of(category.DefaultGenres[0]); got != "#93C5FD" {
		t.Errorf("Of(%q) = %q, want #93C5FD", category.DefaultGenres[0], got)
	}
}

func TestOfDeterministic(t *testing.T) {
	for _, label := range []string{"Food", "サブスク", "coffee☕", "x"} {
		first := Of(label)
		for i := 0; i < 3; i++ {
			if got := Of(label); got != first {
				t.Fatalf("Of(%q) unstable: %q then %q", label, first, got)
			}
		}
		found := false
		for _, p := range palette {
			if p == first {
				found = true
			}
		}
		if !found {
			t.Errorf("Of(%q) = %q not in palette", label, first)
		}
	}
}

func TestHashKnownValue(t *testing.T) {
	// "Food": ((70*31+111)*31+111)*31+100 = 2195582, 2195582 % 11 = 4.
	if got := Of("Food"); got != palette[4] {
		t.Errorf("Of(\"Food\") = %q, want %q", got, palette[4])
	}
}
