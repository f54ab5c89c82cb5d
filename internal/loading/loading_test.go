package loading

import "testing"

func TestPickReturnsRegisteredVariant(t *testing.T) {
	s := NewSelector(0)
	for i := 0; i < 50; i++ {
		if v := s.Pick(); !Known(v) {
			t.Fatalf("picked unregistered variant %q", v)
		}
	}
}

func TestSeededSelectionIsReproducible(t *testing.T) {
	a := NewSelector(42)
	b := NewSelector(42)
	for i := 0; i < 20; i++ {
		if got, want := a.Pick(), b.Pick(); got != want {
			t.Fatalf("seeded selectors diverged at %d: %q vs %q", i, got, want)
		}
	}
}

func TestPinOverridesRandomness(t *testing.T) {
	s := NewSelector(0)
	s.Pin("coins")
	for i := 0; i < 10; i++ {
		if v := s.Pick(); v != "coins" {
			t.Fatalf("pinned pick = %q", v)
		}
	}

	s2 := NewSelector(1)
	s2.Pin("no-such-variant")
	if v := s2.Pick(); !Known(v) {
		t.Errorf("unknown pin should be ignored, got %q", v)
	}
}
