// Package loading picks the loading-screen variant shown while the first
// record fetch is in flight. The set is a static registry rather than a
// directory scan, so the server never enumerates the filesystem at
// request time.
package loading

import (
	"math/rand"
	"sync"
)

// Variants is the full set of loading-screen identifiers the client
// knows how to render, in a stable order.
var Variants = []string{
	"wallet",
	"coins",
	"receipt",
	"piggybank",
	"chart",
	"yen",
}

// Selector chooses one variant per request. A zero seed uses the shared
// global source; a fixed seed makes selection reproducible.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand

	// Pinned, when non-empty, overrides random selection.
	pinned string
}

// NewSelector creates a selector. seed == 0 keeps the global source.
func NewSelector(seed int64) *Selector {
	s := &Selector{}
	if seed != 0 {
		s.rng = rand.New(rand.NewSource(seed))
	}
	return s
}

// Pin forces every Pick to return the given variant when it is in the
// registry; unknown names are ignored.
func (s *Selector) Pin(name string) {
	if !Known(name) {
		return
	}
	s.mu.Lock()
	s.pinned = name
	s.mu.Unlock()
}

// Pick returns one variant identifier, uniformly at random unless a
// variant is pinned.
func (s *Selector) Pick() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pinned != "" {
		return s.pinned
	}
	if s.rng != nil {
		return Variants[s.rng.Intn(len(Variants))]
	}
	return Variants[rand.Intn(len(Variants))]
}

// Known reports whether name is a registered variant.
func Known(name string) bool {
	for _, v := range Variants {
		if v == name {
			return true
		}
	}
	return false
}
