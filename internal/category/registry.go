// Package category holds the user-ordered list of genre labels and keeps
// the persisted copy in sync after every mutation.
package category

import (
	"context"
	"log/slog"
	"strings"

	"kakeibo/internal/core"
)

// DefaultGenres seeds the registry when the store has no saved list.
var DefaultGenres = []string{"食費", "交通費", "日用品", "娯楽", "固定費", "その他"}

// Persister receives the full label list after each mutation. The store
// has no partial update primitive: the whole list is replaced every time,
// so the last writer wins.
type Persister interface {
	PersistCategories(ctx context.Context, labels []string)
}

// RenamePolicy controls duplicate checking in Rename. The permissive mode
// matches the original behavior where a rename may create a transient
// duplicate during interactive editing.
type RenamePolicy int

const (
	RenamePermissive RenamePolicy = iota
	RenameStrict
)

// Direction for MoveAdjacent.
type Direction int

const (
	Up Direction = iota
	Down
)

// Registry is the ordered, deduplicated list of category labels.
// It is not goroutine-safe; the owning state store serializes access.
type Registry struct {
	labels    []string
	persister Persister
	policy    RenamePolicy
}

// New builds a registry from the persisted list, dropping empty and
// duplicate entries. An empty list falls back to DefaultGenres.
func New(labels []string, persister Persister, policy RenamePolicy) *Registry {
	clean := Sanitize(labels)
	if len(clean) == 0 {
		clean = append([]string(nil), DefaultGenres...)
	}
	return &Registry{labels: clean, persister: persister, policy: policy}
}

// Labels returns a copy of the current label list in user order.
func (r *Registry) Labels() []string {
	return append([]string(nil), r.labels...)
}

// Len returns the number of labels.
func (r *Registry) Len() int { return len(r.labels) }

// Add appends a new label. Empty (after trimming) or already-present
// labels are a silent no-op, matching the UI contract.
func (r *Registry) Add(ctx context.Context, label string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return
	}
	for _, l := range r.labels {
		if l == label {
			return
		}
	}
	r.labels = append(r.labels, label)
	r.persist(ctx)
}

// Rename replaces the label at index in place, preserving its position.
// Under RenameStrict a rename that would collide with another entry
// returns ErrDuplicateLabel; the permissive default allows it.
func (r *Registry) Rename(ctx context.Context, index int, label string) error {
	if index < 0 || index >= len(r.labels) {
		return core.ErrIndexRange
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return core.ErrEmptyLabel
	}
	if r.policy == RenameStrict {
		for i, l := range r.labels {
			if i != index && l == label {
				return core.ErrDuplicateLabel
			}
		}
	}
	r.labels[index] = label
	r.persist(ctx)
	return nil
}

// Remove deletes the entry at index, shifting later entries down.
func (r *Registry) Remove(ctx context.Context, index int) error {
	if index < 0 || index >= len(r.labels) {
		return core.ErrIndexRange
	}
	r.labels = append(r.labels[:index], r.labels[index+1:]...)
	r.persist(ctx)
	return nil
}

// Reorder moves the entry at from to position to.
func (r *Registry) Reorder(ctx context.Context, from, to int) error {
	if from < 0 || from >= len(r.labels) || to < 0 || to >= len(r.labels) {
		return core.ErrIndexRange
	}
	if from == to {
		return nil
	}
	label := r.labels[from]
	rest := append(r.labels[:from:from], r.labels[from+1:]...)
	r.labels = append(rest[:to:to], append([]string{label}, rest[to:]...)...)
	r.persist(ctx)
	return nil
}

// MoveAdjacent moves the entry one step up or down. Moving the first
// entry up or the last entry down is a no-op.
func (r *Registry) MoveAdjacent(ctx context.Context, index int, dir Direction) error {
	if index < 0 || index >= len(r.labels) {
		return core.ErrIndexRange
	}
	j := index - 1
	if dir == Down {
		j = index + 1
	}
	if j < 0 || j >= len(r.labels) {
		return nil
	}
	r.labels[index], r.labels[j] = r.labels[j], r.labels[index]
	r.persist(ctx)
	return nil
}

// Replace swaps in a whole new list (the POST /api/settings path).
// The list is sanitized the same way as New.
func (r *Registry) Replace(ctx context.Context, labels []string) {
	r.labels = Sanitize(labels)
	r.persist(ctx)
}

// ResolveDisplayList returns the registry labels in user order followed by
// any distinct non-empty genre found on the records but absent from the
// registry, in first-seen record order. The result never contains
// duplicates.
func (r *Registry) ResolveDisplayList(records []core.Expense) []string {
	out := append([]string(nil), r.labels...)
	seen := make(map[string]struct{}, len(out))
	for _, l := range out {
		seen[l] = struct{}{}
	}
	for _, rec := range records {
		if rec.Genre == "" {
			continue
		}
		if _, ok := seen[rec.Genre]; ok {
			continue
		}
		seen[rec.Genre] = struct{}{}
		out = append(out, rec.Genre)
	}
	return out
}

func (r *Registry) persist(ctx context.Context) {
	if r.persister == nil {
		slog.DebugContext(ctx, "No category persister configured, keeping list in memory only")
		return
	}
	r.persister.PersistCategories(ctx, r.Labels())
}

// Sanitize trims labels and drops empty and duplicate entries while
// preserving first-seen order.
func Sanitize(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
