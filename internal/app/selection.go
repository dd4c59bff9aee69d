package app

import (
	"maps"
	"slices"

	"github.com/evanschultz/jobgrid/internal/domain"
)

// Selection is a set of selected record ids.
type Selection map[int64]struct{}

// NewSelection builds a selection from ids.
func NewSelection(ids ...int64) Selection {
	out := make(Selection, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// Has reports whether id is selected.
func (s Selection) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Toggle returns a copy with id flipped.
func (s Selection) Toggle(id int64) Selection {
	out := maps.Clone(s)
	if out == nil {
		out = Selection{}
	}
	if _, ok := out[id]; ok {
		delete(out, id)
	} else {
		out[id] = struct{}{}
	}
	return out
}

// IDs returns the selected ids in ascending order.
func (s Selection) IDs() []int64 {
	return slices.Sorted(maps.Keys(s))
}

// Equal reports whether both sets hold the same ids.
func (s Selection) Equal(other Selection) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// ToggleAll selects every record, or clears the selection when all are already selected.
func ToggleAll(current Selection, records []domain.Record) Selection {
	all := make(Selection, len(records))
	for _, r := range records {
		all[r.ID] = struct{}{}
	}
	if len(all) > 0 && all.Equal(current) {
		return Selection{}
	}
	return all
}

// ReconcileSelection makes the grid's internal selection match the caller-owned
// one. Sync is one-directional: any drift is resolved by taking external.
func ReconcileSelection(internal, external Selection) (Selection, bool) {
	if internal.Equal(external) {
		return internal, false
	}
	return maps.Clone(external), true
}
