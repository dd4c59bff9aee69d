package app

import (
	"slices"

	"github.com/evanschultz/jobgrid/internal/domain"
)

// RecordSet is the in-memory record store held by the grid.
type RecordSet []domain.Record

// Find returns the record with id.
func (rs RecordSet) Find(id int64) (domain.Record, bool) {
	idx := slices.IndexFunc(rs, func(r domain.Record) bool { return r.ID == id })
	if idx < 0 {
		return domain.Record{}, false
	}
	return rs[idx], true
}

// UpdateField returns a copy with one field of record id replaced. A missing id
// or an unsettable field leaves the set unchanged and reports false.
func (rs RecordSet) UpdateField(id int64, field domain.Field, value string) (RecordSet, bool) {
	idx := slices.IndexFunc(rs, func(r domain.Record) bool { return r.ID == id })
	if idx < 0 {
		return rs, false
	}
	updated, err := rs[idx].WithField(field, value)
	if err != nil {
		return rs, false
	}
	out := slices.Clone(rs)
	out[idx] = updated
	return out, true
}

// Replace swaps in a record returned by persistence.
func (rs RecordSet) Replace(r domain.Record) RecordSet {
	idx := slices.IndexFunc(rs, func(existing domain.Record) bool { return existing.ID == r.ID })
	if idx < 0 {
		return rs
	}
	out := slices.Clone(rs)
	out[idx] = r
	return out
}
