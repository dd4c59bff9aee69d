package app

import (
	"slices"
	"strings"

	"github.com/evanschultz/jobgrid/internal/domain"
)

// SortDirection is the order applied to the sorted field.
type SortDirection int

// SortNone and related constants define the sort cycle.
const (
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

// SortState is the active header sort.
type SortState struct {
	Field     domain.Field
	Direction SortDirection
}

// Toggle advances the sort for field: none, asc, desc, then none again.
// Switching to a different field starts ascending.
func (s SortState) Toggle(field domain.Field) SortState {
	if s.Field != field || s.Direction == SortNone {
		return SortState{Field: field, Direction: SortAsc}
	}
	if s.Direction == SortAsc {
		return SortState{Field: field, Direction: SortDesc}
	}
	return SortState{}
}

// Arrow renders the header indicator for field.
func (s SortState) Arrow(field domain.Field) string {
	if s.Field != field {
		return ""
	}
	switch s.Direction {
	case SortAsc:
		return "↑"
	case SortDesc:
		return "↓"
	default:
		return ""
	}
}

// SortRecords returns a stably sorted copy.
func SortRecords(records []domain.Record, state SortState) []domain.Record {
	out := slices.Clone(records)
	if state.Direction == SortNone || state.Field == "" {
		return out
	}
	slices.SortStableFunc(out, func(a, b domain.Record) int {
		c := compareField(a, b, state.Field)
		if state.Direction == SortDesc {
			return -c
		}
		return c
	})
	return out
}

func compareField(a, b domain.Record, field domain.Field) int {
	if field == domain.FieldID {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(strings.ToLower(a.Value(field)), strings.ToLower(b.Value(field)))
}
