package app

// ColumnSizes tracks live column widths within each column's bounds.
type ColumnSizes struct {
	widths map[string]int
	bounds map[string][2]int
}

// NewColumnSizes seeds widths from the column defaults.
func NewColumnSizes(cols []Column) ColumnSizes {
	s := ColumnSizes{widths: map[string]int{}, bounds: map[string][2]int{}}
	s.Sync(cols)
	return s
}

// Sync registers columns that are new since the last call and keeps existing widths.
func (s *ColumnSizes) Sync(cols []Column) {
	if s.widths == nil {
		s.widths = map[string]int{}
	}
	if s.bounds == nil {
		s.bounds = map[string][2]int{}
	}
	for _, c := range cols {
		s.bounds[c.ID] = [2]int{c.MinWidth, c.MaxWidth}
		if _, ok := s.widths[c.ID]; !ok {
			s.widths[c.ID] = c.Width
		}
	}
}

// Width returns the current width of id, or 0 for an unknown column.
func (s ColumnSizes) Width(id string) int {
	return s.widths[id]
}

// Resize adjusts the width of id by delta and returns the clamped result.
func (s ColumnSizes) Resize(id string, delta int) int {
	current, ok := s.widths[id]
	if !ok {
		return 0
	}
	b := s.bounds[id]
	next := current + delta
	if next < b[0] {
		next = b[0]
	}
	if b[1] > 0 && next > b[1] {
		next = b[1]
	}
	s.widths[id] = next
	return next
}

// Snapshot copies the width map.
func (s ColumnSizes) Snapshot() map[string]int {
	out := make(map[string]int, len(s.widths))
	for k, v := range s.widths {
		out[k] = v
	}
	return out
}
