package app

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// RetainEmptyFromCol is the first column index whose cleared cells are kept as
// explicit empty entries instead of being deleted.
const RetainEmptyFromCol = 11

// CellKey addresses a grid-override cell by zero-based row and column index.
type CellKey struct {
	Row int
	Col int
}

func (k CellKey) String() string {
	return fmt.Sprintf("%d-%d", k.Row, k.Col)
}

// ParseCellKey parses the "row-col" form.
func ParseCellKey(raw string) (CellKey, error) {
	rowRaw, colRaw, ok := strings.Cut(strings.TrimSpace(raw), "-")
	if !ok {
		return CellKey{}, fmt.Errorf("%w: %q", ErrInvalidCell, raw)
	}
	row, err := strconv.Atoi(rowRaw)
	if err != nil || row < 0 {
		return CellKey{}, fmt.Errorf("%w: %q", ErrInvalidCell, raw)
	}
	col, err := strconv.Atoi(colRaw)
	if err != nil || col < 0 {
		return CellKey{}, fmt.Errorf("%w: %q", ErrInvalidCell, raw)
	}
	return CellKey{Row: row, Col: col}, nil
}

// GridCells is the sparse override map for cells not backed by a record field.
type GridCells map[CellKey]string

// Get returns the value at (row, col), or "" if absent.
func (g GridCells) Get(row, col int) string {
	return g[CellKey{Row: row, Col: col}]
}

// Has reports whether an entry exists, including retained empty entries.
func (g GridCells) Has(row, col int) bool {
	_, ok := g[CellKey{Row: row, Col: col}]
	return ok
}

// With returns a copy with (row, col) set to value. Clearing a cell deletes it
// unless the column retains empties.
func (g GridCells) With(row, col int, value string) GridCells {
	out := maps.Clone(g)
	if out == nil {
		out = GridCells{}
	}
	key := CellKey{Row: row, Col: col}
	if value == "" && !RetainsEmpty(col) {
		delete(out, key)
		return out
	}
	out[key] = value
	return out
}

// RetainsEmpty reports whether a cleared cell in col stays as an explicit entry.
func RetainsEmpty(col int) bool {
	return col >= RetainEmptyFromCol
}

// Strings converts to the "row-col" keyed form used in snapshots.
func (g GridCells) Strings() map[string]string {
	out := make(map[string]string, len(g))
	for k, v := range g {
		out[k.String()] = v
	}
	return out
}

// GridCellsFromStrings parses the "row-col" keyed form.
func GridCellsFromStrings(in map[string]string) (GridCells, error) {
	out := make(GridCells, len(in))
	for raw, v := range in {
		key, err := ParseCellKey(raw)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}
