package app

import (
	"slices"

	"github.com/evanschultz/jobgrid/internal/domain"
)

// CellKind selects the editor widget for a cell.
type CellKind int

// KindText and related constants define the cell editors.
const (
	KindText CellKind = iota
	KindStatus
	KindPriority
	KindDate
	KindNumber
)

// KindForType maps a custom column type to its cell kind.
func KindForType(t domain.ColumnType) CellKind {
	switch t {
	case domain.ColumnTypeStatus:
		return KindStatus
	case domain.ColumnTypePriority:
		return KindPriority
	case domain.ColumnTypeDate:
		return KindDate
	case domain.ColumnTypeNumber:
		return KindNumber
	default:
		return KindText
	}
}

// Column widths in pixels.
const (
	CustomColumnWidth    = 128
	CustomColumnMinWidth = 128
	CustomColumnMaxWidth = 250
	AddColumnWidth       = 50
)

// Column describes one rendered grid column.
type Column struct {
	ID       string
	Title    string
	Icon     domain.Icon
	Field    domain.Field
	Kind     CellKind
	Suffix   string
	Width    int
	MinWidth int
	MaxWidth int
	Custom   bool
}

// BaseColumns returns the fixed record columns in canonical order.
func BaseColumns() []Column {
	return []Column{
		{ID: "jobRequest", Title: "Job Request", Icon: "briefcase", Field: domain.FieldJobRequest, Width: 280, MinWidth: 128, MaxWidth: 500},
		{ID: "submitted", Title: "Submitted", Icon: "calendar", Field: domain.FieldSubmitted, Kind: KindDate, Width: 128, MinWidth: 128, MaxWidth: 200},
		{ID: "status", Title: "Status", Icon: "circle-dot", Field: domain.FieldStatus, Kind: KindStatus, Width: 128, MinWidth: 128, MaxWidth: 180},
		{ID: "submitter", Title: "Submitter", Icon: "user", Field: domain.FieldSubmitter, Width: 128, MinWidth: 128, MaxWidth: 200},
		{ID: "url", Title: "URL", Icon: "link", Field: domain.FieldURL, Width: 140, MinWidth: 128, MaxWidth: 300},
		{ID: "assigned", Title: "Assigned", Icon: "user-check", Field: domain.FieldAssigned, Width: 128, MinWidth: 128, MaxWidth: 200},
		{ID: "priority", Title: "Priority", Icon: "alert-triangle", Field: domain.FieldPriority, Kind: KindPriority, Width: 128, MinWidth: 128, MaxWidth: 150},
		{ID: "dueDate", Title: "Due Date", Icon: "clock", Field: domain.FieldDueDate, Kind: KindDate, Width: 128, MinWidth: 128, MaxWidth: 180},
		{ID: "estValue", Title: "Est. Value", Icon: "dollar-sign", Field: domain.FieldEstValue, Kind: KindNumber, Suffix: "₹", Width: 128, MinWidth: 128, MaxWidth: 200},
	}
}

// CustomColumnSpec converts a custom column definition into a grid column.
func CustomColumnSpec(c domain.CustomColumn) Column {
	return Column{
		ID:       c.ID,
		Title:    c.Name,
		Icon:     c.Icon,
		Kind:     KindForType(c.Type),
		Width:    CustomColumnWidth,
		MinWidth: CustomColumnMinWidth,
		MaxWidth: CustomColumnMaxWidth,
		Custom:   true,
	}
}

// Columns lists base columns then custom columns in creation order.
// A column's index in this list is its grid-cell column index.
func Columns(titles map[string]string, custom []domain.CustomColumn) []Column {
	cols := BaseColumns()
	for i := range cols {
		if title, ok := titles[cols[i].ID]; ok && title != "" {
			cols[i].Title = title
		}
	}
	for _, c := range custom {
		cols = append(cols, CustomColumnSpec(c))
	}
	return cols
}

// KindTable returns the cell kind for each column index.
func KindTable(cols []Column) []CellKind {
	out := make([]CellKind, len(cols))
	for i, c := range cols {
		out[i] = c.Kind
	}
	return out
}

// ColumnKindAt looks up a column index in the kind table; out-of-range indexes are text.
func ColumnKindAt(table []CellKind, index int) CellKind {
	if index < 0 || index >= len(table) {
		return KindText
	}
	return table[index]
}

// ColumnIndex finds the canonical index of a column id.
func ColumnIndex(cols []Column, id string) int {
	return slices.IndexFunc(cols, func(c Column) bool { return c.ID == id })
}

// ColumnLetter converts a zero-based index to spreadsheet letters: 0=A, 25=Z, 26=AA.
func ColumnLetter(index int) string {
	if index < 0 {
		return ""
	}
	var out []byte
	for index >= 0 {
		out = append([]byte{byte('A' + index%26)}, out...)
		index = index/26 - 1
	}
	return string(out)
}

// GroupLayout is the derived placement of one group band.
type GroupLayout struct {
	ID      string
	Name    string
	Color   string
	Start   int
	Count   int
	Columns []string
}

// Band is one header segment; GroupID is empty for ungrouped columns.
type Band struct {
	GroupID string
	Name    string
	Color   string
	Columns []string
}

// Layout is the group structure derived from the current columns.
type Layout struct {
	Groups   map[string]GroupLayout
	segments []segment
}

type segment struct {
	groupID string
	columns []string
}

// Group returns the layout entry for id.
func (l Layout) Group(id string) (GroupLayout, bool) {
	g, ok := l.Groups[id]
	return g, ok
}

// Bands lists header segments left to right.
func (l Layout) Bands() []Band {
	out := make([]Band, 0, len(l.segments))
	for _, seg := range l.segments {
		if seg.groupID == "" {
			out = append(out, Band{Columns: slices.Clone(seg.columns)})
			continue
		}
		g := l.Groups[seg.groupID]
		out = append(out, Band{GroupID: g.ID, Name: g.Name, Color: g.Color, Columns: slices.Clone(g.Columns)})
	}
	return out
}

// DisplayOrder flattens the bands into the left-to-right column order.
func (l Layout) DisplayOrder() []string {
	var out []string
	for _, b := range l.Bands() {
		out = append(out, b.Columns...)
	}
	return out
}

// GroupOf returns the group id a column belongs to, or "" if ungrouped.
func (l Layout) GroupOf(columnID string) string {
	for id, g := range l.Groups {
		if slices.Contains(g.Columns, columnID) {
			return id
		}
	}
	return ""
}

// noGroup is the placeholder assignment for columns that sit outside every group.
const noGroup = "none"

var defaultAssignments = []struct {
	group   string
	columns []string
}{
	{domain.GroupQ3Financial, []string{"jobRequest", "submitted", "status", "submitter"}},
	{noGroup, []string{"url"}},
	{domain.GroupExtra, []string{"assigned"}},
	{domain.GroupAnswerQuestion, []string{"priority", "dueDate"}},
	{domain.GroupExtract, []string{"estValue"}},
}

// DeriveGroups computes the group layout from the built-in groups plus custom definitions.
func DeriveGroups(customGroups []domain.ColumnGroup, customColumns []domain.CustomColumn) Layout {
	return DeriveGroupsWith(domain.DefaultGroups(), customGroups, customColumns)
}

// DeriveGroupsWith is DeriveGroups with caller-supplied built-in groups, e.g. renamed ones.
func DeriveGroupsWith(defaults, customGroups []domain.ColumnGroup, customColumns []domain.CustomColumn) Layout {
	known := append(slices.Clone(defaults), customGroups...)
	find := func(id string) (domain.ColumnGroup, bool) {
		idx := slices.IndexFunc(known, func(g domain.ColumnGroup) bool { return g.ID == id })
		if idx < 0 {
			return domain.ColumnGroup{}, false
		}
		return known[idx], true
	}

	layout := Layout{Groups: map[string]GroupLayout{}}
	start := 0
	for _, a := range defaultAssignments {
		g, ok := find(a.group)
		if !ok {
			layout.segments = append(layout.segments, segment{columns: slices.Clone(a.columns)})
			continue
		}
		layout.Groups[g.ID] = GroupLayout{
			ID:      g.ID,
			Name:    g.Name,
			Color:   g.Color,
			Start:   start,
			Count:   len(a.columns),
			Columns: slices.Clone(a.columns),
		}
		layout.segments = append(layout.segments, segment{groupID: g.ID})
		start += len(a.columns)
	}

	for _, c := range customColumns {
		groupID := c.GroupID
		if groupID == "" {
			groupID = domain.GroupExtra
		}
		entry, ok := layout.Groups[groupID]
		if !ok {
			entry = GroupLayout{ID: groupID, Name: groupID, Color: domain.FallbackGroupColor, Start: start}
			if g, found := find(groupID); found {
				entry.Name = g.Name
				entry.Color = g.Color
			}
			layout.segments = append(layout.segments, segment{groupID: groupID})
		}
		entry.Columns = append(entry.Columns, c.ID)
		entry.Count++
		layout.Groups[groupID] = entry
	}
	return layout
}

// GroupWidth sums the live widths of a group's member columns.
func GroupWidth(columns []string, sizes ColumnSizes) int {
	total := 0
	for _, id := range columns {
		total += sizes.Width(id)
	}
	return total
}
