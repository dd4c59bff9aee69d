package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ColumnType fixes the cell kind of a custom column at creation.
type ColumnType string

// ColumnTypeText and related constants define the supported custom column types.
const (
	ColumnTypeText     ColumnType = "text"
	ColumnTypeStatus   ColumnType = "status"
	ColumnTypePriority ColumnType = "priority"
	ColumnTypeDate     ColumnType = "date"
	ColumnTypeNumber   ColumnType = "number"
)

// ColumnTypes lists custom column types in picker order.
var ColumnTypes = []ColumnType{ColumnTypeText, ColumnTypeStatus, ColumnTypePriority, ColumnTypeDate, ColumnTypeNumber}

// ParseColumnType resolves a column type; empty input means text.
func ParseColumnType(raw string) (ColumnType, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ColumnTypeText, nil
	}
	for _, t := range ColumnTypes {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", ErrInvalidColumnType
}

// Icon tags a column header.
type Icon string

// Icons is the fixed catalogue offered for custom columns.
var Icons = []Icon{
	"briefcase", "calendar", "user", "mail", "phone",
	"home", "star", "heart", "settings", "search",
	"edit", "file", "folder", "image", "tag",
	"link", "clock", "alert-triangle", "dollar-sign", "map-pin",
}

// ParseIcon resolves an icon name; empty input means no icon.
func ParseIcon(raw string) (Icon, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return "", nil
	}
	for _, icon := range Icons {
		if string(icon) == raw {
			return icon, nil
		}
	}
	return "", ErrInvalidIcon
}

// Group ids of the four built-in groups.
const (
	GroupQ3Financial    = "q3-financial"
	GroupExtra          = "extra"
	GroupAnswerQuestion = "answer-question"
	GroupExtract        = "extract"
)

// FallbackGroupColor colours a group referenced by id but never declared.
const FallbackGroupColor = "#F0F0F0"

// GroupPalette is cycled through when new groups are created.
var GroupPalette = []string{"#FFE5E5", "#E5F3FF", "#E5FFE5", "#FFF5E5", "#F0E5FF", "#E5FFF5"}

// ColumnGroup is a named, coloured band spanning one or more columns.
type ColumnGroup struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Default bool   `json:"default,omitempty"`
}

// DefaultGroups returns the built-in groups in declaration order.
func DefaultGroups() []ColumnGroup {
	return []ColumnGroup{
		{ID: GroupQ3Financial, Name: "Q3 Financial Overview", Color: "#e3e3e3", Default: true},
		{ID: GroupExtra, Name: "ABC", Color: "#D2E0D4", Default: true},
		{ID: GroupAnswerQuestion, Name: "Answer a question", Color: "#DCCFFC", Default: true},
		{ID: GroupExtract, Name: "Extract", Color: "#FAC2AF", Default: true},
	}
}

// IsDefaultGroup reports whether id names a built-in group.
func IsDefaultGroup(id string) bool {
	for _, g := range DefaultGroups() {
		if g.ID == id {
			return true
		}
	}
	return false
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// GroupSlug derives a group id from a display name.
func GroupSlug(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// PaletteColor picks the palette entry for the given number of existing groups.
func PaletteColor(existing int) string {
	if existing < 0 {
		existing = 0
	}
	return GroupPalette[existing%len(GroupPalette)]
}

// NewColumnGroup builds a custom group named name; existing is the current group count.
func NewColumnGroup(name string, existing int) (ColumnGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ColumnGroup{}, ErrInvalidName
	}
	return ColumnGroup{
		ID:    GroupSlug(name),
		Name:  name,
		Color: PaletteColor(existing),
	}, nil
}

// Rename changes the display name.
func (g *ColumnGroup) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	g.Name = name
	return nil
}

// CustomColumn is a user-added column whose cells live in the grid override map.
type CustomColumn struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	GroupID string     `json:"group_id"`
	Type    ColumnType `json:"type"`
	Icon    Icon       `json:"icon,omitempty"`
}

// CustomColumnID formats the id for the n-th custom column.
func CustomColumnID(n int) string {
	return fmt.Sprintf("custom-%d", n)
}

// CustomColumnNumber extracts n from a custom-n id.
func CustomColumnNumber(id string) (int, bool) {
	raw, ok := strings.CutPrefix(id, "custom-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NewCustomColumn constructs a custom column; an empty group defaults to the extra group.
func NewCustomColumn(id, name, groupID string, typ ColumnType, icon Icon) (CustomColumn, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	groupID = strings.TrimSpace(groupID)
	if id == "" {
		return CustomColumn{}, ErrInvalidID
	}
	if name == "" {
		return CustomColumn{}, ErrInvalidName
	}
	if groupID == "" {
		groupID = GroupExtra
	}
	if typ == "" {
		typ = ColumnTypeText
	}
	if _, err := ParseColumnType(string(typ)); err != nil {
		return CustomColumn{}, err
	}
	if _, err := ParseIcon(string(icon)); err != nil {
		return CustomColumn{}, err
	}
	return CustomColumn{
		ID:      id,
		Name:    name,
		GroupID: groupID,
		Type:    typ,
		Icon:    icon,
	}, nil
}

// Rename changes the column header.
func (c *CustomColumn) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	c.Name = name
	return nil
}

// MoveTo reassigns the column to another group.
func (c *CustomColumn) MoveTo(groupID string) error {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return ErrInvalidGroupID
	}
	c.GroupID = groupID
	return nil
}
