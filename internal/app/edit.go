package app

import (
	"fmt"

	"github.com/evanschultz/jobgrid/internal/domain"
)

// TargetKind says which write-back path an edit uses.
type TargetKind int

// TargetRecord and related constants define the edit targets.
const (
	TargetRecord TargetKind = iota
	TargetGrid
)

// EditTarget addresses either a record field or a grid-override cell.
type EditTarget struct {
	Kind     TargetKind
	RecordID int64
	Field    domain.Field
	Row      int
	Col      int
}

// RecordTarget addresses a record field.
func RecordTarget(id int64, field domain.Field) EditTarget {
	return EditTarget{Kind: TargetRecord, RecordID: id, Field: field}
}

// GridTarget addresses a grid-override cell.
func GridTarget(row, col int) EditTarget {
	return EditTarget{Kind: TargetGrid, Row: row, Col: col}
}

// Editable reports whether the target may enter editing.
func (t EditTarget) Editable() bool {
	if t.Kind == TargetRecord {
		return t.Field != domain.FieldID
	}
	return t.Row >= 0 && t.Col >= 0
}

func (t EditTarget) String() string {
	if t.Kind == TargetGrid {
		return CellKey{Row: t.Row, Col: t.Col}.String()
	}
	return fmt.Sprintf("%d:%s", t.RecordID, t.Field)
}

// Commit is the write-back produced when an edit session resolves.
type Commit struct {
	Target EditTarget
	Value  string
}

// EditState is the single grid-wide edit session: Viewing, or Editing a target.
type EditState struct {
	editing bool
	target  EditTarget
	value   string
}

// Editing reports whether a session is open.
func (s EditState) Editing() bool {
	return s.editing
}

// Target returns the open session target.
func (s EditState) Target() EditTarget {
	return s.target
}

// Value returns the provisional value.
func (s EditState) Value() string {
	return s.value
}

// IsEditing reports whether target is the open session.
func (s EditState) IsEditing(target EditTarget) bool {
	return s.editing && s.target == target
}

// Begin opens a session on target seeded with current. An open session on a
// different target is committed first and returned. Non-editable targets leave
// the state unchanged.
func (s EditState) Begin(target EditTarget, current string) (EditState, []Commit) {
	if !target.Editable() {
		return s, nil
	}
	if s.IsEditing(target) {
		return s, nil
	}
	var flushed []Commit
	if s.editing {
		var c Commit
		s, c, _ = s.Commit()
		flushed = append(flushed, c)
	}
	return EditState{editing: true, target: target, value: current}, flushed
}

// SetValue replaces the provisional value.
func (s EditState) SetValue(v string) EditState {
	if !s.editing {
		return s
	}
	s.value = v
	return s
}

// Commit closes the session and returns its write-back.
func (s EditState) Commit() (EditState, Commit, bool) {
	if !s.editing {
		return s, Commit{}, false
	}
	return EditState{}, Commit{Target: s.target, Value: s.value}, true
}

// Cancel discards the session.
func (s EditState) Cancel() EditState {
	return EditState{}
}
