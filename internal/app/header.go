package app

import "strings"

// HeaderEditor is the per-header rename toggle, independent of cell editing.
type HeaderEditor struct {
	renaming bool
	original string
	draft    string
}

// Renaming reports whether the header is in rename mode.
func (h HeaderEditor) Renaming() bool {
	return h.renaming
}

// Draft returns the in-progress name.
func (h HeaderEditor) Draft() string {
	return h.draft
}

// Begin enters rename mode seeded with current.
func (h HeaderEditor) Begin(current string) HeaderEditor {
	return HeaderEditor{renaming: true, original: current, draft: current}
}

// SetDraft replaces the in-progress name.
func (h HeaderEditor) SetDraft(v string) HeaderEditor {
	if h.renaming {
		h.draft = v
	}
	return h
}

// Commit leaves rename mode. It reports a rename only for a non-blank
// trimmed draft that differs from current.
func (h HeaderEditor) Commit(current string) (HeaderEditor, string, bool) {
	if !h.renaming {
		return h, current, false
	}
	name := strings.TrimSpace(h.draft)
	if name == "" || name == current {
		return HeaderEditor{}, current, false
	}
	return HeaderEditor{}, name, true
}

// Cancel leaves rename mode and returns the original name.
func (h HeaderEditor) Cancel() (HeaderEditor, string) {
	return HeaderEditor{}, h.original
}
