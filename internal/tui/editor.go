package tui

import (
	"context"
	"fmt"
	"slices"

	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/jobgrid/internal/app"
	"github.com/evanschultz/jobgrid/internal/domain"
)

// choiceOptions lists the values offered by a status or priority editor. Grid
// cells lead with an empty option so a cell can be cleared.
func choiceOptions(kind app.CellKind, grid bool) []string {
	var out []string
	if grid {
		out = append(out, "")
	}
	switch kind {
	case app.KindStatus:
		for _, s := range domain.Statuses {
			out = append(out, string(s))
		}
	case app.KindPriority:
		for _, p := range domain.Priorities {
			out = append(out, string(p))
		}
	default:
		return nil
	}
	return out
}

// choiceLabel renders one option; the empty option carries a prompt.
func choiceLabel(kind app.CellKind, value string) string {
	if value != "" {
		return value
	}
	if kind == app.KindPriority {
		return "Select priority..."
	}
	return "Select status..."
}

func editorPlaceholder(kind app.CellKind) string {
	switch kind {
	case app.KindDate:
		return "yyyy-mm-dd"
	case app.KindNumber:
		return "0"
	default:
		return ""
	}
}

// beginCurrentEdit opens an edit session on the focused cell.
func (m *Model) beginCurrentEdit() tea.Cmd {
	col, target, ok := m.currentCell()
	if !ok || len(m.visibleRecords()) == 0 {
		return nil
	}
	return m.beginEdit(target, col.Kind)
}

// beginEdit opens a session on target. An open session elsewhere is committed
// first, so no session is ever dropped.
func (m *Model) beginEdit(target app.EditTarget, kind app.CellKind) tea.Cmd {
	if m.edit.Editing() {
		m.syncEditValue()
	}
	var flushed []app.Commit
	m.edit, flushed = m.edit.Begin(target, m.cellValue(target))
	cmds := m.writeBackAll(flushed)
	if !m.edit.IsEditing(target) {
		m.mode = modeNone
		m.choices = nil
		if target.Kind == app.TargetRecord && target.Field == domain.FieldID {
			m.status = "id cannot be edited"
		}
		return tea.Batch(cmds...)
	}

	m.mode = modeEditCell
	m.choices = choiceOptions(kind, target.Kind == app.TargetGrid)
	if m.choices != nil {
		m.choiceIdx = max(0, slices.Index(m.choices, m.edit.Value()))
		m.status = "choose with ↑/↓ • enter save • esc cancel"
		return tea.Batch(cmds...)
	}
	m.cellInput = newModalInput("", editorPlaceholder(kind), m.edit.Value(), 512)
	m.cellInput.CursorEnd()
	m.status = "enter save • esc cancel"
	cmds = append(cmds, m.cellInput.Focus())
	return tea.Batch(cmds...)
}

// syncEditValue copies the widget value into the edit session.
func (m *Model) syncEditValue() {
	if m.choices != nil {
		m.edit = m.edit.SetValue(m.choices[clamp(m.choiceIdx, 0, len(m.choices)-1)])
		return
	}
	m.edit = m.edit.SetValue(m.cellInput.Value())
}

// commitEdit closes the open session, if any, and writes it back.
func (m *Model) commitEdit() tea.Cmd {
	if !m.edit.Editing() {
		return nil
	}
	m.syncEditValue()
	var (
		c  app.Commit
		ok bool
	)
	m.edit, c, ok = m.edit.Commit()
	m.mode = modeNone
	m.choices = nil
	m.cellInput.Blur()
	if !ok {
		return nil
	}
	return m.writeBack(c)
}

func (m *Model) cancelEdit() {
	m.edit = m.edit.Cancel()
	m.mode = modeNone
	m.choices = nil
	m.cellInput.Blur()
	m.status = "edit cancelled"
}

func (m *Model) writeBackAll(commits []app.Commit) []tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(commits))
	for _, c := range commits {
		cmds = append(cmds, m.writeBack(c))
	}
	return cmds
}

// writeBack applies a commit locally and persists it. Record edits reach the
// update callback once the save succeeds. Unchanged values are written like any other.
func (m *Model) writeBack(c app.Commit) tea.Cmd {
	svc := m.svc
	t := c.Target
	if t.Kind == app.TargetGrid {
		m.layout.Cells = m.layout.Cells.With(t.Row, t.Col, c.Value)
		ref := app.ColumnLetter(t.Col) + fmt.Sprint(t.Row+1)
		return func() tea.Msg {
			if err := svc.SetGridCell(context.Background(), t.Row, t.Col, c.Value); err != nil {
				return actionMsg{err: fmt.Errorf("save %s: %w", ref, err), reload: true}
			}
			return actionMsg{status: "saved " + ref}
		}
	}

	m.records, _ = m.records.UpdateField(t.RecordID, t.Field, c.Value)
	return func() tea.Msg {
		record, err := svc.UpdateRecordField(context.Background(), t.RecordID, t.Field, c.Value)
		if err != nil {
			return actionMsg{err: fmt.Errorf("update #%d %s: %w", t.RecordID, t.Field, err), reload: true}
		}
		return actionMsg{
			status: fmt.Sprintf("updated #%d %s", t.RecordID, t.Field),
			record: &record,
			field:  t.Field,
			value:  c.Value,
		}
	}
}

// handleEditKey routes keys while a cell editor is open. Moving away commits.
func (m Model) handleEditKey(msg tea.KeyPressMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.cancelEdit()
		return m, nil
	case "enter":
		return m, m.commitEdit()
	case "tab":
		cmd := m.commitEdit()
		m.moveCursor(0, 1)
		return m, cmd
	case "shift+tab":
		cmd := m.commitEdit()
		m.moveCursor(0, -1)
		return m, cmd
	}

	if m.choices != nil {
		switch msg.String() {
		case "up", "k":
			m.choiceIdx = (m.choiceIdx - 1 + len(m.choices)) % len(m.choices)
		case "down", "j":
			m.choiceIdx = (m.choiceIdx + 1) % len(m.choices)
		case "left", "right":
			cmd := m.commitEdit()
			if msg.String() == "left" {
				m.moveCursor(0, -1)
			} else {
				m.moveCursor(0, 1)
			}
			return m, cmd
		}
		m.syncEditValue()
		return m, nil
	}

	switch msg.String() {
	case "up", "down":
		cmd := m.commitEdit()
		if msg.String() == "up" {
			m.moveCursor(-1, 0)
		} else {
			m.moveCursor(1, 0)
		}
		return m, cmd
	}
	var cmd tea.Cmd
	m.cellInput, cmd = m.cellInput.Update(msg)
	m.edit = m.edit.SetValue(m.cellInput.Value())
	return m, cmd
}

// startRenameColumn opens the header editor on the focused column.
func (m *Model) startRenameColumn() tea.Cmd {
	col, _, ok := m.currentCell()
	if !ok {
		return nil
	}
	return m.startHeaderRename(modeRenameColumn, col.ID, col.Title)
}

// startRenameGroup opens the header editor on the focused column's group band.
func (m *Model) startRenameGroup() tea.Cmd {
	col, _, ok := m.currentCell()
	if !ok {
		return nil
	}
	layout := m.layout.Layout()
	group, ok := layout.Group(layout.GroupOf(col.ID))
	if !ok {
		m.status = col.Title + " is not in a group"
		return nil
	}
	return m.startHeaderRename(modeRenameGroup, group.ID, group.Name)
}

func (m *Model) startHeaderRename(mode inputMode, id, current string) tea.Cmd {
	cmd := m.commitEdit()
	m.mode = mode
	m.headerTarget = id
	m.header = m.header.Begin(current)
	m.headerInput = newModalInput("", "name", current, 80)
	m.headerInput.CursorEnd()
	m.status = "rename: enter save • esc cancel"
	return tea.Batch(cmd, m.headerInput.Focus())
}

// headerName returns the current name of the header being renamed.
func (m Model) headerName() string {
	if m.mode == modeRenameGroup {
		if g, ok := m.layout.Layout().Group(m.headerTarget); ok {
			return g.Name
		}
		return ""
	}
	cols := m.layout.Columns()
	if idx := app.ColumnIndex(cols, m.headerTarget); idx >= 0 {
		return cols[idx].Title
	}
	return ""
}

func (m Model) handleHeaderKey(msg tea.KeyPressMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.header, _ = m.header.Cancel()
		m.headerInput.Blur()
		m.mode = modeNone
		m.status = "rename cancelled"
		return m, nil
	case "enter":
		return m, m.commitHeader()
	}
	var cmd tea.Cmd
	m.headerInput, cmd = m.headerInput.Update(msg)
	m.header = m.header.SetDraft(m.headerInput.Value())
	return m, cmd
}

// commitHeader leaves rename mode and persists a changed, non-blank name.
func (m *Model) commitHeader() tea.Cmd {
	m.header = m.header.SetDraft(m.headerInput.Value())
	current := m.headerName()
	mode := m.mode
	id := m.headerTarget
	var (
		name    string
		changed bool
	)
	m.header, name, changed = m.header.Commit(current)
	m.headerInput.Blur()
	m.mode = modeNone
	if !changed {
		m.status = "ready"
		return nil
	}

	svc := m.svc
	if mode == modeRenameGroup {
		m.renameGroupLocal(id, name)
		return func() tea.Msg {
			if err := svc.RenameGroup(context.Background(), id, name); err != nil {
				return actionMsg{err: fmt.Errorf("rename group: %w", err), reload: true}
			}
			return actionMsg{status: "group renamed to " + name}
		}
	}
	m.renameColumnLocal(id, name)
	return func() tea.Msg {
		if err := svc.RenameColumn(context.Background(), id, name); err != nil {
			return actionMsg{err: fmt.Errorf("rename column: %w", err), reload: true}
		}
		return actionMsg{status: "column renamed to " + name}
	}
}

func (m *Model) renameGroupLocal(id, name string) {
	if len(m.layout.Defaults) == 0 {
		m.layout.Defaults = domain.DefaultGroups()
	}
	m.layout.Defaults = slices.Clone(m.layout.Defaults)
	m.layout.Groups = slices.Clone(m.layout.Groups)
	for i := range m.layout.Defaults {
		if m.layout.Defaults[i].ID == id {
			m.layout.Defaults[i].Name = name
			return
		}
	}
	for i := range m.layout.Groups {
		if m.layout.Groups[i].ID == id {
			m.layout.Groups[i].Name = name
			return
		}
	}
}

func (m *Model) renameColumnLocal(id, name string) {
	m.layout.Custom = slices.Clone(m.layout.Custom)
	for i := range m.layout.Custom {
		if m.layout.Custom[i].ID == id {
			m.layout.Custom[i].Name = name
			return
		}
	}
	titles := make(map[string]string, len(m.layout.Titles)+1)
	for k, v := range m.layout.Titles {
		titles[k] = v
	}
	titles[id] = name
	m.layout.Titles = titles
}

// moveColumnToNextGroup reassigns the focused custom column to the next known group.
func (m *Model) moveColumnToNextGroup() tea.Cmd {
	col, _, ok := m.currentCell()
	if !ok {
		return nil
	}
	custom, ok := m.layout.CustomColumn(col.ID)
	if !ok {
		m.status = "only added columns can change group"
		return nil
	}
	groups := m.layout.AllGroups()
	idx := slices.IndexFunc(groups, func(g domain.ColumnGroup) bool { return g.ID == custom.GroupID })
	next := groups[(idx+1)%len(groups)]

	m.layout.Custom = slices.Clone(m.layout.Custom)
	for i := range m.layout.Custom {
		if m.layout.Custom[i].ID == col.ID {
			m.layout.Custom[i].GroupID = next.ID
		}
	}
	m.focusColumn(col.ID)
	m.ensureVisible()

	svc := m.svc
	return func() tea.Msg {
		if _, err := svc.MoveColumn(context.Background(), col.ID, next.ID); err != nil {
			return actionMsg{err: fmt.Errorf("move column: %w", err), reload: true}
		}
		return actionMsg{status: fmt.Sprintf("%s moved to %s", col.Title, next.Name)}
	}
}
