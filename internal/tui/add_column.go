package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/jobgrid/internal/app"
	"github.com/evanschultz/jobgrid/internal/domain"
)

// add-column form field indexes in focus order.
const (
	addFieldGroup = iota
	addFieldNewGroup
	addFieldName
	addFieldType
	addFieldIcon
	addFieldCount
)

// addColumnForm collects a target group and one or more column specs.
type addColumnForm struct {
	groups   []domain.ColumnGroup
	groupIdx int
	newGroup textinput.Model
	name     textinput.Model
	typeIdx  int
	iconIdx  int
	pending  []app.NewColumnInput
	focus    int
}

func newAddColumnForm(groups []domain.ColumnGroup) addColumnForm {
	return addColumnForm{
		groups:   groups,
		newGroup: newModalInput("", "new group name", "", 60),
		name:     newModalInput("", "column name", "", 60),
		focus:    addFieldName,
	}
}

// creatingGroup reports whether the new-group entry is chosen.
func (f addColumnForm) creatingGroup() bool {
	return f.groupIdx >= len(f.groups)
}

func (f addColumnForm) groupLabel() string {
	if f.creatingGroup() {
		return "+ new group"
	}
	return f.groups[f.groupIdx].Name
}

// icon returns the chosen icon; index 0 is no icon.
func (f addColumnForm) icon() domain.Icon {
	if f.iconIdx <= 0 || f.iconIdx > len(domain.Icons) {
		return ""
	}
	return domain.Icons[f.iconIdx-1]
}

func (f addColumnForm) current() app.NewColumnInput {
	return app.NewColumnInput{
		Name: strings.TrimSpace(f.name.Value()),
		Type: domain.ColumnTypes[f.typeIdx],
		Icon: f.icon(),
	}
}

// input builds the request. Blank names suppress submission.
func (f addColumnForm) input() (app.AddColumnsInput, bool) {
	cols := slices.Clone(f.pending)
	if strings.TrimSpace(f.name.Value()) != "" {
		cols = append(cols, f.current())
	}
	if len(cols) == 0 {
		return app.AddColumnsInput{}, false
	}
	in := app.AddColumnsInput{Columns: cols}
	if f.creatingGroup() {
		name := strings.TrimSpace(f.newGroup.Value())
		if name == "" {
			return app.AddColumnsInput{}, false
		}
		in.NewGroupName = name
		return in, true
	}
	in.GroupID = f.groups[f.groupIdx].ID
	return in, true
}

// stash moves the current column draft into the pending list.
func (f *addColumnForm) stash() bool {
	if strings.TrimSpace(f.name.Value()) == "" {
		return false
	}
	f.pending = append(f.pending, f.current())
	f.name.SetValue("")
	return true
}

func (f *addColumnForm) cycle(delta int) {
	switch f.focus {
	case addFieldGroup:
		f.groupIdx = wrapIndex(f.groupIdx, delta, len(f.groups)+1)
	case addFieldType:
		f.typeIdx = wrapIndex(f.typeIdx, delta, len(domain.ColumnTypes))
	case addFieldIcon:
		f.iconIdx = wrapIndex(f.iconIdx, delta, len(domain.Icons)+1)
	}
}

// setFocus moves focus between fields, skipping the new-group name unless it applies.
func (f *addColumnForm) setFocus(delta int) tea.Cmd {
	next := wrapIndex(f.focus, delta, addFieldCount)
	if next == addFieldNewGroup && !f.creatingGroup() {
		next = wrapIndex(next, delta, addFieldCount)
	}
	f.focus = next
	f.newGroup.Blur()
	f.name.Blur()
	switch f.focus {
	case addFieldNewGroup:
		return f.newGroup.Focus()
	case addFieldName:
		return f.name.Focus()
	}
	return nil
}

// wrapIndex wraps index movement within bounds.
func wrapIndex(current, delta, total int) int {
	if total <= 0 {
		return 0
	}
	return ((current+delta)%total + total) % total
}

// startAddColumn opens the add-column modal.
func (m *Model) startAddColumn() tea.Cmd {
	cmd := m.commitEdit()
	m.addForm = newAddColumnForm(m.layout.AllGroups())
	m.mode = modeAddColumn
	m.status = "add column"
	return tea.Batch(cmd, m.addForm.name.Focus())
}

func (m Model) handleAddColumnKey(msg tea.KeyPressMsg) (Model, tea.Cmd) {
	f := &m.addForm
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.status = "add column cancelled"
		return m, nil
	case "tab", "down":
		return m, f.setFocus(1)
	case "shift+tab", "up":
		return m, f.setFocus(-1)
	case "ctrl+n":
		if f.stash() {
			m.status = fmt.Sprintf("%d columns queued", len(f.pending))
		}
		return m, nil
	case "enter":
		in, ok := f.input()
		if !ok {
			return m, nil
		}
		m.mode = modeNone
		m.status = "adding columns..."
		return m, m.addColumns(in)
	}

	switch f.focus {
	case addFieldGroup, addFieldType, addFieldIcon:
		switch msg.String() {
		case "left", "h":
			f.cycle(-1)
		case "right", "l", "space":
			f.cycle(1)
		}
		return m, nil
	case addFieldNewGroup:
		var cmd tea.Cmd
		f.newGroup, cmd = f.newGroup.Update(msg)
		return m, cmd
	default:
		var cmd tea.Cmd
		f.name, cmd = f.name.Update(msg)
		return m, cmd
	}
}

func (m Model) addColumns(in app.AddColumnsInput) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		result, err := svc.AddColumns(context.Background(), in)
		if err != nil {
			return actionMsg{err: fmt.Errorf("add columns: %w", err)}
		}
		status := fmt.Sprintf("added %d columns to %s", len(result.Columns), result.Group.Name)
		if result.GroupCreated {
			status += " (new group)"
		}
		focus := ""
		if len(result.Columns) > 0 {
			focus = result.Columns[0].ID
		}
		return actionMsg{status: status, reload: true, focusColumn: focus}
	}
}

// renderAddColumnModal renders the add-column form.
func (m Model) renderAddColumnModal(accent, muted string) string {
	f := m.addForm
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(muted))
	focusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(accent))

	row := func(field int, label, value string) string {
		prefix := "  "
		if f.focus == field {
			prefix = focusStyle.Render("› ")
		}
		return prefix + fmt.Sprintf("%-10s", label) + value
	}
	icon := "(none)"
	if f.icon() != "" {
		icon = iconGlyph(f.icon()) + " " + string(f.icon())
	}
	lines := []string{
		titleStyle.Render("Add Column"),
		row(addFieldGroup, "group", "‹ "+f.groupLabel()+" ›"),
	}
	if f.creatingGroup() {
		lines = append(lines, row(addFieldNewGroup, "new group", f.newGroup.View()))
	}
	lines = append(lines,
		row(addFieldName, "name", f.name.View()),
		row(addFieldType, "type", "‹ "+string(domain.ColumnTypes[f.typeIdx])+" ›"),
		row(addFieldIcon, "icon", "‹ "+icon+" ›"),
	)
	if len(f.pending) > 0 {
		names := make([]string, 0, len(f.pending))
		for _, c := range f.pending {
			names = append(names, c.Name)
		}
		lines = append(lines, hintStyle.Render("queued: "+strings.Join(names, ", ")))
	}
	lines = append(lines, "", hintStyle.Render("tab next • ←/→ choose • ctrl+n queue another • enter add • esc cancel"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(accent)).
		Padding(0, 1).
		Width(clamp(m.width-8, 40, 72)).
		Render(strings.Join(lines, "\n"))
}
