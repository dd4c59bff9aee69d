package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/evanschultz/jobgrid/internal/app"
	"github.com/evanschultz/jobgrid/internal/domain"
)

// rowNumberWidth is the width of the leading # column, without its separator.
const rowNumberWidth = 5

const (
	accentColor = "62"
	mutedColor  = "241"
	dimColor    = "239"
	bandText    = "#1F2937"
)

// statusColors mirrors the status pill palette: background, foreground.
var statusColors = map[domain.Status][2]string{
	domain.StatusInProcess:   {"#FFF3D6", "#85640B"},
	domain.StatusNeedToStart: {"#E2E8F0", "#475569"},
	domain.StatusComplete:    {"#D3F2E3", "#0A6E3D"},
	domain.StatusBlocked:     {"#FFE1DE", "#C22219"},
}

var priorityColors = map[domain.Priority]string{
	domain.PriorityHigh:   "#DC2626",
	domain.PriorityMedium: "#CA8A04",
	domain.PriorityLow:    "#2563EB",
}

var iconGlyphs = map[domain.Icon]string{
	"briefcase":      "▣",
	"calendar":       "▦",
	"circle-dot":     "◉",
	"user":           "☺",
	"user-check":     "✓",
	"link":           "∞",
	"alert-triangle": "▲",
	"clock":          "◷",
	"dollar-sign":    "$",
	"mail":           "✉",
	"phone":          "☏",
	"home":           "⌂",
	"star":           "★",
	"heart":          "♥",
	"settings":       "⚙",
	"search":         "⌕",
	"edit":           "✎",
	"file":           "▤",
	"folder":         "▭",
	"image":          "▨",
	"tag":            "⌘",
	"map-pin":        "⌖",
}

func iconGlyph(icon domain.Icon) string {
	if g, ok := iconGlyphs[icon]; ok {
		return g
	}
	return ""
}

func statusStyle(value string) lipgloss.Style {
	colors, ok := statusColors[domain.Status(value)]
	if !ok {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(colors[0])).Foreground(lipgloss.Color(colors[1]))
}

func priorityStyle(value string) lipgloss.Style {
	c, ok := priorityColors[domain.Priority(value)]
	if !ok {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c))
}

// fitCell truncates or pads s to exactly width terminal cells.
func fitCell(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "…")
	if pad := width - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// cellWidth converts a column's pixel width into terminal cells.
func (m Model) cellWidth(id string) int {
	return max(3, m.sizes.Width(id)/max(1, m.cellWidthPx))
}

func (m Model) addSlotWidth() int {
	return max(3, app.AddColumnWidth/max(1, m.cellWidthPx))
}

// gridWidth is the space available to data columns.
func (m Model) gridWidth() int {
	width := m.width
	if width <= 0 {
		width = 120
	}
	return max(1, width-rowNumberWidth-1-m.addSlotWidth())
}

// shownColumns returns the display columns that fit from leftCol onward.
func (m Model) shownColumns(cols []gridColumn) []gridColumn {
	if m.leftCol >= len(cols) {
		return nil
	}
	avail := m.gridWidth()
	used := 0
	out := make([]gridColumn, 0, len(cols))
	for _, c := range cols[m.leftCol:] {
		w := m.cellWidth(c.ID) + 1
		if used+w > avail && len(out) > 0 {
			break
		}
		out = append(out, c)
		used += w
	}
	return out
}

// View renders the grid, or the loading, error, and empty states.
func (m Model) View() tea.View {
	v := tea.NewView(m.renderContent())
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

func (m Model) renderContent() string {
	muted := lipgloss.Color(mutedColor)
	dim := lipgloss.Color(dimColor)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusLineStyle := lipgloss.NewStyle().Foreground(dim)

	if m.loading {
		return m.centered(m.spinner.View() + " Loading data...")
	}
	if m.err != nil {
		errStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
		hint := lipgloss.NewStyle().Foreground(muted).Render("ctrl+r retry • q quit")
		return m.centered(errStyle.Render("Error loading data") + "\n" + m.err.Error() + "\n\n" + hint)
	}
	if !m.ready {
		return "loading..."
	}

	header := titleStyle.Render("jobgrid") + statusLineStyle.Render("  ["+m.modeLabel()+"]")
	if m.search != "" {
		header += statusLineStyle.Render("  search: " + m.search)
	}
	if m.sort.Direction != app.SortNone {
		header += statusLineStyle.Render("  sort: " + string(m.sort.Field) + " " + m.sort.Arrow(m.sort.Field))
	}
	if n := len(m.gridSel); n > 0 {
		header += statusLineStyle.Render(fmt.Sprintf("  selected: %d", n))
	}

	visible := m.visibleRecords()
	sections := []string{header, m.renderTabs()}
	if len(visible) == 0 {
		empty := lipgloss.NewStyle().Foreground(muted).Render("No data found") + "\n" +
			"Try adjusting your search or filters"
		sections = append(sections, "", lipgloss.PlaceHorizontal(max(1, m.width), lipgloss.Center, empty))
	} else {
		sections = append(sections, m.renderGrid(visible))
	}

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	content := strings.Join(sections, "\n")
	footer := statusLineStyle.Render(m.statusLine(visible))
	if m.mode == modeSearch {
		footer = m.searchInput.View()
	}
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)-1))
	}
	full := content + "\n" + footer + "\n" + helpLine

	overlay := ""
	switch {
	case m.help.ShowAll:
		overlay = m.renderHelpOverlay()
	case m.mode == modeAddColumn:
		overlay = m.renderAddColumnModal(accentColor, mutedColor)
	case m.mode == modeDetail:
		overlay = m.renderDetail()
	}
	if overlay != "" {
		height := lipgloss.Height(full)
		if m.height > 0 {
			height = m.height
		}
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, height))
	}
	return full
}

func (m Model) centered(s string) string {
	if m.width <= 0 || m.height <= 0 {
		return s
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}

// renderTabs renders the status tabs with counts after the search filter.
func (m Model) renderTabs() string {
	counts := app.TabCounts(m.records, m.search)
	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accentColor)).Underline(true)
	inactive := lipgloss.NewStyle().Foreground(lipgloss.Color(mutedColor))
	parts := make([]string, 0, len(app.Tabs()))
	for i, tab := range app.Tabs() {
		label := fmt.Sprintf("%d %s (%d)", i+1, tab.Label, counts[tab.ID])
		if tab.ID == m.tab {
			parts = append(parts, active.Render(label))
			continue
		}
		parts = append(parts, inactive.Render(label))
	}
	return strings.Join(parts, "  ")
}

// renderGrid renders the band row, the column header row, and the visible body rows.
func (m Model) renderGrid(visible []domain.Record) string {
	cols := m.gridColumns()
	shown := m.shownColumns(cols)
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color(dimColor)).Render("│")
	lines := []string{m.renderBandRow(shown), m.renderHeaderRow(shown, sep)}

	end := min(m.totalRows(), m.scrollRow+m.bodyHeight())
	for row := m.scrollRow; row < end; row++ {
		lines = append(lines, m.renderBodyRow(row, visible, shown, sep))
	}
	return strings.Join(lines, "\n")
}

// renderBandRow draws one coloured segment per group across its shown columns.
func (m Model) renderBandRow(shown []gridColumn) string {
	bands := m.layout.Layout().Bands()
	bandOf := map[string]int{}
	for i, b := range bands {
		for _, id := range b.Columns {
			bandOf[id] = i
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", rowNumberWidth+1))
	for i := 0; i < len(shown); {
		band := bandOf[shown[i].ID]
		width := 0
		j := i
		for ; j < len(shown) && bandOf[shown[j].ID] == band; j++ {
			width += m.cellWidth(shown[j].ID) + 1
		}
		i = j

		info := bands[band]
		if info.GroupID == "" {
			b.WriteString(strings.Repeat(" ", width))
			continue
		}
		label := " " + info.Name
		if m.mode == modeRenameGroup && m.headerTarget == info.GroupID {
			label = " " + m.headerInput.View()
		}
		style := lipgloss.NewStyle().
			Background(lipgloss.Color(info.Color)).
			Foreground(lipgloss.Color(bandText)).
			Bold(true)
		b.WriteString(style.Render(fitCell(label, width)))
	}
	return b.String()
}

func (m Model) renderHeaderRow(shown []gridColumn, sep string) string {
	base := lipgloss.NewStyle().Bold(true)
	focused := base.Foreground(lipgloss.Color(accentColor))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(mutedColor))

	var b strings.Builder
	b.WriteString(muted.Render(fitCell("#", rowNumberWidth)))
	b.WriteString(sep)
	cols := m.gridColumns()
	for _, c := range shown {
		width := m.cellWidth(c.ID)
		label := app.ColumnLetter(c.Index) + " "
		if g := iconGlyph(c.Icon); g != "" {
			label += g + " "
		}
		label += c.Title
		if arrow := m.sort.Arrow(c.Field); arrow != "" && !c.Custom {
			label += " " + arrow
		}
		if m.mode == modeRenameColumn && m.headerTarget == c.ID {
			in := m.headerInput
			in.SetWidth(max(1, width-2))
			label = in.View()
		}
		style := base
		if idx := m.cursorCol; idx >= 0 && idx < len(cols) && cols[idx].ID == c.ID {
			style = focused
		}
		b.WriteString(style.Render(fitCell(label, width)))
		b.WriteString(sep)
	}
	b.WriteString(muted.Render(fitCell("  +", m.addSlotWidth())))
	return b.String()
}

func (m Model) renderBodyRow(row int, visible []domain.Record, shown []gridColumn, sep string) string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(mutedColor))
	cols := m.gridColumns()
	cursorID := ""
	if m.cursorCol >= 0 && m.cursorCol < len(cols) {
		cursorID = cols[m.cursorCol].ID
	}

	marker := " "
	if row < len(visible) && m.gridSel.Has(visible[row].ID) {
		marker = "●"
	}
	var b strings.Builder
	b.WriteString(muted.Render(fmt.Sprintf("%s%*s", marker, rowNumberWidth-1, strconv.Itoa(row+1))))
	b.WriteString(sep)
	for _, c := range shown {
		focused := row == m.cursorRow && c.ID == cursorID
		b.WriteString(m.renderCell(row, c, visible, focused))
		b.WriteString(sep)
	}
	return b.String()
}

// renderCell renders one body cell, or the open editor when the cell is being edited.
func (m Model) renderCell(row int, col gridColumn, visible []domain.Record, focused bool) string {
	width := m.cellWidth(col.ID)
	target := m.targetAt(row, col, visible)
	if m.mode == modeEditCell && m.edit.IsEditing(target) {
		editing := lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color(accentColor))
		if m.choices != nil {
			label := "‹ " + choiceLabel(col.Kind, m.choices[clamp(m.choiceIdx, 0, len(m.choices)-1)]) + " ›"
			return editing.Render(fitCell(label, width))
		}
		in := m.cellInput
		in.SetWidth(max(1, width-1))
		return editing.Render(fitCell(in.View(), width))
	}

	value := m.cellValue(target)
	text := value
	style := lipgloss.NewStyle()
	switch col.Kind {
	case app.KindStatus:
		style = statusStyle(value)
	case app.KindPriority:
		style = priorityStyle(value)
	}
	if col.Suffix != "" && value != "" {
		text = value + " " + col.Suffix
	}
	if focused {
		style = style.Reverse(true)
	}
	return style.Render(fitCell(text, width))
}

// statusLine shows the focused cell reference and the latest status message.
func (m Model) statusLine(visible []domain.Record) string {
	col, target, ok := m.currentCell()
	if !ok {
		return m.status
	}
	line := cellRef(col, m.cursorRow) + " · " + col.Title
	if value := m.cellValue(target); value != "" {
		line += " · " + ansi.Truncate(value, 40, "…")
	}
	line += fmt.Sprintf("  |  %d of %d rows", len(visible), len(m.records))
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		line += "  |  " + m.status
	}
	return line
}

// renderHelpOverlay renders the full key reference.
func (m Model) renderHelpOverlay() string {
	width := clamp(m.width-8, 56, 100)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	accent := lipgloss.Color(accentColor)
	muted := lipgloss.Color(mutedColor)
	workflow := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Workflows"),
		"1. enter edit cell • tab/↑/↓ save and move • esc cancel",
		"2. / search all fields • 1-4 or t/T switch status tab",
		"3. s sort column • < > resize column • y copy cell",
		"4. + add columns • r rename column • R rename group • m move column to next group",
		"5. space select row • A select all shown rows • i record detail",
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("jobgrid Help"),
		"",
		hb.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(muted).Render(strings.Join(workflow, "\n")),
		lipgloss.NewStyle().Foreground(muted).Render("press ? or esc to close"),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(dimColor)).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// modeLabel returns the header label for the current mode.
func (m Model) modeLabel() string {
	switch m.mode {
	case modeEditCell:
		return "edit"
	case modeSearch:
		return "search"
	case modeRenameColumn:
		return "rename-column"
	case modeRenameGroup:
		return "rename-group"
	case modeAddColumn:
		return "add-column"
	case modeDetail:
		return "detail"
	default:
		return "normal"
	}
}
