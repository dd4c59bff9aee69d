package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/evanschultz/jobgrid/internal/app"
	"github.com/evanschultz/jobgrid/internal/domain"
)

// Service is the application surface the grid reads from and writes through.
type Service interface {
	LoadRecords(context.Context) ([]domain.Record, error)
	LoadLayout(context.Context) (app.LayoutState, error)
	UpdateRecordField(context.Context, int64, domain.Field, string) (domain.Record, error)
	SetGridCell(context.Context, int, int, string) error
	AddColumns(context.Context, app.AddColumnsInput) (app.AddColumnsResult, error)
	RenameGroup(context.Context, string, string) error
	RenameColumn(context.Context, string, string) error
	MoveColumn(context.Context, string, string) (domain.CustomColumn, error)
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeEditCell
	modeSearch
	modeRenameColumn
	modeRenameGroup
	modeAddColumn
	modeDetail
)

// Model is the grid controller. It owns the record set, the derived layout, and
// the single cell edit session.
type Model struct {
	svc Service

	ready   bool
	width   int
	height  int
	loading bool
	err     error

	status string

	help    help.Model
	keys    keyMap
	spinner spinner.Model

	records app.RecordSet
	layout  app.LayoutState
	sizes   app.ColumnSizes
	padder  app.Padder

	rowHeightPx int
	cellWidthPx int

	search   string
	tab      string
	sort     app.SortState
	selected app.Selection
	gridSel  app.Selection

	cursorRow int
	cursorCol int
	scrollRow int
	leftCol   int

	mode        inputMode
	edit        app.EditState
	cellInput   textinput.Model
	choices     []string
	choiceIdx   int
	searchInput textinput.Model

	header       app.HeaderEditor
	headerTarget string
	headerInput  textinput.Model

	addForm        addColumnForm
	pendingFocusID string
	detail         *markdownRenderer

	onUpdate   UpdateCallback
	reloadSeed SeedReloadFunc
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	records []domain.Record
	layout  app.LayoutState
	err     error
}

// actionMsg carries message data through update handling.
type actionMsg struct {
	err         error
	status      string
	reload      bool
	record      *domain.Record
	field       domain.Field
	value       string
	focusColumn string
}

// seedImportedMsg reports a seed re-import triggered by the file watcher.
type seedImportedMsg struct {
	imported bool
	err      error
}

// SeedChangedMsg tells the grid that its seed file changed on disk.
type SeedChangedMsg struct{}

// SetSelectionMsg replaces the externally owned row selection.
type SetSelectionMsg struct {
	IDs []int64
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	grid := DefaultGridConfig()
	m := Model{
		svc:         svc,
		loading:     true,
		status:      "loading...",
		help:        h,
		keys:        newKeyMap(),
		spinner:     sp,
		layout:      app.LayoutState{Cells: app.GridCells{}},
		sizes:       app.NewColumnSizes(app.BaseColumns()),
		padder:      grid.Padder,
		rowHeightPx: grid.RowHeightPx,
		cellWidthPx: grid.CellWidthPx,
		tab:         app.TabAll,
		selected:    app.Selection{},
		gridSel:     app.Selection{},
		searchInput: newModalInput("search: ", "any field", "", 120),
		detail:      &markdownRenderer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init starts the spinner and the initial load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadData)
}

// Update updates state for the requested operation. The grid's own selection is
// reconciled against the shell's after every message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.gridSel, _ = app.ReconcileSelection(next.gridSel, next.selected)
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(max(0, msg.Width-2))
		m.ensureVisible()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.status = "load failed"
			return m, nil
		}
		m.err = nil
		m.records = app.RecordSet(msg.records)
		m.layout = msg.layout
		if m.layout.Cells == nil {
			m.layout.Cells = app.GridCells{}
		}
		m.sizes.Sync(m.layout.Columns())
		if m.pendingFocusID != "" {
			m.focusColumn(m.pendingFocusID)
			m.pendingFocusID = ""
		}
		m.clampCursor()
		m.ensureVisible()
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.status = errorStatus(msg.err)
		} else if msg.status != "" {
			m.status = msg.status
		}
		if msg.record != nil {
			m.records = m.records.Replace(*msg.record)
			if msg.err == nil && msg.field != "" && m.onUpdate != nil {
				m.onUpdate(msg.record.ID, msg.field, msg.value)
			}
		}
		if msg.focusColumn != "" {
			m.pendingFocusID = msg.focusColumn
		}
		if msg.reload {
			return m, m.loadData
		}
		return m, nil

	case SeedChangedMsg:
		if m.reloadSeed == nil {
			return m, m.loadData
		}
		reload := m.reloadSeed
		return m, func() tea.Msg {
			imported, err := reload(context.Background())
			return seedImportedMsg{imported: imported, err: err}
		}

	case SetSelectionMsg:
		m.selected = app.NewSelection(msg.IDs...)
		return m, nil

	case seedImportedMsg:
		if msg.err != nil {
			m.status = "seed reload failed: " + msg.err.Error()
			return m, nil
		}
		if !msg.imported {
			return m, nil
		}
		m.status = "seed reloaded"
		return m, m.loadData

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	default:
		return m, nil
	}
}

// loadData loads records and the persisted layout.
func (m Model) loadData() tea.Msg {
	ctx := context.Background()
	records, err := m.svc.LoadRecords(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	layout, err := m.svc.LoadLayout(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{records: records, layout: layout}
}

// newModalInput constructs modal input.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// gridColumn is a rendered column plus its canonical grid-cell index.
type gridColumn struct {
	app.Column
	Index int
}

// gridColumns lists columns in band display order.
func (m Model) gridColumns() []gridColumn {
	cols := m.layout.Columns()
	byID := make(map[string]int, len(cols))
	for i, c := range cols {
		byID[c.ID] = i
	}
	order := m.layout.Layout().DisplayOrder()
	out := make([]gridColumn, 0, len(order))
	for _, id := range order {
		idx, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, gridColumn{Column: cols[idx], Index: idx})
	}
	return out
}

// visibleRecords applies the shell's search, tab, and sort.
func (m Model) visibleRecords() []domain.Record {
	return app.SortRecords(app.FilterRecords(m.records, m.search, m.tab), m.sort)
}

func (m Model) totalRows() int {
	return m.padder.TotalRows(len(m.visibleRecords()))
}

// targetAt addresses the cell at a display row. Record fields back real rows;
// custom columns and padding rows go through the grid-override map.
func (m Model) targetAt(row int, col gridColumn, visible []domain.Record) app.EditTarget {
	if row < len(visible) && !col.Custom && col.Field != "" {
		return app.RecordTarget(visible[row].ID, col.Field)
	}
	return app.GridTarget(m.dataRow(row, visible), col.Index)
}

// dataRow maps a display row to its grid-cell row. Real rows use their position in
// the unsorted filtered records so added-column values follow the record through a
// sort. Padding rows keep their display position.
func (m Model) dataRow(row int, visible []domain.Record) int {
	if row < 0 || row >= len(visible) {
		return row
	}
	id := visible[row].ID
	for i, r := range app.FilterRecords(m.records, m.search, m.tab) {
		if r.ID == id {
			return i
		}
	}
	return row
}

func (m Model) cellValue(t app.EditTarget) string {
	if t.Kind == app.TargetRecord {
		record, ok := m.records.Find(t.RecordID)
		if !ok {
			return ""
		}
		return record.Value(t.Field)
	}
	return m.layout.Cells.Get(t.Row, t.Col)
}

// currentCell returns the focused column and cell target.
func (m Model) currentCell() (gridColumn, app.EditTarget, bool) {
	cols := m.gridColumns()
	if len(cols) == 0 {
		return gridColumn{}, app.EditTarget{}, false
	}
	col := cols[clamp(m.cursorCol, 0, len(cols)-1)]
	return col, m.targetAt(m.cursorRow, col, m.visibleRecords()), true
}

func (m Model) currentRecord() (domain.Record, bool) {
	visible := m.visibleRecords()
	if m.cursorRow < 0 || m.cursorRow >= len(visible) {
		return domain.Record{}, false
	}
	return visible[m.cursorRow], true
}

// cellRef formats a spreadsheet-style reference such as C4.
func cellRef(col gridColumn, row int) string {
	return app.ColumnLetter(col.Index) + strconv.Itoa(row+1)
}

// handleNormalModeKey handles normal mode key.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case msg.String() == "esc" && m.help.ShowAll:
		m.help.ShowAll = false
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.loading = true
		m.status = "loading..."
		return m, tea.Batch(m.spinner.Tick, m.loadData)
	}
	if m.loading || m.err != nil || m.help.ShowAll {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.moveUp):
		m.moveCursor(-1, 0)
	case key.Matches(msg, m.keys.moveDown):
		m.moveCursor(1, 0)
	case key.Matches(msg, m.keys.moveLeft):
		m.moveCursor(0, -1)
	case key.Matches(msg, m.keys.moveRight):
		m.moveCursor(0, 1)
	case key.Matches(msg, m.keys.pageUp):
		m.moveCursor(-m.bodyHeight(), 0)
	case key.Matches(msg, m.keys.pageDown):
		m.moveCursor(m.bodyHeight(), 0)
	case key.Matches(msg, m.keys.edit):
		return m, m.beginCurrentEdit()
	case key.Matches(msg, m.keys.search):
		return m, m.startSearchMode()
	case key.Matches(msg, m.keys.nextTab):
		m.cycleTab(1)
	case key.Matches(msg, m.keys.prevTab):
		m.cycleTab(-1)
	case key.Matches(msg, m.keys.sort):
		m.toggleSort()
	case key.Matches(msg, m.keys.addColumn):
		return m, m.startAddColumn()
	case key.Matches(msg, m.keys.rename):
		return m, m.startRenameColumn()
	case key.Matches(msg, m.keys.renameGroup):
		return m, m.startRenameGroup()
	case key.Matches(msg, m.keys.moveGroup):
		return m, m.moveColumnToNextGroup()
	case key.Matches(msg, m.keys.widen):
		m.resizeColumn(2 * m.cellWidthPx)
	case key.Matches(msg, m.keys.narrow):
		m.resizeColumn(-2 * m.cellWidthPx)
	case key.Matches(msg, m.keys.detail):
		if _, ok := m.currentRecord(); ok {
			m.mode = modeDetail
		}
	case key.Matches(msg, m.keys.yank):
		return m, m.yankCell()
	case key.Matches(msg, m.keys.selectRow):
		if record, ok := m.currentRecord(); ok {
			m.selected = m.selected.Toggle(record.ID)
			m.status = fmt.Sprintf("%d selected", len(m.selected))
		}
	case key.Matches(msg, m.keys.selectAll):
		m.selected = app.ToggleAll(m.selected, m.visibleRecords())
		m.status = fmt.Sprintf("%d selected", len(m.selected))
	default:
		if idx, err := strconv.Atoi(msg.String()); err == nil && idx >= 1 && idx <= len(app.Tabs()) {
			m.setTab(app.Tabs()[idx-1].ID)
		}
	}
	return m, nil
}

// handleInputModeKey handles input mode key.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeEditCell:
		return m.handleEditKey(msg)
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeRenameColumn, modeRenameGroup:
		return m.handleHeaderKey(msg)
	case modeAddColumn:
		return m.handleAddColumnKey(msg)
	case modeDetail:
		switch msg.String() {
		case "esc", "q", "i", "enter":
			m.mode = modeNone
		}
		return m, nil
	default:
		m.mode = modeNone
		return m, nil
	}
}

// startSearchMode starts search mode.
func (m *Model) startSearchMode() tea.Cmd {
	m.mode = modeSearch
	m.searchInput.SetValue(m.search)
	m.searchInput.CursorEnd()
	m.status = "search"
	return m.searchInput.Focus()
}

func (m Model) handleSearchKey(msg tea.KeyPressMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search = ""
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.mode = modeNone
		m.status = "search cleared"
		m.clampCursor()
		return m, nil
	case "enter":
		m.searchInput.Blur()
		m.mode = modeNone
		m.status = fmt.Sprintf("%d matches", len(m.visibleRecords()))
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.search = m.searchInput.Value()
	m.clampCursor()
	return m, cmd
}

func (m *Model) setTab(tab string) {
	m.tab = tab
	m.cursorRow = 0
	m.scrollRow = 0
	m.clampCursor()
}

func (m *Model) cycleTab(delta int) {
	tabs := app.Tabs()
	idx := slices.IndexFunc(tabs, func(t app.Tab) bool { return t.ID == m.tab })
	if idx < 0 {
		idx = 0
	}
	idx = (idx + delta + len(tabs)) % len(tabs)
	m.setTab(tabs[idx].ID)
}

func (m *Model) toggleSort() {
	col, _, ok := m.currentCell()
	if !ok || col.Custom || col.Field == "" {
		m.status = "column is not sortable"
		return
	}
	m.sort = m.sort.Toggle(col.Field)
	switch m.sort.Direction {
	case app.SortAsc:
		m.status = "sorted by " + col.Title + " ascending"
	case app.SortDesc:
		m.status = "sorted by " + col.Title + " descending"
	default:
		m.status = "sort cleared"
	}
}

func (m *Model) resizeColumn(delta int) {
	col, _, ok := m.currentCell()
	if !ok {
		return
	}
	width := m.sizes.Resize(col.ID, delta)
	m.status = fmt.Sprintf("%s width %dpx", col.Title, width)
	m.ensureVisible()
}

func (m Model) yankCell() tea.Cmd {
	col, target, ok := m.currentCell()
	if !ok {
		return nil
	}
	value := m.cellValue(target)
	ref := cellRef(col, m.cursorRow)
	return func() tea.Msg {
		if err := clipboard.WriteAll(value); err != nil {
			return actionMsg{err: fmt.Errorf("copy %s: %w", ref, err)}
		}
		return actionMsg{status: "copied " + ref}
	}
}

// moveCursor moves the focused cell and keeps it on screen.
func (m *Model) moveCursor(dRow, dCol int) {
	m.cursorRow += dRow
	m.cursorCol += dCol
	m.clampCursor()
	m.ensureVisible()
}

func (m *Model) clampCursor() {
	m.cursorRow = clamp(m.cursorRow, 0, m.totalRows()-1)
	m.cursorCol = clamp(m.cursorCol, 0, len(m.gridColumns())-1)
}

func (m *Model) focusColumn(id string) {
	idx := slices.IndexFunc(m.gridColumns(), func(c gridColumn) bool { return c.ID == id })
	if idx >= 0 {
		m.cursorCol = idx
	}
}

// ensureVisible scrolls so the cursor is inside the viewport, then applies the
// padding policy for the resulting scroll position.
func (m *Model) ensureVisible() {
	body := m.bodyHeight()
	if m.cursorRow < m.scrollRow {
		m.scrollRow = m.cursorRow
	}
	if m.cursorRow >= m.scrollRow+body {
		m.scrollRow = m.cursorRow - body + 1
	}
	m.scrollRow = clamp(m.scrollRow, 0, max(0, m.totalRows()-body))

	cols := m.gridColumns()
	if m.cursorCol < m.leftCol {
		m.leftCol = m.cursorCol
	}
	avail := m.gridWidth()
	for m.leftCol < m.cursorCol {
		used := 0
		for _, c := range cols[m.leftCol : m.cursorCol+1] {
			used += m.cellWidth(c.ID) + 1
		}
		if used <= avail {
			break
		}
		m.leftCol++
	}
	m.leftCol = clamp(m.leftCol, 0, max(0, len(cols)-1))
	m.onScroll()
}

// onScroll feeds the viewport, in pixels, to the padding policy.
func (m *Model) onScroll() {
	realRows := len(m.visibleRecords())
	total := m.padder.TotalRows(realRows)
	body := m.bodyHeight()
	var grew bool
	m.padder, grew = m.padder.OnScroll(m.scrollRow*m.rowHeightPx, body*m.rowHeightPx, total*m.rowHeightPx, realRows)
	if grew {
		m.status = fmt.Sprintf("grid extended to %d rows", m.padder.MinRows)
	}
}

// handleMouseWheel scrolls the body three rows per notch.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (Model, tea.Cmd) {
	if m.help.ShowAll || m.loading || m.err != nil {
		return m, nil
	}
	if m.mode != modeNone && m.mode != modeEditCell {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.scrollRow -= 3
	case tea.MouseWheelDown:
		m.scrollRow += 3
	default:
		return m, nil
	}
	m.scrollRow = clamp(m.scrollRow, 0, max(0, m.totalRows()-m.bodyHeight()))
	m.onScroll()
	return m, nil
}

// handleMouseClick focuses or edits a body cell, sorts from a header click, and
// opens the add-column modal from the trailing header slot.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (Model, tea.Cmd) {
	if msg.Button != tea.MouseLeft || m.help.ShowAll || m.loading || m.err != nil {
		return m, nil
	}
	if m.mode != modeNone && m.mode != modeEditCell {
		return m, nil
	}
	if len(m.visibleRecords()) == 0 {
		return m, nil
	}
	colIdx, onAddSlot := m.columnAtX(msg.X)
	headerY := m.bodyTop() - 1
	if msg.Y == headerY {
		if onAddSlot {
			cmd := m.commitEdit()
			return m, tea.Batch(cmd, m.startAddColumn())
		}
		if colIdx >= 0 {
			m.cursorCol = colIdx
			m.toggleSort()
		}
		return m, nil
	}

	row := m.scrollRow + msg.Y - m.bodyTop()
	if msg.Y < m.bodyTop() || row >= m.totalRows() || colIdx < 0 {
		return m, m.commitEdit()
	}
	sameCell := row == m.cursorRow && colIdx == m.cursorCol
	m.cursorRow = row
	m.cursorCol = colIdx
	m.ensureVisible()
	if m.mode == modeEditCell {
		if sameCell {
			return m, nil
		}
		return m, m.beginCurrentEdit()
	}
	if sameCell {
		return m, m.beginCurrentEdit()
	}
	return m, nil
}

// columnAtX maps a terminal column to a display column index.
func (m Model) columnAtX(x int) (int, bool) {
	x -= rowNumberWidth + 1
	if x < 0 {
		return -1, false
	}
	cols := m.gridColumns()
	offset := 0
	for idx := m.leftCol; idx < len(cols); idx++ {
		w := m.cellWidth(cols[idx].ID) + 1
		if x < offset+w {
			return idx, false
		}
		offset += w
		if offset > m.gridWidth() {
			return -1, false
		}
	}
	return -1, x < offset+m.addSlotWidth()
}

// errorStatus renders a service error for the status line.
func errorStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidName):
		return "name cannot be blank"
	case errors.Is(err, domain.ErrImmutableField):
		return "id cannot be edited"
	default:
		return "error: " + err.Error()
	}
}

// bodyTop is the first terminal row of the grid body: title, tabs, bands, column titles.
func (m Model) bodyTop() int {
	return 4
}

// bodyHeight is the number of grid rows that fit between the headers and the footer.
func (m Model) bodyHeight() int {
	if m.height <= 0 {
		return 20
	}
	return max(1, m.height-m.bodyTop()-3)
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}
