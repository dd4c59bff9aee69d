package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"

	"github.com/evanschultz/jobgrid/internal/domain"
)

// markdownRenderer renders markdown for terminal views and recreates the renderer when wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown input into ANSI-styled terminal text with the requested wrap width.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := max(24, width)
	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// recordMarkdown describes the record shown at display row, including its added-column cells.
func (m Model) recordMarkdown(record domain.Record, row int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# #%d %s\n\n", record.ID, escapeMarkdown(record.JobRequest))
	b.WriteString("| Field | Value |\n|---|---|\n")
	for _, c := range m.gridColumns() {
		var value string
		if c.Custom || c.Field == "" {
			value = m.layout.Cells.Get(m.dataRow(row, m.visibleRecords()), c.Index)
		} else {
			value = record.Value(c.Field)
			if c.Suffix != "" && value != "" {
				value += " " + c.Suffix
			}
		}
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", escapeMarkdown(c.Title), escapeMarkdown(value))
	}
	if record.URL != "" {
		fmt.Fprintf(&b, "\n<%s>\n", record.URL)
	}
	return b.String()
}

func escapeMarkdown(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

// renderDetail renders the record detail overlay for the focused row.
func (m Model) renderDetail() string {
	record, ok := m.currentRecord()
	if !ok {
		return ""
	}
	width := clamp(m.width-8, 40, 90)
	body := m.detail.render(m.recordMarkdown(record, m.cursorRow), width-4)
	hint := lipgloss.NewStyle().Foreground(lipgloss.Color(mutedColor)).Render("esc close")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(accentColor)).
		Padding(0, 1).
		Width(width).
		Render(body + "\n" + hint)
}
