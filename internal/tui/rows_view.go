package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/empsearch/internal/engine/cache"
	"github.com/rshade/empsearch/internal/resultset"
)

// EmployeeColumns are the columns printed for an employee search.
var EmployeeColumns = []string{"id", "name", "year", "post_names"}

const (
	minColumnWidth = 4
	maxColumnWidth = 40
	truncateSuffix = "..."
)

// NewRowTable builds a table model over rows showing columns, each sized to its widest cell.
func NewRowTable(rows []resultset.Row, columns []string, height int) table.Model {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = max(lipgloss.Width(c), minColumnWidth)
	}

	tableRows := make([]table.Row, len(rows))
	for r, row := range rows {
		cells := make(table.Row, len(columns))
		for i, c := range columns {
			cells[i] = truncate(row.Text(c), maxColumnWidth)
			widths[i] = max(widths[i], lipgloss.Width(cells[i]))
		}
		tableRows[r] = cells
	}

	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{Title: c, Width: widths[i]}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(tableRows),
		table.WithFocused(false),
		table.WithHeight(max(height, len(tableRows)+1)),
	)

	s := table.DefaultStyles()
	s.Header = TableHeaderStyle
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)

	return t
}

// RenderRowsTable renders rows as a static table, or an informational line when empty.
func RenderRowsTable(rows []resultset.Row, columns []string) string {
	if len(rows) == 0 {
		return InfoStyle.Render("No employees matched.")
	}
	return NewRowTable(rows, columns, len(rows)).View()
}

// RenderClearReport summarizes a cache clear.
func RenderClearReport(report cache.ClearReport) string {
	var b strings.Builder
	b.WriteString(LabelStyle.Render("Removed: "))
	b.WriteString(ValueStyle.Render(strconv.Itoa(report.Removed)))
	if report.Skipped > 0 {
		b.WriteString(LabelStyle.Render("  Skipped: "))
		b.WriteString(ValueStyle.Render(strconv.Itoa(report.Skipped)))
	}
	if report.Failed > 0 {
		b.WriteString(LabelStyle.Render("  Failed: "))
		b.WriteString(ErrorStyle.Render(strconv.Itoa(report.Failed)))
	}
	return b.String()
}

// RenderStats renders the cache statistics box.
func RenderStats(dir string, stats cache.Stats, width int) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("QUERY CACHE"))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Directory: "))
	b.WriteString(ValueStyle.Render(dir))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Entries:   "))
	b.WriteString(ValueStyle.Render(strconv.Itoa(stats.Entries)))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Size:      "))
	b.WriteString(ValueStyle.Render(formatBytes(stats.Bytes)))
	return BoxStyle.Width(max(width-2, 0)).Render(b.String())
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+len(truncateSuffix) > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + truncateSuffix
}
