package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/rshade/empsearch/internal/resultset"
	listview "github.com/rshade/empsearch/internal/tui/list"
)

const (
	defaultBrowserHeight = 15
	defaultBrowserWidth  = 80
	// chromeLines is the space taken by the title, the detail pane and the help line.
	chromeLines = 8
)

// BrowserModel is a scrollable list of result rows with a detail pane for the cursor row.
type BrowserModel struct {
	title   string
	columns []string
	list    *listview.VirtualListModel[resultset.Row]
	width   int
	quit    bool
}

// NewBrowserModel returns a browser over rows. The list shows columns; the detail pane shows
// every field of the selected row.
func NewBrowserModel(title string, rows []resultset.Row, columns []string) *BrowserModel {
	m := &BrowserModel{title: title, columns: columns, width: defaultBrowserWidth}
	m.list = listview.NewVirtualListModel(rows, defaultBrowserHeight, defaultBrowserWidth, m.renderRow)
	return m
}

func (m *BrowserModel) renderRow(row resultset.Row, selected bool) string {
	cells := make([]string, len(m.columns))
	for i, c := range m.columns {
		cells[i] = row.Text(c)
	}
	line := truncate(strings.Join(cells, "  "), max(m.width-2, minColumnWidth))
	if selected {
		return SelectedRowStyle.Render("> " + line)
	}
	return "  " + line
}

// Init implements tea.Model.
func (m *BrowserModel) Init() tea.Cmd {
	return nil
}

// Update quits on q, esc or ctrl+c and forwards everything else to the list.
func (m *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		msg.Height = max(msg.Height-chromeLines, 1)
		_, cmd := m.list.Update(msg)
		return m, cmd
	}
	_, cmd := m.list.Update(msg)
	return m, cmd
}

// View renders the title, the list and the detail pane.
func (m *BrowserModel) View() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(m.title))
	b.WriteString(InfoStyle.Render(fmt.Sprintf("  %d row(s)", m.list.ItemCount())))
	b.WriteString("\n\n")

	if m.list.ItemCount() == 0 {
		b.WriteString(InfoStyle.Render("No employees matched."))
	} else {
		b.WriteString(m.list.View())
		if row := m.list.GetSelectedItem(); row != nil {
			b.WriteString("\n\n")
			b.WriteString(renderDetail(*row))
		}
	}

	b.WriteString("\n")
	b.WriteString(InfoStyle.Render("↑/↓ j/k move • g/G top/bottom • q quit"))
	return b.String()
}

// Selected returns the index of the cursor row.
func (m *BrowserModel) Selected() int {
	return m.list.Selected()
}

// Quitting reports whether the user asked to leave.
func (m *BrowserModel) Quitting() bool {
	return m.quit
}

func renderDetail(row resultset.Row) string {
	var b strings.Builder
	for i, f := range row {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(LabelStyle.Render(fmt.Sprintf("%-12s", f.Name)))
		b.WriteString(ValueStyle.Render(row.Text(f.Name)))
	}
	return BoxStyle.Render(b.String())
}

// Browse runs the browser until the user quits or ctx is canceled.
func Browse(ctx context.Context, title string, rows []resultset.Row, columns []string, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(
		NewBrowserModel(title, rows, columns),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}

// IsTerminal reports whether v is a file descriptor attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int.
}
