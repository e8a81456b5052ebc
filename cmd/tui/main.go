// Command tui is an interactive viewer for backtest reports. It renders the
// run summary and lets the user scroll through the trade list.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"alphasim/internal/engine"
	"alphasim/internal/report"
)

var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1)

	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	styleWin    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleLoss   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleCursor = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

type model struct {
	rep    report.RunReport
	cursor int
	offset int
	width  int
	height int
	ready  bool
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rep.Trades)-1 {
				m.cursor++
			}
		case "g":
			m.cursor = 0
		case "G":
			m.cursor = len(m.rep.Trades) - 1
		}
		m.clampOffset()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.clampOffset()
		return m, nil
	}
	return m, nil
}

func (m *model) visibleRows() int {
	// header, summary panel, and footer take roughly ten lines
	rows := m.height - 10
	if rows < 3 {
		rows = 3
	}
	return rows
}

func (m *model) clampOffset() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := styleHeader.Render(fmt.Sprintf(
		"%s │ %s → %s │ %d trades",
		m.rep.Strategy, m.rep.Start, m.rep.End, len(m.rep.Trades),
	))

	s := m.rep.Summary
	summary := stylePanel.Render(fmt.Sprintf(
		"win rate %.1f%% │ avg %.2f%% │ median %.2f%% │ total %.2f%% │ max DD %.2f%%",
		s.WinRate, s.AvgReturnPct, s.MedianReturnPct, s.TotalReturnPct, s.MaxDrawdownPct,
	))

	trades := m.renderTrades()
	footer := styleDim.Render(" j/k scroll · g/G jump · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, summary, trades, footer)
}

func (m model) renderTrades() string {
	if len(m.rep.Trades) == 0 {
		return stylePanel.Render("no trades")
	}

	rows := m.visibleRows()
	end := m.offset + rows
	if end > len(m.rep.Trades) {
		end = len(m.rep.Trades)
	}

	var lines []string
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderTrade(i, m.rep.Trades[i]))
	}
	return stylePanel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m model) renderTrade(i int, t engine.Trade) string {
	style := styleWin
	if t.NetReturnPct <= 0 {
		style = styleLoss
	}
	line := fmt.Sprintf(
		"%-10s %s → %s  %+.2f%%  dd %.2f%%  %s",
		t.Symbol,
		t.EntryTime.Format("01-02 15:04"),
		t.ExitTime.Format("01-02 15:04"),
		t.NetReturnPct,
		t.MaxDrawdownPct,
		t.ExitReason,
	)
	if i == m.cursor {
		return styleCursor.Render("> ") + style.Render(line)
	}
	return "  " + style.Render(line)
}

func main() {
	reportPath := flag.String("report", "out/report.json", "path to backtest report JSON")
	flag.Parse()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "viewer disabled (not a TTY)")
		os.Exit(1)
	}
	if os.Getenv("TERM") == "dumb" {
		fmt.Fprintln(os.Stderr, "viewer disabled (TERM=dumb)")
		os.Exit(1)
	}

	data, err := os.ReadFile(*reportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read report: %v\n", err)
		os.Exit(1)
	}
	var rep report.RunReport
	if err := json.Unmarshal(data, &rep); err != nil {
		fmt.Fprintf(os.Stderr, "parse report: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(model{rep: rep}, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui: %v\n", err)
		os.Exit(1)
	}
}
