package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gridsync/gridsync/runtime"
)

// ReportModel is a Bubble Tea model for the sync report view.
type ReportModel struct {
	data     any
	width    int
	height   int
	quitting bool
}

// NewReportModel creates a new report model.
func NewReportModel(data any) ReportModel {
	return ReportModel{data: data}
}

// Init implements tea.Model.
func (m ReportModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m ReportModel) View() string {
	if m.quitting {
		return ""
	}

	report, ok := m.data.(*runtime.SyncReport)
	if !ok {
		return "Invalid data type for report"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Sync Report"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Run ID:"),
		ValueStyle.Render(report.RunID)))
	if report.JobID != "" {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Job ID:"),
			ValueStyle.Render(fmt.Sprintf("%s (attempt %d)", report.JobID, report.Attempt))))
	}
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Window:"),
		ValueStyle.Render(report.WindowStart+" .. "+report.WindowEnd)))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Duration:"),
		ValueStyle.Render(fmt.Sprintf("%dms", report.DurationMs))))
	b.WriteString("\n")

	boxes := []string{
		renderStatBox("Completed", report.GroupsOK, successColor),
		renderStatBox("No Data", report.GroupsNoData, warningColor),
		renderStatBox("Failed", report.GroupsFailed, errorColor),
		renderStatBox("Rows", int(report.RowsWritten), highlightColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n\n")

	for _, g := range report.Groups {
		label := g.GroupID
		if g.GroupName != "" {
			label = g.GroupName
		}
		line := fmt.Sprintf("%s %s",
			LabelStyle.Render(label+":"),
			StateStyle(string(g.Status)).Render(string(g.Status)))
		if g.Message != "" {
			line += "  " + ErrorStyle.Render(g.Message)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return BoxStyle.Render(b.String()) + "\n" + help
}

func renderStatBox(label string, value int, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunReportTUI runs the report TUI.
func RunReportTUI(data any) error {
	model := NewReportModel(data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderReportStatic renders report data without full TUI (for fallback).
func RenderReportStatic(data any) string {
	model := NewReportModel(data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
