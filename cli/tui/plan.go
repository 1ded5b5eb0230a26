package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gridsync/gridsync/runtime"
)

// PlanModel is a Bubble Tea model for the dry-run plan view.
type PlanModel struct {
	data     any
	width    int
	height   int
	quitting bool
}

// NewPlanModel creates a new plan model.
func NewPlanModel(data any) PlanModel {
	return PlanModel{data: data}
}

// Init implements tea.Model.
func (m PlanModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m PlanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
func (m PlanModel) View() string {
	if m.quitting {
		return ""
	}

	plan, ok := m.data.(*runtime.SyncPlan)
	if !ok {
		return "Invalid data type for plan"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Sync Plan"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Window:"),
		ValueStyle.Render(plan.WindowStart+" .. "+plan.WindowEnd)))
	b.WriteString("\n")

	boxes := []string{
		renderStatBox("Groups", plan.GroupsTotal, highlightColor),
		renderStatBox("Profiles", plan.ProfilesTotal, successColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n\n")

	for _, g := range plan.Groups {
		label := g.GroupID
		if g.GroupName != "" {
			label = g.GroupName
		}
		title := lipgloss.NewStyle().
			Bold(true).
			Foreground(highlightColor).
			Render(label)
		b.WriteString(title)
		b.WriteString("\n")

		if len(g.Profiles) == 0 {
			b.WriteString(WarningStyle.Render("  (no profiles)"))
			b.WriteString("\n")
			continue
		}
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("  Tabs:"),
			ValueStyle.Render(strings.Join(g.Tabs, ", "))))
		for _, pc := range g.Clears {
			if pc.Rows == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("%s %s\n",
				LabelStyle.Render("  Clears:"),
				WarningStyle.Render(fmt.Sprintf("%s: %d rows (%s)", pc.Tab, pc.Rows, strings.Join(pc.Ranges, ", ")))))
		}
		for _, p := range g.Profiles {
			b.WriteString(fmt.Sprintf("  • %s %s\n",
				ValueStyle.Render(p.Name),
				HelpStyle.Render("("+p.Network+")")))
		}
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return BoxStyle.Render(b.String()) + "\n" + help
}

// RunPlanTUI runs the plan TUI.
func RunPlanTUI(data any) error {
	model := NewPlanModel(data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderPlanStatic renders plan data without full TUI (for fallback).
func RenderPlanStatic(data any) string {
	model := NewPlanModel(data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
