package tui

import (
	"fmt"
)

// Run starts the appropriate TUI based on the view type.
// Returns an error if the view type doesn't support TUI.
func Run(viewType string, data any) error {
	switch viewType {
	case "report":
		return RunReportTUI(data)
	case "plan":
		return RunPlanTUI(data)
	default:
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
}

// IsTUISupported returns true if the view type supports TUI mode.
// Only the read-only report and plan views do.
func IsTUISupported(viewType string) bool {
	switch viewType {
	case "report", "plan":
		return true
	}
	return false
}

// SupportedTUIViews returns a list of view types that support TUI.
func SupportedTUIViews() []string {
	return []string{"report", "plan"}
}
