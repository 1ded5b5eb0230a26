// Package render provides centralized output rendering for the gridsync CLI.
//
// Format selection rules:
//   - If output is a TTY, default to table
//   - If output is not a TTY, default to json
//   - --format flag always overrides defaults
//   - Invalid formats are errors
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/gridsync/gridsync/cli/tui"
	"github.com/gridsync/gridsync/runtime"
	"github.com/gridsync/gridsync/types"
)

// Format represents an output format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer handles output formatting.
type Renderer struct {
	format Format
	out    io.Writer
}

// NewRenderer creates a renderer from CLI context, applying the TTY
// default rules.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}

	if format == "" {
		if isTTY(os.Stdout) {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}

	return &Renderer{format: format, out: os.Stdout}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, out io.Writer) *Renderer {
	return &Renderer{format: format, out: out}
}

// Render outputs the data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(data)
	case FormatYAML:
		return r.renderYAML(data)
	case FormatTable:
		return r.renderTable(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderTUI initiates TUI mode for the given view type.
func (r *Renderer) RenderTUI(viewType string, data any) error {
	if !tui.IsTUISupported(viewType) {
		return fmt.Errorf("--tui is not supported for %s", viewType)
	}
	return tui.Run(viewType, data)
}

func (r *Renderer) renderJSON(data any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (r *Renderer) renderYAML(data any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	return enc.Encode(data)
}

func (r *Renderer) renderTable(data any) error {
	switch v := data.(type) {
	case *runtime.SyncReport:
		return r.renderReportTable(v)
	case *runtime.SyncPlan:
		return r.renderPlanTable(v)
	default:
		// Table rendering is only defined for the report and plan
		// payloads; anything else falls back to JSON.
		return r.renderJSON(data)
	}
}

func (r *Renderer) renderReportTable(report *runtime.SyncReport) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "run:\t%s\n", report.RunID)
	if report.JobID != "" {
		fmt.Fprintf(w, "job:\t%s (attempt %d)\n", report.JobID, report.Attempt)
	}
	fmt.Fprintf(w, "window:\t%s .. %s\n", report.WindowStart, report.WindowEnd)
	fmt.Fprintf(w, "duration:\t%dms\n", report.DurationMs)
	fmt.Fprintf(w, "groups:\t%d total, %d ok, %d no data, %d failed\n",
		report.GroupsTotal, report.GroupsOK, report.GroupsNoData, report.GroupsFailed)
	fmt.Fprintf(w, "rows:\t%d written, %d cleared\n", report.RowsWritten, report.RowsCleared)

	if len(report.Groups) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "GROUP\tSTATUS\tNETWORKS\tDETAIL")
		for _, g := range report.Groups {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				groupLabel(g), g.Status, networkSummary(g.Networks), g.Message)
		}
	}
	return nil
}

func (r *Renderer) renderPlanTable(plan *runtime.SyncPlan) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "window:\t%s .. %s\n", plan.WindowStart, plan.WindowEnd)
	fmt.Fprintf(w, "groups:\t%d\n", plan.GroupsTotal)
	fmt.Fprintf(w, "profiles:\t%d\n", plan.ProfilesTotal)

	if len(plan.Groups) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "GROUP\tPROFILES\tTABS\tROWS TO CLEAR")
		for _, g := range plan.Groups {
			label := g.GroupID
			if g.GroupName != "" {
				label = fmt.Sprintf("%s (%s)", g.GroupName, g.GroupID)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
				label, len(g.Profiles), strings.Join(g.Tabs, ", "), clearSummary(g.Clears))
		}
	}
	return nil
}

// clearSummary collapses per-tab clear previews into "Facebook 2 (3-4)"
// style text. Empty when the plan ran without a store.
func clearSummary(clears []runtime.PlanClear) string {
	if len(clears) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(clears))
	for _, c := range clears {
		if c.Rows == 0 {
			parts = append(parts, fmt.Sprintf("%s 0", c.Tab))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d (%s)", c.Tab, c.Rows, strings.Join(c.Ranges, ", ")))
	}
	return strings.Join(parts, "; ")
}

func groupLabel(g types.GroupResult) string {
	if g.GroupName != "" {
		return fmt.Sprintf("%s (%s)", g.GroupName, g.GroupID)
	}
	return g.GroupID
}

// networkSummary collapses per-network outcomes into "facebook ok,
// twitter error" style text for the table view.
func networkSummary(outcomes []types.NetworkOutcome) string {
	if len(outcomes) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		state := "ok"
		switch o.Status {
		case types.NetworkNoData:
			state = "no data"
		case types.NetworkFailed:
			state = "error"
		}
		parts = append(parts, fmt.Sprintf("%s %s", o.Network, state))
	}
	return strings.Join(parts, ", ")
}

// isTTY returns true if the writer is a TTY.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
