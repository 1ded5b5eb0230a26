package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gridsync/gridsync/runtime"
	"github.com/gridsync/gridsync/types"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"json lowercase", "json", FormatJSON, false},
		{"json uppercase", "JSON", FormatJSON, false},
		{"table", "table", FormatTable, false},
		{"yaml", "yaml", FormatYAML, false},
		{"empty", "", "", false},
		{"invalid", "xml", "", true},
		{"invalid with message", "csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormat_InvalidErrorMessage(t *testing.T) {
	_, err := ParseFormat("xml")
	if err == nil {
		t.Fatal("expected error for invalid format")
	}
	if !strings.Contains(err.Error(), "json, table, or yaml") {
		t.Errorf("error message should mention valid formats, got: %v", err)
	}
}

func testReport() *runtime.SyncReport {
	return &runtime.SyncReport{
		RunID:       "run-1",
		JobID:       "job-9",
		Attempt:     2,
		WindowStart: "2025-04-01",
		WindowEnd:   "2025-04-07",
		ExitCode:    3,
		DurationMs:  90000,

		GroupsTotal:  2,
		GroupsOK:     1,
		GroupsFailed: 1,
		RowsWritten:  7,
		RowsCleared:  7,

		Groups: []types.GroupResult{
			{GroupID: "g1", GroupName: "Acme", Status: types.GroupCompleted, Networks: []types.NetworkOutcome{
				{Network: types.NetworkFacebook, Status: types.NetworkCompleted, RowsWritten: 7},
			}},
			{GroupID: "g2", Status: types.GroupError, Message: "facebook: write: boom", Networks: []types.NetworkOutcome{
				{Network: types.NetworkFacebook, Status: types.NetworkFailed},
			}},
		},
	}
}

func TestRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatJSON, &buf)

	if err := r.Render(testReport()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, `"run_id": "run-1"`) {
		t.Errorf("JSON output missing run_id: %s", got)
	}
	if !strings.Contains(got, `"groups_failed": 1`) {
		t.Errorf("JSON output missing tallies: %s", got)
	}
}

func TestRenderer_YAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatYAML, &buf)

	data := map[string]string{"key": "value"}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "key:") || !strings.Contains(got, "value") {
		t.Errorf("YAML output missing expected content: %s", got)
	}
}

func TestRenderer_ReportTable(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	if err := r.Render(testReport()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "run-1") {
		t.Errorf("table output missing run id: %s", got)
	}
	if !strings.Contains(got, "2 total, 1 ok, 0 no data, 1 failed") {
		t.Errorf("table output missing group tallies: %s", got)
	}
	if !strings.Contains(got, "Acme (g1)") {
		t.Errorf("table output missing group label: %s", got)
	}
	if !strings.Contains(got, "facebook error") {
		t.Errorf("table output missing network summary: %s", got)
	}
	if !strings.Contains(got, "facebook: write: boom") {
		t.Errorf("table output missing failure detail: %s", got)
	}
}

func TestRenderer_PlanTable(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	plan := &runtime.SyncPlan{
		WindowStart:   "2025-04-01",
		WindowEnd:     "2025-04-07",
		GroupsTotal:   1,
		ProfilesTotal: 2,
		Groups: []runtime.PlanGroup{
			{GroupID: "g1", GroupName: "Acme", Tabs: []string{"Facebook", "Instagram"},
				Profiles: []runtime.PlanProfile{
					{ProfileID: "p1", Network: "facebook"},
					{ProfileID: "p2", Network: "instagram"},
				},
				Clears: []runtime.PlanClear{
					{Tab: "Facebook", Rows: 2, Ranges: []string{"3-4"}},
				}},
		},
	}
	if err := r.Render(plan); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "2025-04-01 .. 2025-04-07") {
		t.Errorf("plan table missing window: %s", got)
	}
	if !strings.Contains(got, "Facebook, Instagram") {
		t.Errorf("plan table missing tabs: %s", got)
	}
	if !strings.Contains(got, "Facebook 2 (3-4)") {
		t.Errorf("plan table missing clear preview: %s", got)
	}
}

func TestRenderer_TableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	if err := r.Render(map[string]string{"key": "value"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"key": "value"`) {
		t.Errorf("fallback output = %s", buf.String())
	}
}

func TestNetworkSummary_Empty(t *testing.T) {
	if got := networkSummary(nil); got != "-" {
		t.Errorf("networkSummary(nil) = %q", got)
	}
}
