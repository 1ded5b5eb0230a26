package tui

import (
	"strings"
	"testing"

	"github.com/gridsync/gridsync/runtime"
	"github.com/gridsync/gridsync/types"
)

func TestIsTUISupported(t *testing.T) {
	tests := []struct {
		viewType string
		want     bool
	}{
		{"report", true},
		{"plan", true},

		{"sync", false},
		{"version", false},
		{"unknown", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.viewType, func(t *testing.T) {
			got := IsTUISupported(tt.viewType)
			if got != tt.want {
				t.Errorf("IsTUISupported(%q) = %v, want %v", tt.viewType, got, tt.want)
			}
		})
	}
}

func TestSupportedTUIViews(t *testing.T) {
	views := SupportedTUIViews()
	if len(views) != 2 {
		t.Errorf("SupportedTUIViews() returned %d views, expected 2", len(views))
	}
	for _, v := range views {
		if !IsTUISupported(v) {
			t.Errorf("SupportedTUIViews() returned %q but IsTUISupported returns false", v)
		}
	}
}

func TestRun_UnsupportedViewType(t *testing.T) {
	err := Run("sync", nil)
	if err == nil {
		t.Error("Expected error for unsupported view type")
	}
}

func TestReportView(t *testing.T) {
	report := &runtime.SyncReport{
		RunID:        "run-1",
		WindowStart:  "2025-04-01",
		WindowEnd:    "2025-04-07",
		GroupsTotal:  2,
		GroupsOK:     1,
		GroupsFailed: 1,
		Groups: []types.GroupResult{
			{GroupID: "g1", GroupName: "Acme", Status: types.GroupCompleted},
			{GroupID: "g2", Status: types.GroupError, Message: "facebook: write: boom"},
		},
	}

	view := NewReportModel(report).View()
	if !strings.Contains(view, "run-1") {
		t.Errorf("view missing run id:\n%s", view)
	}
	if !strings.Contains(view, "Acme") {
		t.Errorf("view missing group name:\n%s", view)
	}
	if !strings.Contains(view, "facebook: write: boom") {
		t.Errorf("view missing failure message:\n%s", view)
	}
}

func TestReportView_InvalidData(t *testing.T) {
	view := NewReportModel("not a report").View()
	if !strings.Contains(view, "Invalid data type") {
		t.Errorf("expected invalid data message, got:\n%s", view)
	}
}

func TestPlanView(t *testing.T) {
	plan := &runtime.SyncPlan{
		WindowStart:   "2025-04-01",
		WindowEnd:     "2025-04-07",
		GroupsTotal:   2,
		ProfilesTotal: 1,
		Groups: []runtime.PlanGroup{
			{GroupID: "g1", GroupName: "Acme", Tabs: []string{"Facebook"},
				Profiles: []runtime.PlanProfile{{ProfileID: "p1", Name: "Acme FB", Network: "facebook"}}},
			{GroupID: "g2"},
		},
	}

	view := NewPlanModel(plan).View()
	if !strings.Contains(view, "Acme FB") {
		t.Errorf("view missing profile:\n%s", view)
	}
	if !strings.Contains(view, "(no profiles)") {
		t.Errorf("view missing empty-group marker:\n%s", view)
	}
}
