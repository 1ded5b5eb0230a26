package runtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gridsync/gridsync/metrics"
	"github.com/gridsync/gridsync/types"
)

// SyncReport is the structured JSON report written by --report.
type SyncReport struct {
	RunID       string `json:"run_id"`
	JobID       string `json:"job_id,omitempty"`
	Attempt     int    `json:"attempt"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
	ExitCode    int    `json:"exit_code"`
	DurationMs  int64  `json:"duration_ms"`

	GroupsTotal  int `json:"groups_total"`
	GroupsOK     int `json:"groups_ok"`
	GroupsNoData int `json:"groups_no_data"`
	GroupsFailed int `json:"groups_failed"`

	RowsWritten int64 `json:"rows_written"`
	RowsCleared int64 `json:"rows_cleared"`

	Groups  []types.GroupResult `json:"groups"`
	Metrics *metrics.Snapshot   `json:"metrics"`
}

// BuildSyncReport composes a SyncReport from a run result and metrics
// snapshot. The exitCode is the process exit code returned to the caller.
func BuildSyncReport(result *SyncResult, snap metrics.Snapshot, exitCode int) *SyncReport {
	completed, noData, failed := result.Counts()
	report := &SyncReport{
		RunID:       result.RunMeta.RunID,
		Attempt:     result.RunMeta.Attempt,
		WindowStart: result.Window.Start,
		WindowEnd:   result.Window.End,
		ExitCode:    exitCode,
		DurationMs:  result.Duration.Milliseconds(),

		GroupsTotal:  len(result.Groups),
		GroupsOK:     completed,
		GroupsNoData: noData,
		GroupsFailed: failed,

		RowsWritten: result.RowsWritten,
		RowsCleared: result.RowsCleared,

		Groups:  result.Groups,
		Metrics: &snap,
	}
	if result.RunMeta.JobID != nil {
		report.JobID = *result.RunMeta.JobID
	}
	return report
}

// WriteSyncReport writes the report as JSON to the specified path.
// If path is "-", writes to stderr.
func WriteSyncReport(report *SyncReport, path string) error {
	if path == "" {
		return errors.New("report path must not be empty")
	}

	if path == "-" {
		return writeSyncReportTo(report, os.Stderr)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

// writeSyncReportTo writes report JSON to any writer (for testing).
func writeSyncReportTo(report *SyncReport, w io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
