// Package runtime implements the gridsync run orchestration.
package runtime

import (
	"time"

	"github.com/gridsync/gridsync/types"
)

// SyncResult is the aggregate outcome of one sync run.
type SyncResult struct {
	RunMeta *types.RunMeta
	Window  types.WriteWindow
	Groups  []types.GroupResult

	Duration    time.Duration
	RowsWritten int64
	RowsCleared int64
}

// Counts returns the per-status group tallies.
func (r *SyncResult) Counts() (completed, noData, failed int) {
	for _, g := range r.Groups {
		switch g.Status {
		case types.GroupCompleted:
			completed++
		case types.GroupNoData:
			noData++
		case types.GroupError:
			failed++
		}
	}
	return completed, noData, failed
}

// ExitCode maps the run outcome to a process exit code: 0 when no group
// failed, 3 for partial failure, 1 when every group failed.
func (r *SyncResult) ExitCode() int {
	completed, noData, failed := r.Counts()
	switch {
	case failed == 0:
		return 0
	case completed == 0 && noData == 0:
		return 1
	default:
		return 3
	}
}
