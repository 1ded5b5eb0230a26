// Package adapter defines the event-bus adapter boundary.
//
// Adapters publish sync completion notifications to downstream systems.
// The runtime owns adapter lifecycle; users provide configuration only.
package adapter

import "context"

// SyncCompletedEvent is the payload published when a sync run finishes.
type SyncCompletedEvent struct {
	EventType    string `json:"event_type"` // always "sync_completed"
	RunID        string `json:"run_id"`
	WindowStart  string `json:"window_start"`
	WindowEnd    string `json:"window_end"`
	GroupsTotal  int    `json:"groups_total"`
	GroupsOK     int    `json:"groups_ok"`
	GroupsNoData int    `json:"groups_no_data"`
	GroupsFailed int    `json:"groups_failed"`
	RowsWritten  int64  `json:"rows_written"`
	RowsCleared  int64  `json:"rows_cleared"`
	Timestamp    string `json:"timestamp"` // ISO 8601
	JobID        string `json:"job_id,omitempty"`
	Attempt      int    `json:"attempt"`
	DurationMs   int64  `json:"duration_ms"`
}

// Adapter publishes sync completion events to a downstream system.
// Implementations must be safe for single-use per run.
type Adapter interface {
	// Publish sends a sync completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *SyncCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
