package types

// GroupStatus is the per-group outcome of a sync run.
// Partial success is the expected common case, not an anomaly.
type GroupStatus string

const (
	// GroupCompleted indicates every network tab for the group was written
	// (or legitimately had nothing to write).
	GroupCompleted GroupStatus = "completed"
	// GroupNoData indicates the upstream API returned no data points for
	// any of the group's profiles in the window.
	GroupNoData GroupStatus = "no_data"
	// GroupError indicates at least one network failed. Sibling networks
	// may still have completed; see NetworkOutcomes.
	GroupError GroupStatus = "error"
)

// NetworkStatus is the per-(group, network) outcome.
type NetworkStatus string

const (
	NetworkCompleted NetworkStatus = "completed"
	NetworkNoData    NetworkStatus = "no_data"
	NetworkFailed    NetworkStatus = "error"
)

// NetworkOutcome records what happened to one network tab of one group.
type NetworkOutcome struct {
	Network     NetworkKind   `json:"network"`
	Status      NetworkStatus `json:"status"`
	Message     string        `json:"message,omitempty"`
	RowsWritten int           `json:"rows_written"`
	RowsCleared int           `json:"rows_cleared"`
}

// GroupResult aggregates one group's network outcomes.
type GroupResult struct {
	GroupID   string           `json:"group_id"`
	GroupName string           `json:"group_name"`
	Status    GroupStatus      `json:"status"`
	Message   string           `json:"message,omitempty"`
	Networks  []NetworkOutcome `json:"networks,omitempty"`
}

// DeriveGroupStatus folds network outcomes into a group status.
// Any failure wins over completion; all-no-data reports no_data.
func DeriveGroupStatus(outcomes []NetworkOutcome) GroupStatus {
	if len(outcomes) == 0 {
		return GroupNoData
	}
	anyData := false
	for _, o := range outcomes {
		switch o.Status {
		case NetworkFailed:
			return GroupError
		case NetworkCompleted:
			anyData = true
		}
	}
	if !anyData {
		return GroupNoData
	}
	return GroupCompleted
}
