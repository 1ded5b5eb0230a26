package types

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// RunMeta is the run identity attached to every log line and report.
type RunMeta struct {
	// RunID uniquely identifies this sync run.
	RunID string `json:"run_id"`
	// Attempt is the attempt number for externally scheduled retries of the
	// same logical run. Starts at 1.
	Attempt int `json:"attempt"`
	// JobID optionally links the run to an external scheduler job.
	JobID *string `json:"job_id,omitempty"`
}

// NewRunMeta creates run metadata with a fresh UUID run ID.
func NewRunMeta() *RunMeta {
	return &RunMeta{
		RunID:   uuid.NewString(),
		Attempt: 1,
	}
}

// Validate checks run metadata invariants.
func (m *RunMeta) Validate() error {
	if m == nil {
		return errors.New("run metadata is nil")
	}
	if m.RunID == "" {
		return errors.New("run_id must not be empty")
	}
	if m.Attempt < 1 {
		return fmt.Errorf("attempt must be >= 1, got %d", m.Attempt)
	}
	if m.JobID != nil && *m.JobID == "" {
		return errors.New("job_id must not be empty when set")
	}
	return nil
}
