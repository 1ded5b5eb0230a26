package grid

import (
	"errors"
	"strings"
)

// Sink-side sentinel errors.
var (
	// ErrCapacity indicates a write was rejected because it exceeds the
	// tab's current grid size. Retriable after growing capacity.
	ErrCapacity = errors.New("exceeds grid limits")

	// ErrNoDestination indicates a destination could not be found or
	// created. Fatal for the group, not for the run.
	ErrNoDestination = errors.New("destination unresolvable")

	// errTabNotFound indicates a spreadsheet has no tab with the requested
	// title. Resolution reacts by creating the tab.
	errTabNotFound = errors.New("tab not found")
)

// IsCapacity reports whether an error indicates an undersized grid.
// Matches both the typed sentinel and the sink's message form, which
// surfaces through retry wrappers as text.
func IsCapacity(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCapacity) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "exceeds grid limits") ||
		strings.Contains(lower, "exceeds the grid limits")
}
