package types

import (
	"fmt"
	"time"
)

// ISODate is the canonical date layout used everywhere in the pipeline.
// Dates carry no time-of-day; comparisons are plain string comparisons,
// which order correctly for this layout.
const ISODate = "2006-01-02"

// WriteWindow is the inclusive date range being (re)written in one
// reconcile+write cycle. It drives both the upstream analytics filter and
// the reconciler's stale-row test. Both bounds are ISO YYYY-MM-DD.
type WriteWindow struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// NewWindow builds a window from two calendar dates, normalizing to UTC
// date-only form.
func NewWindow(start, end time.Time) WriteWindow {
	return WriteWindow{
		Start: start.UTC().Format(ISODate),
		End:   end.UTC().Format(ISODate),
	}
}

// YesterdayWindow returns the single-day window for yesterday relative to
// now. This is the default sync window when no bounds are supplied.
func YesterdayWindow(now time.Time) WriteWindow {
	y := now.UTC().AddDate(0, 0, -1)
	return NewWindow(y, y)
}

// Validate checks that both bounds parse as ISO dates and start <= end.
func (w WriteWindow) Validate() error {
	start, err := time.Parse(ISODate, w.Start)
	if err != nil {
		return fmt.Errorf("invalid window start %q: %w", w.Start, err)
	}
	end, err := time.Parse(ISODate, w.End)
	if err != nil {
		return fmt.Errorf("invalid window end %q: %w", w.End, err)
	}
	if end.Before(start) {
		return fmt.Errorf("window end %s precedes start %s", w.End, w.Start)
	}
	return nil
}

// Contains reports whether the ISO date falls inside the window, inclusive
// on both bounds. Assumes iso is already normalized to YYYY-MM-DD.
func (w WriteWindow) Contains(iso string) bool {
	return iso >= w.Start && iso <= w.End
}

// Days returns the number of calendar days covered, inclusive.
// Returns 0 when the window does not validate.
func (w WriteWindow) Days() int {
	start, err := time.Parse(ISODate, w.Start)
	if err != nil {
		return 0
	}
	end, err := time.Parse(ISODate, w.End)
	if err != nil || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

func (w WriteWindow) String() string {
	return w.Start + ".." + w.End
}
