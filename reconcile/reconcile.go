// Package reconcile removes previously written rows whose date falls
// inside the write window, making a reconcile+write pair idempotent.
package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/gridsync/gridsync/grid"
	"github.com/gridsync/gridsync/log"
	"github.com/gridsync/gridsync/normalize"
	"github.com/gridsync/gridsync/types"
)

// dateColumn is the zero-indexed column holding the row's date key.
const dateColumn = 0

// Reconciler plans and applies overlap removal against one destination.
type Reconciler struct {
	store  grid.Store
	logger *log.SugaredLogger
}

// New creates a Reconciler. The logger is optional.
func New(store grid.Store, logger *log.SugaredLogger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// Plan reads the destination's date column and returns the coalesced
// 1-indexed row ranges whose normalized date falls inside the window.
// The header row never matches. Unparseable cells never match.
func (r *Reconciler) Plan(ctx context.Context, dest grid.Destination, window types.WriteWindow) ([]grid.RowRange, error) {
	cells, err := r.store.ReadColumn(ctx, dest, dateColumn)
	if err != nil {
		return nil, fmt.Errorf("read date column: %w", err)
	}

	var matching []int
	for i, cell := range cells {
		if i == 0 {
			continue // header row
		}
		iso, ok := normalize.CellDate(cell)
		if !ok {
			continue
		}
		if window.Contains(iso) {
			matching = append(matching, i+1) // 1-indexed row number
		}
	}
	return CoalesceRows(matching), nil
}

// Reconcile removes every row inside the window and reports how many rows
// it removed. A window with no prior rows is a no-op.
//
// Structural deletion is preferred; when the destination's structural
// identity is unresolved, or deletion itself fails, cell values are
// cleared in place instead, leaving empty rows behind.
func (r *Reconciler) Reconcile(ctx context.Context, dest grid.Destination, window types.WriteWindow) (int, error) {
	ranges, err := r.Plan(ctx, dest, window)
	if err != nil {
		return 0, err
	}
	if len(ranges) == 0 {
		return 0, nil
	}

	total := 0
	for _, rr := range ranges {
		total += rr.Len()
	}

	// Highest range first so earlier deletions cannot shift the indices of
	// ranges still pending.
	SortDescending(ranges)

	if dest.Structural() {
		if err := r.store.DeleteRows(ctx, dest, ranges); err == nil {
			if r.logger != nil {
				r.logger.Infof("deleted %d overlapping rows: tab=%s window=%s", total, dest.Title, window)
			}
			return total, nil
		} else if r.logger != nil {
			r.logger.Warnf("row deletion failed, falling back to value clear: tab=%s err=%v", dest.Title, err)
		}
	}

	if err := r.store.ClearRanges(ctx, dest, ranges); err != nil {
		return 0, fmt.Errorf("clear overlapping rows: %w", err)
	}
	if r.logger != nil {
		r.logger.Infof("cleared %d overlapping rows: tab=%s window=%s", total, dest.Title, window)
	}
	return total, nil
}

// CoalesceRows sorts 1-indexed row numbers ascending and merges adjacent
// numbers into minimal contiguous inclusive ranges.
func CoalesceRows(rows []int) []grid.RowRange {
	if len(rows) == 0 {
		return nil
	}
	sorted := append([]int(nil), rows...)
	sort.Ints(sorted)

	ranges := []grid.RowRange{{Start: sorted[0], End: sorted[0]}}
	for _, row := range sorted[1:] {
		last := &ranges[len(ranges)-1]
		switch {
		case row == last.End:
			// duplicate row number
		case row == last.End+1:
			last.End = row
		default:
			ranges = append(ranges, grid.RowRange{Start: row, End: row})
		}
	}
	return ranges
}

// SortDescending orders ranges by descending start row, in place.
func SortDescending(ranges []grid.RowRange) {
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].Start > ranges[j].Start
	})
}
