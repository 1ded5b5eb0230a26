package writer

import (
	"context"
	"fmt"

	"github.com/gridsync/gridsync/grid"
	"github.com/gridsync/gridsync/log"
	"github.com/gridsync/gridsync/source"
	"github.com/gridsync/gridsync/types"
)

// DefaultSafetyMargin is the extra row headroom requested beyond the rows
// about to be written.
const DefaultSafetyMargin = 10

// BatchWriter appends rows after the last used row of a destination.
type BatchWriter struct {
	store    grid.Store
	throttle *Throttle
	retry    *source.RetryPolicy
	logger   *log.SugaredLogger

	// SafetyMargin is the row headroom added to capacity requests.
	SafetyMargin int

	// OnCapacityGrow, when set, observes each grid resize issued from the
	// retry hook. Feeds the run's capacity-grow counter.
	OnCapacityGrow func()
}

// NewBatchWriter creates a BatchWriter. The throttle may be shared with
// other writers; retry may be nil for policy defaults.
func NewBatchWriter(store grid.Store, throttle *Throttle, retry *source.RetryPolicy, logger *log.SugaredLogger) *BatchWriter {
	if throttle == nil {
		throttle = NewThrottle(DefaultMinSpacing)
	}
	if retry == nil {
		retry = source.NewRetryPolicy()
	}
	return &BatchWriter{
		store:        store,
		throttle:     throttle,
		retry:        retry,
		logger:       logger,
		SafetyMargin: DefaultSafetyMargin,
	}
}

// Write appends rows to the destination after the last used row, writing
// the header first on a fresh tab. Returns the number of rows written.
//
// Every sink mutation runs under the retry policy, so a transient quota
// or server failure on the header bootstrap or the capacity pre-expansion
// backs off the same way a failed row write does. When a write failure
// reports an undersized grid, capacity is grown further before the next
// attempt, scaled by the attempt number.
func (w *BatchWriter) Write(ctx context.Context, dest grid.Destination, headers []string, rows []types.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	used, err := w.usedRows(ctx, dest)
	if err != nil {
		return 0, fmt.Errorf("probe used rows: %w", err)
	}

	if used == 0 {
		err := w.retry.Do(ctx, "write_header", func(ctx context.Context) error {
			if err := w.throttle.Wait(ctx); err != nil {
				return err
			}
			return w.store.WriteHeader(ctx, dest, headers)
		})
		if err != nil {
			return 0, fmt.Errorf("write header: %w", err)
		}
		used = 1
	}

	margin := w.SafetyMargin
	if margin <= 0 {
		margin = DefaultSafetyMargin
	}
	wantRows := used + len(rows) + margin
	err = w.retry.Do(ctx, "ensure_capacity", func(ctx context.Context) error {
		return w.store.EnsureCapacity(ctx, dest, wantRows, len(headers))
	})
	if err != nil {
		return 0, fmt.Errorf("ensure capacity: %w", err)
	}

	startRow := used + 1
	policy := *w.retry
	policy.OnBeforeRetry = func(ctx context.Context, attempt int, cause error) error {
		if !grid.IsCapacity(cause) {
			return nil
		}
		grown := used + len(rows) + margin*attempt
		if w.logger != nil {
			w.logger.Warnf("grid too small for write, growing to %d rows before attempt %d: tab=%s",
				grown, attempt, dest.Title)
		}
		if err := w.store.EnsureCapacity(ctx, dest, grown, len(headers)); err != nil {
			return err
		}
		if w.OnCapacityGrow != nil {
			w.OnCapacityGrow()
		}
		return nil
	}

	err = policy.Do(ctx, "write_rows", func(ctx context.Context) error {
		if err := w.throttle.Wait(ctx); err != nil {
			return err
		}
		return w.store.WriteRows(ctx, dest, startRow, rows)
	})
	if err != nil {
		return 0, err
	}

	if w.logger != nil {
		w.logger.Infof("wrote %d rows: tab=%s start_row=%d", len(rows), dest.Title, startRow)
	}
	return len(rows), nil
}

// usedRows counts occupied rows from the date column, header included.
func (w *BatchWriter) usedRows(ctx context.Context, dest grid.Destination) (int, error) {
	cells, err := w.store.ReadColumn(ctx, dest, 0)
	if err != nil {
		return 0, err
	}
	return len(cells), nil
}
