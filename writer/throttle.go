// Package writer appends formatted rows to a destination under a global
// write-rate throttle, growing sink capacity as needed.
package writer

import (
	"context"
	"sync"
	"time"

	"github.com/gridsync/gridsync/source"
)

// DefaultMinSpacing is the minimum gap between consecutive sink writes.
const DefaultMinSpacing = 2 * time.Second

// Throttle enforces a minimum spacing between writes across every
// destination sharing it. Each Wait call, including calls made during
// retries, re-checks the last write timestamp and sleeps the remainder.
type Throttle struct {
	mu         sync.Mutex
	minSpacing time.Duration
	last       time.Time

	now     func() time.Time
	sleepFn source.SleepFunc
}

// NewThrottle creates a Throttle. Spacing <= 0 uses DefaultMinSpacing.
func NewThrottle(minSpacing time.Duration) *Throttle {
	if minSpacing <= 0 {
		minSpacing = DefaultMinSpacing
	}
	return &Throttle{
		minSpacing: minSpacing,
		now:        time.Now,
		sleepFn:    source.Sleep,
	}
}

// Wait blocks until the minimum spacing since the previous write has
// elapsed, then claims the current instant as the new last-write time.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	elapsed := t.now().Sub(t.last)
	remaining := t.minSpacing - elapsed
	t.mu.Unlock()

	if remaining > 0 {
		if err := t.sleepFn(ctx, remaining); err != nil {
			return err
		}
	}

	t.mu.Lock()
	t.last = t.now()
	t.mu.Unlock()
	return nil
}
