package runtime

import (
	"context"
	"time"

	"github.com/gridsync/gridsync/log"
)

// DefaultWatchdogThreshold is how long a run may take before the watchdog
// starts complaining.
const DefaultWatchdogThreshold = 45 * time.Minute

// Watchdog logs a warning when a run outlives its threshold. It never
// terminates anything; killing a stuck run is the scheduler's job.
type Watchdog struct {
	threshold time.Duration
	interval  time.Duration
	logger    *log.SugaredLogger
}

// NewWatchdog creates a Watchdog. Threshold <= 0 uses the default.
func NewWatchdog(threshold time.Duration, logger *log.SugaredLogger) *Watchdog {
	if threshold <= 0 {
		threshold = DefaultWatchdogThreshold
	}
	return &Watchdog{
		threshold: threshold,
		interval:  time.Minute,
		logger:    logger,
	}
}

// Start begins watching and returns a stop function. Safe to call stop
// more than once.
func (w *Watchdog) Start(ctx context.Context) (stop func()) {
	watchCtx, cancel := context.WithCancel(ctx)
	started := time.Now()

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				elapsed := time.Since(started)
				if elapsed > w.threshold && w.logger != nil {
					w.logger.Warnf("run still in progress after %s (threshold %s)",
						elapsed.Round(time.Second), w.threshold)
				}
			}
		}
	}()

	return cancel
}
