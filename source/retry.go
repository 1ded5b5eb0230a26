package source

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/gridsync/gridsync/log"
)

// Backoff bounds. Delays are clipped to [BackoffFloor, BackoffCeiling]
// after jitter.
const (
	// BackoffFloor is the minimum delay between attempts.
	BackoffFloor = 750 * time.Millisecond
	// BackoffCeiling is the maximum delay between attempts.
	BackoffCeiling = 10 * time.Minute
	// JitterSpread is the multiplicative jitter range: delays are scaled
	// by a factor uniform in [1-JitterSpread, 1+JitterSpread].
	JitterSpread = 0.25
)

// DefaultMaxAttempts is the attempt ceiling before a fetch is abandoned.
const DefaultMaxAttempts = 8

// DefaultAuthAttempts is the lower attempt ceiling for auth failures.
// Auth errors rarely heal themselves; two retries cover token refresh lag.
const DefaultAuthAttempts = 3

// DefaultBase is the base backoff delay.
const DefaultBase = 30 * time.Second

// multiplierFor returns the per-class backoff multiplier.
func multiplierFor(class FailureClass) float64 {
	switch class {
	case ClassRateLimit:
		return 2.2
	case ClassAuth:
		return 2.0
	case ClassServer:
		return 1.8
	default:
		return 1.5
	}
}

// Backoff computes the delay before the given retry attempt (1-indexed:
// attempt 1 is the delay after the first failure).
//
//	delay = base * multiplier^(attempt-1), jittered by rand01,
//	raised to honor retryAfter, clipped to [floor, ceiling].
//
// rand01 must be uniform in [0, 1); it is mapped onto the jitter spread.
func Backoff(class FailureClass, attempt int, base, retryAfter time.Duration, rand01 float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = DefaultBase
	}

	raw := float64(base) * math.Pow(multiplierFor(class), float64(attempt-1))
	if raw > float64(BackoffCeiling) {
		raw = float64(BackoffCeiling)
	}

	// Multiplicative jitter in [1-spread, 1+spread]
	factor := 1 - JitterSpread + 2*JitterSpread*rand01
	delay := time.Duration(raw * factor)

	// A server-requested cooldown always wins over a shorter computed delay
	if retryAfter > delay {
		delay = retryAfter
	}

	if delay < BackoffFloor {
		delay = BackoffFloor
	}
	if delay > BackoffCeiling {
		delay = BackoffCeiling
	}
	return delay
}

// SleepFunc suspends for the given duration, honoring context cancellation.
// Injectable so tests can run without real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy retries a single logical operation with class-aware
// exponential backoff. State (attempt counter) is scoped per Do call,
// never shared across operations or destinations.
type RetryPolicy struct {
	// MaxAttempts is the overall attempt ceiling (default 8).
	MaxAttempts int
	// AuthAttempts is the lower ceiling applied to auth failures (default 3).
	AuthAttempts int
	// Base is the base backoff delay (default 30s).
	Base time.Duration
	// SleepFn suspends between attempts. Defaults to Sleep.
	SleepFn SleepFunc
	// Rand01 supplies jitter randomness in [0, 1). Defaults to math/rand.
	Rand01 func() float64
	// OnBeforeRetry, when set, runs before each backoff sleep with the
	// upcoming attempt number and the failure that triggered the retry.
	// The batch writer uses this to grow sink capacity before retrying.
	OnBeforeRetry func(ctx context.Context, attempt int, err error) error
	// OnRetry, when set, observes each retry just before its backoff
	// sleep. Feeds the run's retry counters.
	OnRetry func(op string, attempt int, err error)
	// Logger receives per-attempt warnings. Optional.
	Logger *log.SugaredLogger
}

// NewRetryPolicy returns a policy with production defaults.
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  DefaultMaxAttempts,
		AuthAttempts: DefaultAuthAttempts,
		Base:         DefaultBase,
		SleepFn:      Sleep,
		Rand01:       rand.Float64,
	}
}

// Do runs fn until it succeeds or the attempt budget for its failure class
// is spent. The returned error wraps ErrExhausted plus the last failure, so
// callers can skip-and-continue: a spent budget is "no data", not fatal.
func (p *RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	authAttempts := p.AuthAttempts
	if authAttempts <= 0 {
		authAttempts = DefaultAuthAttempts
	}
	sleep := p.SleepFn
	if sleep == nil {
		sleep = Sleep
	}
	rand01 := p.Rand01
	if rand01 == nil {
		rand01 = rand.Float64
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: context canceled: %w", op, err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		class := ClassifyErr(lastErr)
		ceiling := maxAttempts
		if class == ClassAuth && authAttempts < ceiling {
			ceiling = authAttempts
		}
		if attempt >= ceiling {
			break
		}

		if p.OnBeforeRetry != nil {
			if hookErr := p.OnBeforeRetry(ctx, attempt+1, lastErr); hookErr != nil {
				return fmt.Errorf("%s: retry preparation failed: %w", op, hookErr)
			}
		}
		if p.OnRetry != nil {
			p.OnRetry(op, attempt+1, lastErr)
		}

		delay := Backoff(class, attempt, p.Base, RetryAfterOf(lastErr), rand01())
		if p.Logger != nil {
			p.Logger.Warnf("%s failed (attempt %d/%d, class %s), backing off %s: %v",
				op, attempt, ceiling, class, delay, lastErr)
		}
		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: context canceled during backoff: %w", op, err)
		}
	}

	return &ExhaustedError{Op: op, Err: lastErr}
}

// ExhaustedError reports a spent retry budget. It matches ErrExhausted via
// errors.Is and exposes the final failure through Unwrap.
type ExhaustedError struct {
	Op  string
	Err error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrExhausted, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Is reports whether target is ErrExhausted.
func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

// IsExhausted reports whether err represents a spent retry budget.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrExhausted)
}
