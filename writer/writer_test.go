package writer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gridsync/gridsync/grid"
	"github.com/gridsync/gridsync/source"
	"github.com/gridsync/gridsync/types"
)

// fakeClock drives a Throttle without real time.
type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	sleeps int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	c.sleeps++
	c.now = c.now.Add(d)
	return nil
}

func throttleWithClock(spacing time.Duration, clock *fakeClock) *Throttle {
	t := NewThrottle(spacing)
	t.now = clock.Now
	t.sleepFn = clock.Sleep
	return t
}

func TestThrottleEnforcesSpacing(t *testing.T) {
	clock := newFakeClock()
	th := throttleWithClock(2*time.Second, clock)
	ctx := context.Background()

	// First wait: last-write is zero, far in the past, no sleep.
	if err := th.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if clock.sleeps != 0 {
		t.Errorf("first wait slept %v, want none", clock.slept)
	}

	// Immediate second wait sleeps the full spacing.
	if err := th.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if clock.sleeps != 1 || clock.slept[0] != 2*time.Second {
		t.Errorf("second wait slept %v, want [2s]", clock.slept)
	}

	// Partial elapsed time sleeps only the remainder.
	clock.now = clock.now.Add(1500 * time.Millisecond)
	if err := th.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if clock.sleeps != 2 || clock.slept[1] != 500*time.Millisecond {
		t.Errorf("third wait slept %v, want 500ms remainder", clock.slept)
	}
}

func testRetry() *source.RetryPolicy {
	return &source.RetryPolicy{
		MaxAttempts: 4,
		Base:        time.Millisecond,
		SleepFn:     func(context.Context, time.Duration) error { return nil },
		Rand01:      func() float64 { return 0.5 },
	}
}

func newTestWriter(store *grid.StubStore) (*BatchWriter, *fakeClock) {
	clock := newFakeClock()
	th := throttleWithClock(2*time.Second, clock)
	return NewBatchWriter(store, th, testRetry(), nil), clock
}

var testHeaders = []string{"Date", "Profile", "Likes"}

func testRows(dates ...string) []types.Row {
	rows := make([]types.Row, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, types.Row{d, "Acme", 1.0})
	}
	return rows
}

func TestWriteFreshTabWritesHeaderThenRows(t *testing.T) {
	store := grid.NewStubStore()
	dest, _ := store.ResolveDestination(context.Background(), "g1", types.NetworkFacebook)
	w, _ := newTestWriter(store)

	n, err := w.Write(context.Background(), dest, testHeaders, testRows("2025-04-01"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 1 {
		t.Errorf("wrote %d rows, want 1", n)
	}

	want := []string{"write_header", "ensure_capacity", "write_rows"}
	got := store.OpNames()
	if len(got) != len(want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ops = %v, want %v", got, want)
		}
	}

	// Data lands on row 2, directly after the header.
	lastOp := store.Ops[len(store.Ops)-1]
	if lastOp.Start != 2 {
		t.Errorf("write started at row %d, want 2", lastOp.Start)
	}
	rows := store.Cells[dest.Title]
	if len(rows) != 2 || rows[0][0] != "Date" || rows[1][0] != "2025-04-01" {
		t.Errorf("tab contents = %v", rows)
	}
}

func TestWriteAppendsAfterExistingRows(t *testing.T) {
	store := grid.NewStubStore()
	dest, _ := store.ResolveDestination(context.Background(), "g1", types.NetworkFacebook)
	store.Cells[dest.Title] = []types.Row{
		{"Date", "Profile", "Likes"},
		{"2025-03-30", "Acme", 4.0},
	}
	w, _ := newTestWriter(store)

	n, err := w.Write(context.Background(), dest, testHeaders, testRows("2025-04-01", "2025-04-02"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 2 {
		t.Errorf("wrote %d rows, want 2", n)
	}

	rows := store.Cells[dest.Title]
	if len(rows) != 4 {
		t.Fatalf("tab has %d rows, want 4", len(rows))
	}
	if rows[2][0] != "2025-04-01" || rows[3][0] != "2025-04-02" {
		t.Errorf("appended rows = %v", rows[2:])
	}
	// Header untouched
	if rows[0][0] != "Date" {
		t.Errorf("header = %v", rows[0])
	}
}

func TestWriteThrottlesEveryAttempt(t *testing.T) {
	store := grid.NewStubStore()
	dest, _ := store.ResolveDestination(context.Background(), "g1", types.NetworkFacebook)
	store.Cells[dest.Title] = []types.Row{{"Date"}}
	w, clock := newTestWriter(store)

	// Two writes back to back: the second must wait the spacing.
	if _, err := w.Write(context.Background(), dest, testHeaders, testRows("2025-04-01")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := w.Write(context.Background(), dest, testHeaders, testRows("2025-04-02")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if clock.sleeps == 0 {
		t.Error("back-to-back writes should sleep the throttle spacing")
	}
}

func TestWriteGrowsCapacityOnGridLimitFailure(t *testing.T) {
	store := grid.NewStubStore()
	dest, _ := store.ResolveDestination(context.Background(), "g1", types.NetworkFacebook)
	store.Cells[dest.Title] = []types.Row{{"Date"}}

	// First write attempt fails with a capacity error, then recovers.
	failures := 1
	store.Errs["write_rows"] = grid.ErrCapacity
	w, _ := newTestWriter(store)
	w.retry.SleepFn = func(context.Context, time.Duration) error {
		if failures > 0 {
			failures = 0
			delete(store.Errs, "write_rows")
		}
		return nil
	}
	grows := 0
	w.OnCapacityGrow = func() { grows++ }

	n, err := w.Write(context.Background(), dest, testHeaders, testRows("2025-04-01"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 1 {
		t.Errorf("wrote %d rows, want 1", n)
	}

	// One upfront capacity call plus one grow from the retry hook.
	var capacityCalls int
	for _, op := range store.Ops {
		if op.Name == "ensure_capacity" {
			capacityCalls++
		}
	}
	if capacityCalls != 2 {
		t.Errorf("ensure_capacity called %d times, want 2 (upfront + pre-retry grow)", capacityCalls)
	}
	if grows != 1 {
		t.Errorf("capacity grow observed %d times, want 1", grows)
	}
}

func transientErr(op string) error {
	return &source.FetchError{Class: source.ClassServer, Op: op, Status: 503, Err: errors.New("backend hiccup")}
}

func TestWriteRetriesTransientHeaderFailure(t *testing.T) {
	store := grid.NewStubStore()
	dest, _ := store.ResolveDestination(context.Background(), "g1", types.NetworkFacebook)

	// The header bootstrap on a fresh tab fails once with a server error,
	// then recovers on the retry.
	store.Errs["write_header"] = transientErr("write_header")
	w, _ := newTestWriter(store)
	w.retry.SleepFn = func(context.Context, time.Duration) error {
		delete(store.Errs, "write_header")
		return nil
	}

	n, err := w.Write(context.Background(), dest, testHeaders, testRows("2025-04-01"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 1 {
		t.Errorf("wrote %d rows, want 1", n)
	}
	rows := store.Cells[dest.Title]
	if len(rows) != 2 || rows[0][0] != "Date" || rows[1][0] != "2025-04-01" {
		t.Errorf("tab contents = %v", rows)
	}
}

func TestWriteRetriesTransientCapacityFailure(t *testing.T) {
	store := grid.NewStubStore()
	dest, _ := store.ResolveDestination(context.Background(), "g1", types.NetworkFacebook)
	store.Cells[dest.Title] = []types.Row{{"Date"}}

	store.Errs["ensure_capacity"] = transientErr("ensure_capacity")
	w, _ := newTestWriter(store)
	w.retry.SleepFn = func(context.Context, time.Duration) error {
		delete(store.Errs, "ensure_capacity")
		return nil
	}

	n, err := w.Write(context.Background(), dest, testHeaders, testRows("2025-04-01"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 1 {
		t.Errorf("wrote %d rows, want 1", n)
	}
}

func TestWriteEmptyBatchIsNoOp(t *testing.T) {
	store := grid.NewStubStore()
	dest, _ := store.ResolveDestination(context.Background(), "g1", types.NetworkFacebook)
	w, _ := newTestWriter(store)

	n, err := w.Write(context.Background(), dest, testHeaders, nil)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 0 || len(store.Ops) != 0 {
		t.Errorf("empty batch should do nothing, wrote %d, ops %v", n, store.OpNames())
	}
}
