// Package metrics provides per-run metrics collection.
//
// The Collector accumulates counters during a single sync run. It is a
// leaf package with no internal dependencies. Per-network drop counts are
// tracked by network name string to keep it that way.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all run counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Fetch
	FetchCalls     int64
	FetchRetries   int64
	FetchExhausted int64
	PointsFetched  int64

	// Normalization
	RecordsNormalized int64
	RecordsDeduped    int64
	RecordsSkipped    int64

	// Formatting
	RowsFormatted    int64
	RowsDropped      int64
	DroppedByNetwork map[string]int64

	// Sink
	RowsCleared   int64
	RowsWritten   int64
	WriteFailures int64
	CapacityGrows int64

	// Group outcomes
	GroupsCompleted int64
	GroupsNoData    int64
	GroupsFailed    int64

	// Dimensions (informational, set at construction)
	RunID string
	JobID string
}

// Collector accumulates metrics during a single run.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	fetchCalls     int64
	fetchRetries   int64
	fetchExhausted int64
	pointsFetched  int64

	recordsNormalized int64
	recordsDeduped    int64
	recordsSkipped    int64

	rowsFormatted    int64
	rowsDropped      int64
	droppedByNetwork map[string]int64

	rowsCleared   int64
	rowsWritten   int64
	writeFailures int64
	capacityGrows int64

	groupsCompleted int64
	groupsNoData    int64
	groupsFailed    int64

	runID string
	jobID string
}

// NewCollector creates a Collector with dimension labels.
// jobID is optional and may be empty.
func NewCollector(runID, jobID string) *Collector {
	return &Collector{
		droppedByNetwork: make(map[string]int64),
		runID:            runID,
		jobID:            jobID,
	}
}

// --- Fetch ---

// IncFetchCall records one upstream query attempt.
func (c *Collector) IncFetchCall() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchCalls++
	c.mu.Unlock()
}

// IncFetchRetry records one fetch retry after a classified failure.
func (c *Collector) IncFetchRetry() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchRetries++
	c.mu.Unlock()
}

// IncFetchExhausted records a fetch abandoned after its retry budget.
func (c *Collector) IncFetchExhausted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchExhausted++
	c.mu.Unlock()
}

// AddPointsFetched records raw data points returned by the upstream API.
func (c *Collector) AddPointsFetched(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.pointsFetched += int64(n)
	c.mu.Unlock()
}

// --- Normalization ---

// AddRecordsNormalized records canonical records produced from a page.
func (c *Collector) AddRecordsNormalized(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.recordsNormalized += int64(n)
	c.mu.Unlock()
}

// AddRecordsDeduped records raw points discarded as duplicates.
func (c *Collector) AddRecordsDeduped(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.recordsDeduped += int64(n)
	c.mu.Unlock()
}

// AddRecordsSkipped records raw points skipped as malformed.
func (c *Collector) AddRecordsSkipped(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.recordsSkipped += int64(n)
	c.mu.Unlock()
}

// --- Formatting ---

// AddRowsFormatted records rows produced by a network formatter.
func (c *Collector) AddRowsFormatted(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rowsFormatted += int64(n)
	c.mu.Unlock()
}

// IncRowDropped records a record the formatter refused, by network name.
func (c *Collector) IncRowDropped(network string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rowsDropped++
	c.droppedByNetwork[network]++
	c.mu.Unlock()
}

// --- Sink ---

// AddRowsCleared records rows removed by reconciliation.
func (c *Collector) AddRowsCleared(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rowsCleared += int64(n)
	c.mu.Unlock()
}

// AddRowsWritten records rows appended by the batch writer.
func (c *Collector) AddRowsWritten(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rowsWritten += int64(n)
	c.mu.Unlock()
}

// IncWriteFailure records a write that failed after all retries.
func (c *Collector) IncWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.writeFailures++
	c.mu.Unlock()
}

// IncCapacityGrow records a grid resize issued before a write retry.
func (c *Collector) IncCapacityGrow() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.capacityGrows++
	c.mu.Unlock()
}

// --- Group outcomes ---

// IncGroupCompleted records a group that finished with data written.
func (c *Collector) IncGroupCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.groupsCompleted++
	c.mu.Unlock()
}

// IncGroupNoData records a group whose window held no data.
func (c *Collector) IncGroupNoData() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.groupsNoData++
	c.mu.Unlock()
}

// IncGroupFailed records a group that ended in an error status.
func (c *Collector) IncGroupFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.groupsFailed++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all counters.
// The Collector can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := make(map[string]int64, len(c.droppedByNetwork))
	for k, v := range c.droppedByNetwork {
		dropped[k] = v
	}

	return Snapshot{
		FetchCalls:     c.fetchCalls,
		FetchRetries:   c.fetchRetries,
		FetchExhausted: c.fetchExhausted,
		PointsFetched:  c.pointsFetched,

		RecordsNormalized: c.recordsNormalized,
		RecordsDeduped:    c.recordsDeduped,
		RecordsSkipped:    c.recordsSkipped,

		RowsFormatted:    c.rowsFormatted,
		RowsDropped:      c.rowsDropped,
		DroppedByNetwork: dropped,

		RowsCleared:   c.rowsCleared,
		RowsWritten:   c.rowsWritten,
		WriteFailures: c.writeFailures,
		CapacityGrows: c.capacityGrows,

		GroupsCompleted: c.groupsCompleted,
		GroupsNoData:    c.groupsNoData,
		GroupsFailed:    c.groupsFailed,

		RunID: c.runID,
		JobID: c.jobID,
	}
}
