package metrics

import (
	"sync"
	"testing"
)

func TestCollectorSnapshot(t *testing.T) {
	c := NewCollector("run-1", "job-1")

	c.IncFetchCall()
	c.IncFetchCall()
	c.IncFetchRetry()
	c.IncFetchExhausted()
	c.AddPointsFetched(14)
	c.AddRecordsNormalized(12)
	c.AddRecordsDeduped(2)
	c.AddRowsFormatted(11)
	c.IncRowDropped("facebook")
	c.AddRowsCleared(3)
	c.AddRowsWritten(11)
	c.IncCapacityGrow()
	c.IncGroupCompleted()
	c.IncGroupNoData()
	c.IncGroupFailed()

	s := c.Snapshot()
	if s.FetchCalls != 2 || s.FetchRetries != 1 || s.FetchExhausted != 1 {
		t.Errorf("fetch counters = %d/%d/%d", s.FetchCalls, s.FetchRetries, s.FetchExhausted)
	}
	if s.PointsFetched != 14 || s.RecordsNormalized != 12 || s.RecordsDeduped != 2 {
		t.Errorf("pipeline counters = %d/%d/%d", s.PointsFetched, s.RecordsNormalized, s.RecordsDeduped)
	}
	if s.RowsFormatted != 11 || s.RowsDropped != 1 || s.DroppedByNetwork["facebook"] != 1 {
		t.Errorf("format counters = %d/%d/%v", s.RowsFormatted, s.RowsDropped, s.DroppedByNetwork)
	}
	if s.RowsCleared != 3 || s.RowsWritten != 11 || s.CapacityGrows != 1 {
		t.Errorf("sink counters = %d/%d/%d", s.RowsCleared, s.RowsWritten, s.CapacityGrows)
	}
	if s.GroupsCompleted != 1 || s.GroupsNoData != 1 || s.GroupsFailed != 1 {
		t.Errorf("group counters = %d/%d/%d", s.GroupsCompleted, s.GroupsNoData, s.GroupsFailed)
	}
	if s.RunID != "run-1" || s.JobID != "job-1" {
		t.Errorf("dimensions = %s/%s", s.RunID, s.JobID)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	c := NewCollector("run-1", "")
	c.IncRowDropped("twitter")

	s := c.Snapshot()
	c.IncRowDropped("twitter")
	c.AddRowsWritten(5)

	if s.DroppedByNetwork["twitter"] != 1 {
		t.Errorf("snapshot map mutated after the fact: %v", s.DroppedByNetwork)
	}
	if s.RowsWritten != 0 {
		t.Errorf("snapshot counter mutated after the fact: %d", s.RowsWritten)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.IncFetchCall()
	c.AddRowsWritten(3)
	c.IncRowDropped("facebook")
	if s := c.Snapshot(); s.FetchCalls != 0 {
		t.Errorf("nil collector snapshot = %+v", s)
	}
}

func TestCollectorConcurrentIncrements(t *testing.T) {
	c := NewCollector("run-1", "")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncFetchCall()
				c.AddRowsWritten(1)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.FetchCalls != 800 || s.RowsWritten != 800 {
		t.Errorf("counters = %d/%d, want 800/800", s.FetchCalls, s.RowsWritten)
	}
}
