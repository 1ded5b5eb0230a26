package runtime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gridsync/gridsync/types"
)

func testEntry(group string, network types.NetworkKind) CheckpointEntry {
	return CheckpointEntry{
		RunID:       "run-1",
		GroupID:     group,
		Network:     string(network),
		WindowStart: "2025-04-01",
		WindowEnd:   "2025-04-07",
		CompletedAt: "2025-04-08T12:00:00Z",
	}
}

func testWindow() types.WriteWindow {
	return types.WriteWindow{Start: "2025-04-01", End: "2025-04-07"}
}

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.bin")

	cp, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("LoadCheckpoint on missing file: %v", err)
	}
	if cp.Done("g1", types.NetworkFacebook, testWindow()) {
		t.Error("fresh checkpoint should have no completed units")
	}

	if err := cp.Mark(testEntry("g1", types.NetworkFacebook)); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if err := cp.Mark(testEntry("g2", types.NetworkTwitter)); err != nil {
		t.Fatalf("Mark: %v", err)
	}

	// Reload from disk and verify both entries survive.
	reloaded, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.Done("g1", types.NetworkFacebook, testWindow()) {
		t.Error("g1/facebook should be done after reload")
	}
	if !reloaded.Done("g2", types.NetworkTwitter, testWindow()) {
		t.Error("g2/twitter should be done after reload")
	}
	if reloaded.Done("g1", types.NetworkTwitter, testWindow()) {
		t.Error("g1/twitter was never marked")
	}
	if reloaded.Done("g1", types.NetworkFacebook, types.WriteWindow{Start: "2025-05-01", End: "2025-05-07"}) {
		t.Error("a different window must not match")
	}
}

func TestCheckpointToleratesTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.bin")

	cp, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if err := cp.Mark(testEntry("g1", types.NetworkFacebook)); err != nil {
		t.Fatalf("Mark: %v", err)
	}

	// Simulate a process killed mid-append: a dangling partial frame.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.Write([]byte{0, 0, 0, 200, 1, 2, 3}); err != nil {
		t.Fatalf("append torn frame: %v", err)
	}
	_ = f.Close()

	reloaded, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("reload with torn tail: %v", err)
	}
	if !reloaded.Done("g1", types.NetworkFacebook, testWindow()) {
		t.Error("intact entries before the torn tail should load")
	}
}

func TestNilCheckpointIsInert(t *testing.T) {
	var cp *Checkpoint
	if cp.Done("g1", types.NetworkFacebook, testWindow()) {
		t.Error("nil checkpoint reports work as done")
	}
	if err := cp.Mark(testEntry("g1", types.NetworkFacebook)); err != nil {
		t.Errorf("nil checkpoint Mark: %v", err)
	}
}
