package runtime

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/gridsync/gridsync/types"
)

// Checkpoint framing constants. Entries are 4-byte big-endian
// length-prefixed msgpack payloads appended to a single log file.
const (
	// MaxEntrySize is the maximum checkpoint entry payload (1 MiB).
	MaxEntrySize = 1 * 1024 * 1024
	// lengthPrefixSize is the size of the length prefix in bytes.
	lengthPrefixSize = 4
)

// CheckpointEntry records one (group, network, window) write that
// completed. A later run with --resume skips entries already present.
type CheckpointEntry struct {
	RunID       string `msgpack:"run_id"`
	GroupID     string `msgpack:"group_id"`
	Network     string `msgpack:"network"`
	WindowStart string `msgpack:"window_start"`
	WindowEnd   string `msgpack:"window_end"`
	CompletedAt string `msgpack:"completed_at"` // ISO 8601
}

// Key identifies the logical unit of work, independent of the run that
// completed it.
func (e CheckpointEntry) Key() string {
	return e.GroupID + "|" + e.Network + "|" + e.WindowStart + "|" + e.WindowEnd
}

// Checkpoint is an append-only completion log. Load tolerates a missing
// file; a truncated trailing entry is dropped rather than failing the run.
type Checkpoint struct {
	path string
	done map[string]struct{}
}

// LoadCheckpoint opens (or initializes) the checkpoint log at path.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	c := &Checkpoint{path: path, done: make(map[string]struct{})}
	if path == "" {
		return nil, errors.New("checkpoint path must not be empty")
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer func() { _ = f.Close() }()

	for {
		entry, err := readEntry(f)
		if err == io.EOF {
			break
		}
		if err != nil {
			// A torn tail from a killed process is expected; everything
			// before it is still valid.
			break
		}
		c.done[entry.Key()] = struct{}{}
	}
	return c, nil
}

// Done reports whether a (group, network, window) write already completed.
func (c *Checkpoint) Done(groupID string, network types.NetworkKind, window types.WriteWindow) bool {
	if c == nil {
		return false
	}
	entry := CheckpointEntry{
		GroupID:     groupID,
		Network:     string(network),
		WindowStart: window.Start,
		WindowEnd:   window.End,
	}
	_, ok := c.done[entry.Key()]
	return ok
}

// Mark appends a completion entry and records it in memory.
func (c *Checkpoint) Mark(entry CheckpointEntry) error {
	if c == nil {
		return nil
	}

	payload, err := msgpack.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode checkpoint entry: %w", err)
	}
	if len(payload) > MaxEntrySize {
		return fmt.Errorf("checkpoint entry size %d exceeds maximum %d", len(payload), MaxEntrySize)
	}

	frame := make([]byte, lengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(frame[:lengthPrefixSize], uint32(len(payload)))
	copy(frame[lengthPrefixSize:], payload)

	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open checkpoint for append: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(frame); err != nil {
		return fmt.Errorf("append checkpoint entry: %w", err)
	}

	c.done[entry.Key()] = struct{}{}
	return nil
}

// readEntry reads one length-prefixed msgpack entry from the stream.
func readEntry(r io.Reader) (*CheckpointEntry, error) {
	var lengthBuf [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read length prefix: %w", err)
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxEntrySize {
		return nil, fmt.Errorf("entry size %d exceeds maximum %d", payloadSize, MaxEntrySize)
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	var entry CheckpointEntry
	if err := msgpack.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}
	return &entry, nil
}
