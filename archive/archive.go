// Package archive persists raw analytics pages for later replay or audit.
//
// Archiving is best-effort: a failed archive write is logged by callers
// and never fails the sync.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gridsync/gridsync/types"
)

// Archiver stores one raw page per (profile, window) fetch.
type Archiver interface {
	// ArchivePage persists the raw page under a key derived from the run,
	// group, network, profile and window.
	ArchivePage(ctx context.Context, ref PageRef, page []types.RawDataPoint) error
}

// PageRef identifies an archived page.
type PageRef struct {
	RunID     string
	GroupID   string
	Network   types.NetworkKind
	ProfileID string
	Window    types.WriteWindow
}

// Key returns the storage key for the page.
func (r PageRef) Key() string {
	return fmt.Sprintf("%s/%s/%s/%s_%s_%s.json",
		r.RunID, r.GroupID, r.Network, r.ProfileID, r.Window.Start, r.Window.End)
}

// NopArchiver discards every page.
type NopArchiver struct{}

var _ Archiver = NopArchiver{}

func (NopArchiver) ArchivePage(context.Context, PageRef, []types.RawDataPoint) error { return nil }

// DirArchiver writes pages as JSON files under a local directory.
type DirArchiver struct {
	Dir string
}

var _ Archiver = (*DirArchiver)(nil)

// NewDirArchiver creates a DirArchiver rooted at dir.
func NewDirArchiver(dir string) (*DirArchiver, error) {
	if dir == "" {
		return nil, fmt.Errorf("archive dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &DirArchiver{Dir: dir}, nil
}

func (a *DirArchiver) ArchivePage(_ context.Context, ref PageRef, page []types.RawDataPoint) error {
	path := filepath.Join(a.Dir, filepath.FromSlash(ref.Key()))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive subdir: %w", err)
	}
	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	return nil
}
