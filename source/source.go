package source

import (
	"context"
	"sync"

	"github.com/gridsync/gridsync/types"
)

// Query is one analytics request: a profile, an inclusive date window and
// an optional metric key list. When Metrics is empty the server chooses
// its defaults.
type Query struct {
	ProfileID string
	Window    types.WriteWindow
	Metrics   []string
}

// AnalyticsSource fetches raw analytics pages from the upstream provider.
//
// Implementations never panic on ordinary failures: after exhausting
// retries they return a nil slice with an ErrExhausted-wrapped error so the
// orchestrator can skip the sub-request and continue the run.
type AnalyticsSource interface {
	// Query fetches data points for one profile and window.
	// An empty slice with nil error means "the provider has no data here".
	Query(ctx context.Context, q Query) ([]types.RawDataPoint, error)
}

// ProfileDirectory lists the customer groups and social profiles the run
// iterates. The directory is external; the orchestrator only consumes the
// resulting group-to-profiles mapping.
type ProfileDirectory interface {
	ListGroups(ctx context.Context) ([]types.Group, error)
	ListProfiles(ctx context.Context) ([]types.Profile, error)
}

// StubSource is a test source serving canned responses per profile ID.
// Safe for concurrent use; records every query for assertions.
type StubSource struct {
	mu sync.Mutex

	// Pages maps profile ID to the data points to serve.
	Pages map[string][]types.RawDataPoint
	// Errs maps profile ID to an error to return instead of data.
	Errs map[string]error
	// Queries records every Query received, in order.
	Queries []Query
}

// NewStubSource creates an empty stub source.
func NewStubSource() *StubSource {
	return &StubSource{
		Pages: make(map[string][]types.RawDataPoint),
		Errs:  make(map[string]error),
	}
}

// Query implements AnalyticsSource.
func (s *StubSource) Query(_ context.Context, q Query) ([]types.RawDataPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Queries = append(s.Queries, q)
	if err, ok := s.Errs[q.ProfileID]; ok {
		return nil, err
	}
	return s.Pages[q.ProfileID], nil
}

// StubDirectory is a test directory serving fixed groups and profiles.
type StubDirectory struct {
	Groups   []types.Group
	Profiles []types.Profile
	// GroupsErr and ProfilesErr, when set, are returned instead of data.
	GroupsErr   error
	ProfilesErr error
}

// ListGroups implements ProfileDirectory.
func (d *StubDirectory) ListGroups(_ context.Context) ([]types.Group, error) {
	if d.GroupsErr != nil {
		return nil, d.GroupsErr
	}
	return d.Groups, nil
}

// ListProfiles implements ProfileDirectory.
func (d *StubDirectory) ListProfiles(_ context.Context) ([]types.Profile, error) {
	if d.ProfilesErr != nil {
		return nil, d.ProfilesErr
	}
	return d.Profiles, nil
}

// Verify interface conformance.
var (
	_ AnalyticsSource  = (*StubSource)(nil)
	_ ProfileDirectory = (*StubDirectory)(nil)
)
