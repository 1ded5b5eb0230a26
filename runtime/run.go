package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gridsync/gridsync/archive"
	"github.com/gridsync/gridsync/format"
	"github.com/gridsync/gridsync/grid"
	"github.com/gridsync/gridsync/log"
	"github.com/gridsync/gridsync/metrics"
	"github.com/gridsync/gridsync/normalize"
	"github.com/gridsync/gridsync/reconcile"
	"github.com/gridsync/gridsync/source"
	"github.com/gridsync/gridsync/types"
	"github.com/gridsync/gridsync/writer"
)

// Pacing defaults. Both delays protect external quotas and are applied
// even when a group or profile fails.
const (
	// DefaultInterGroupDelay is the mandatory pause between groups.
	DefaultInterGroupDelay = 30 * time.Second
	// DefaultInterProfileDelay is the pause between profile fetches.
	DefaultInterProfileDelay = 2 * time.Second
)

// Config wires an Orchestrator.
type Config struct {
	Source    source.AnalyticsSource
	Directory source.ProfileDirectory
	Store     grid.Store

	// MetricKeys optionally narrows the metric projection per network.
	// Networks without an entry let the server choose defaults.
	MetricKeys map[types.NetworkKind][]string

	// Archiver stores raw pages. Nil means no archiving.
	Archiver archive.Archiver
	// Checkpoint, when set, skips (group, network, window) units that
	// already completed and records new completions.
	Checkpoint *Checkpoint

	Collector *metrics.Collector
	Logger    *log.SugaredLogger
	RunMeta   *types.RunMeta

	// Retry is the fetch/write retry policy. Nil uses defaults.
	Retry *source.RetryPolicy
	// Throttle is the shared write throttle. Nil uses defaults.
	Throttle *writer.Throttle

	InterGroupDelay   time.Duration
	InterProfileDelay time.Duration
	// SleepFn is the pacing sleep, injectable for tests.
	SleepFn source.SleepFunc
}

// Orchestrator runs the sync pipeline group by group, sequentially.
// There is no parallel fan-out: the upstream quota and the sink write
// quota are both global, so concurrency would only multiply throttling
// conflicts.
type Orchestrator struct {
	cfg        Config
	normalizer *normalize.Normalizer
	reconciler *reconcile.Reconciler
	batch      *writer.BatchWriter
	sleep      source.SleepFunc
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Source == nil {
		return nil, errors.New("orchestrator requires an analytics source")
	}
	if cfg.Directory == nil {
		return nil, errors.New("orchestrator requires a profile directory")
	}
	if cfg.Store == nil {
		return nil, errors.New("orchestrator requires a grid store")
	}
	if cfg.RunMeta == nil {
		cfg.RunMeta = types.NewRunMeta()
	}
	if cfg.Archiver == nil {
		cfg.Archiver = archive.NopArchiver{}
	}
	if cfg.InterGroupDelay <= 0 {
		cfg.InterGroupDelay = DefaultInterGroupDelay
	}
	if cfg.InterProfileDelay <= 0 {
		cfg.InterProfileDelay = DefaultInterProfileDelay
	}
	sleep := cfg.SleepFn
	if sleep == nil {
		sleep = source.Sleep
	}

	batch := writer.NewBatchWriter(cfg.Store, cfg.Throttle, cfg.Retry, cfg.Logger)
	batch.OnCapacityGrow = cfg.Collector.IncCapacityGrow

	return &Orchestrator{
		cfg:        cfg,
		normalizer: normalize.New(cfg.Logger),
		reconciler: reconcile.New(cfg.Store, cfg.Logger),
		batch:      batch,
		sleep:      sleep,
	}, nil
}

// Run executes one sync over the window. A group's failure never crosses
// the group boundary: it becomes an error status in the result while the
// remaining groups proceed. Only directory listing failures abort the run.
func (o *Orchestrator) Run(ctx context.Context, window types.WriteWindow) (*SyncResult, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()

	groups, err := o.cfg.Directory.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	profiles, err := o.cfg.Directory.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	byGroup := make(map[string][]types.Profile)
	for _, p := range profiles {
		byGroup[p.GroupID] = append(byGroup[p.GroupID], p)
	}

	result := &SyncResult{
		RunMeta: o.cfg.RunMeta,
		Window:  window,
		Groups:  make([]types.GroupResult, 0, len(groups)),
	}

	for i, group := range groups {
		gr := o.syncGroup(ctx, group, byGroup[group.ID], window)
		result.Groups = append(result.Groups, gr)
		for _, n := range gr.Networks {
			result.RowsWritten += int64(n.RowsWritten)
			result.RowsCleared += int64(n.RowsCleared)
		}

		switch gr.Status {
		case types.GroupCompleted:
			o.cfg.Collector.IncGroupCompleted()
		case types.GroupNoData:
			o.cfg.Collector.IncGroupNoData()
		case types.GroupError:
			o.cfg.Collector.IncGroupFailed()
		}

		// The inter-group pause is mandatory even after a failure; skipping
		// it would burn the quota headroom the next group depends on.
		if i < len(groups)-1 {
			if err := o.sleep(ctx, o.cfg.InterGroupDelay); err != nil {
				result.Duration = time.Since(started)
				return result, fmt.Errorf("canceled between groups: %w", err)
			}
		}
	}

	result.Duration = time.Since(started)
	return result, nil
}

// syncGroup processes one group. Never returns an error: failures are
// folded into the group result.
func (o *Orchestrator) syncGroup(ctx context.Context, group types.Group, profiles []types.Profile, window types.WriteWindow) types.GroupResult {
	gr := types.GroupResult{GroupID: group.ID, GroupName: group.Name}
	if o.cfg.Logger != nil {
		o.cfg.Logger.Infof("syncing group %s (%s): %d profiles, window %s",
			group.ID, group.Name, len(profiles), window)
	}

	if len(profiles) == 0 {
		gr.Status = types.GroupNoData
		gr.Message = "no profiles in group"
		return gr
	}

	byNetwork := make(map[types.NetworkKind][]types.Profile)
	for _, p := range profiles {
		byNetwork[p.Network] = append(byNetwork[p.Network], p)
	}

	for _, network := range types.AllNetworks() {
		networkProfiles, ok := byNetwork[network]
		if !ok {
			continue
		}
		outcome := o.syncNetwork(ctx, group, network, networkProfiles, window)
		gr.Networks = append(gr.Networks, outcome)
	}

	gr.Status = types.DeriveGroupStatus(gr.Networks)
	if gr.Status == types.GroupError {
		for _, n := range gr.Networks {
			if n.Status == types.NetworkFailed {
				gr.Message = fmt.Sprintf("%s: %s", n.Network, n.Message)
				break
			}
		}
	}
	return gr
}

// syncNetwork runs the fetch-normalize-format-reconcile-write pipeline for
// one network tab of one group.
func (o *Orchestrator) syncNetwork(ctx context.Context, group types.Group, network types.NetworkKind, profiles []types.Profile, window types.WriteWindow) types.NetworkOutcome {
	outcome := types.NetworkOutcome{Network: network}

	if o.cfg.Checkpoint.Done(group.ID, network, window) {
		outcome.Status = types.NetworkCompleted
		outcome.Message = "already completed, skipped"
		return outcome
	}

	formatter, err := format.ForNetwork(network)
	if err != nil {
		outcome.Status = types.NetworkFailed
		outcome.Message = err.Error()
		return outcome
	}

	rows := o.fetchAndFormat(ctx, group, formatter, profiles, window)
	if len(rows) == 0 {
		outcome.Status = types.NetworkNoData
		outcome.Message = "no data in window"
		return outcome
	}

	dest, err := o.cfg.Store.ResolveDestination(ctx, group.ID, network)
	if err != nil {
		outcome.Status = types.NetworkFailed
		outcome.Message = fmt.Sprintf("resolve destination: %v", err)
		return outcome
	}

	cleared, err := o.reconciler.Reconcile(ctx, dest, window)
	if err != nil {
		outcome.Status = types.NetworkFailed
		outcome.Message = fmt.Sprintf("reconcile: %v", err)
		return outcome
	}
	outcome.RowsCleared = cleared
	o.cfg.Collector.AddRowsCleared(cleared)

	written, err := o.batch.Write(ctx, dest, formatter.Headers(), rows)
	if err != nil {
		o.cfg.Collector.IncWriteFailure()
		outcome.Status = types.NetworkFailed
		outcome.Message = fmt.Sprintf("write: %v", err)
		return outcome
	}
	outcome.RowsWritten = written
	o.cfg.Collector.AddRowsWritten(written)

	outcome.Status = types.NetworkCompleted
	if err := o.markDone(group.ID, network, window); err != nil && o.cfg.Logger != nil {
		o.cfg.Logger.Warnf("checkpoint append failed: %v", err)
	}
	return outcome
}

// fetchAndFormat fetches every profile of a network sequentially, archives
// the raw pages, normalizes and formats them. Individual fetch failures
// are logged and skipped; only what was fetched gets written.
func (o *Orchestrator) fetchAndFormat(ctx context.Context, group types.Group, formatter format.Formatter, profiles []types.Profile, window types.WriteWindow) []types.Row {
	var rows []types.Row

	for i, profile := range profiles {
		if i > 0 {
			if err := o.sleep(ctx, o.cfg.InterProfileDelay); err != nil {
				return rows
			}
		}

		o.cfg.Collector.IncFetchCall()
		page, err := o.cfg.Source.Query(ctx, source.Query{
			ProfileID: profile.ID,
			Window:    window,
			Metrics:   o.cfg.MetricKeys[formatter.Network()],
		})
		if err != nil {
			if source.IsExhausted(err) {
				o.cfg.Collector.IncFetchExhausted()
			}
			if o.cfg.Logger != nil {
				o.cfg.Logger.Warnf("fetch failed for profile %s, skipping: %v", profile.ID, err)
			}
			continue
		}
		o.cfg.Collector.AddPointsFetched(len(page))
		if len(page) == 0 {
			continue
		}

		ref := archive.PageRef{
			RunID:     o.cfg.RunMeta.RunID,
			GroupID:   group.ID,
			Network:   formatter.Network(),
			ProfileID: profile.ID,
			Window:    window,
		}
		if err := o.cfg.Archiver.ArchivePage(ctx, ref, page); err != nil && o.cfg.Logger != nil {
			o.cfg.Logger.Warnf("archive failed for %s: %v", ref.Key(), err)
		}

		records, skipped := o.normalizer.Normalize(page)
		o.cfg.Collector.AddRecordsNormalized(len(records))
		o.cfg.Collector.AddRecordsSkipped(skipped)
		o.cfg.Collector.AddRecordsDeduped(len(page) - len(records) - skipped)

		formatted := format.Rows(formatter, records, profile.Meta(), o.cfg.Logger)
		o.cfg.Collector.AddRowsFormatted(len(formatted))
		for n := len(records) - len(formatted); n > 0; n-- {
			o.cfg.Collector.IncRowDropped(string(formatter.Network()))
		}
		rows = append(rows, formatted...)
	}
	return rows
}

func (o *Orchestrator) markDone(groupID string, network types.NetworkKind, window types.WriteWindow) error {
	if o.cfg.Checkpoint == nil {
		return nil
	}
	return o.cfg.Checkpoint.Mark(CheckpointEntry{
		RunID:       o.cfg.RunMeta.RunID,
		GroupID:     groupID,
		Network:     string(network),
		WindowStart: window.Start,
		WindowEnd:   window.End,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
