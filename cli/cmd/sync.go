package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gridsync/gridsync/adapter"
	"github.com/gridsync/gridsync/adapter/redis"
	"github.com/gridsync/gridsync/adapter/webhook"
	"github.com/gridsync/gridsync/archive"
	"github.com/gridsync/gridsync/cli/config"
	"github.com/gridsync/gridsync/cli/render"
	"github.com/gridsync/gridsync/grid"
	"github.com/gridsync/gridsync/iox"
	"github.com/gridsync/gridsync/log"
	"github.com/gridsync/gridsync/metrics"
	"github.com/gridsync/gridsync/runtime"
	"github.com/gridsync/gridsync/source"
	"github.com/gridsync/gridsync/types"
	"github.com/gridsync/gridsync/writer"
)

// Exit codes for sync.
const (
	exitSuccess = 0
	exitFailure = 1
	exitConfig  = 2
	exitPartial = 3
)

// SyncCommand returns the sync command, the only command that writes to
// destination spreadsheets.
func SyncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Fetch analytics for the window and rewrite destination tabs",
		Flags: []cli.Flag{
			ConfigFlag,
			FormatFlag,
			StartFlag,
			EndFlag,
			&cli.StringFlag{
				Name:  "run-id",
				Usage: "Run ID (default: fresh UUID)",
			},
			&cli.IntFlag{
				Name:  "attempt",
				Usage: "Attempt number (starts at 1)",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "job-id",
				Usage: "Scheduler job ID (optional)",
			},
			&cli.StringFlag{
				Name:  "checkpoint",
				Usage: "Checkpoint file path (overrides config)",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Report file path, or - for stderr (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress report output",
			},
		},
		Action: syncAction,
	}
}

func syncAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfig)
	}
	if cfg.API.BaseURL == "" {
		return cli.Exit("api.base_url is required (set it in the config file)", exitConfig)
	}

	runMeta := buildRunMeta(c)
	if err := runMeta.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("invalid run metadata: %v", err), exitConfig)
	}

	logger := log.NewLogger(runMeta)
	sugar := logger.Sugar()

	window, err := resolveWindow(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfig)
	}

	jobID := ""
	if runMeta.JobID != nil {
		jobID = *runMeta.JobID
	}
	collector := metrics.NewCollector(runMeta.RunID, jobID)

	retry := buildRetryPolicy(cfg.Retry)
	client, err := source.NewClient(source.ClientConfig{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: iox.NewBearerClient(cfg.API.Token, source.DefaultTimeout),
		Retry:      fetchPolicy(retry, collector),
		Logger:     sugar,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("analytics client: %v", err), exitConfig)
	}

	store, err := grid.NewSheetsStore(grid.SheetsConfig{
		BaseURL:      cfg.Sheets.BaseURL,
		HTTPClient:   iox.NewBearerClient(cfg.Sheets.Token, source.DefaultTimeout),
		Spreadsheets: cfg.Sheets.Spreadsheets,
		Logger:       sugar,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("sheets store: %v", err), exitConfig)
	}

	// Signal handling: a SIGTERM mid-run cancels cleanly; the checkpoint
	// keeps already-completed units from being redone on the next attempt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	archiver, err := buildArchiver(ctx, cfg.Archive)
	if err != nil {
		return cli.Exit(fmt.Sprintf("archive: %v", err), exitConfig)
	}

	checkpointPath := c.String("checkpoint")
	if checkpointPath == "" {
		checkpointPath = cfg.Checkpoint
	}
	checkpoint, err := runtime.LoadCheckpoint(checkpointPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("checkpoint: %v", err), exitConfig)
	}

	metricKeys, err := parseMetricKeys(cfg.Metrics)
	if err != nil {
		return cli.Exit(err.Error(), exitConfig)
	}

	orchestrator, err := runtime.New(runtime.Config{
		Source:     client,
		Directory:  client,
		Store:      store,
		MetricKeys: metricKeys,
		Archiver:   archiver,
		Checkpoint: checkpoint,
		Collector:  collector,
		Logger:     sugar,
		RunMeta:    runMeta,
		Retry:      retry,
		Throttle:   writer.NewThrottle(cfg.Pacing.WriteSpacing.Duration),

		InterGroupDelay:   cfg.Pacing.InterGroupDelay.Duration,
		InterProfileDelay: cfg.Pacing.InterProfileDelay.Duration,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("orchestrator: %v", err), exitConfig)
	}

	watchdog := runtime.NewWatchdog(cfg.Watchdog.Duration, sugar)
	stopWatchdog := watchdog.Start(ctx)
	defer stopWatchdog()

	result, err := orchestrator.Run(ctx, window)
	if err != nil {
		return cli.Exit(fmt.Sprintf("sync failed: %v", err), exitFailure)
	}

	exitCode := result.ExitCode()
	report := runtime.BuildSyncReport(result, collector.Snapshot(), exitCode)

	reportPath := c.String("report")
	if reportPath == "" {
		reportPath = cfg.Report
	}
	if reportPath != "" {
		if err := runtime.WriteSyncReport(report, reportPath); err != nil {
			sugar.Errorf("report write failed: %v", err)
		}
	}

	publishCompletion(ctx, cfg.Adapter, report, sugar)

	if !c.Bool("quiet") {
		r, err := render.NewRenderer(c)
		if err != nil {
			return cli.Exit(err.Error(), exitConfig)
		}
		if err := r.Render(report); err != nil {
			sugar.Errorf("render failed: %v", err)
		}
	}

	return cli.Exit("", exitCode)
}

// loadConfig reads the --config file when given, otherwise returns an
// empty config so flag-only invocations still work.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

func buildRunMeta(c *cli.Context) *types.RunMeta {
	runMeta := types.NewRunMeta()
	if runID := c.String("run-id"); runID != "" {
		runMeta.RunID = runID
	}
	if attempt := c.Int("attempt"); attempt > 0 {
		runMeta.Attempt = attempt
	}
	if jobID := c.String("job-id"); jobID != "" {
		runMeta.JobID = &jobID
	}
	return runMeta
}

// resolveWindow builds the sync window from --start/--end, defaulting
// both bounds to yesterday.
func resolveWindow(c *cli.Context) (types.WriteWindow, error) {
	window := types.YesterdayWindow(time.Now())
	if start := c.String("start"); start != "" {
		window.Start = start
	}
	if end := c.String("end"); end != "" {
		window.End = end
	}
	// A lone --start extends the window to yesterday; a lone --end pulls
	// the start back to match so a single flag never inverts the window.
	if c.String("end") != "" && c.String("start") == "" {
		window.Start = window.End
	}
	if err := window.Validate(); err != nil {
		return types.WriteWindow{}, err
	}
	return window, nil
}

// fetchPolicy copies the retry policy with an observer feeding the fetch
// retry counter, so the report reflects upstream backoffs. Only the
// fetch client gets the observer; write retries are not fetch retries.
func fetchPolicy(retry *source.RetryPolicy, collector *metrics.Collector) *source.RetryPolicy {
	p := *retry
	p.OnRetry = func(string, int, error) { collector.IncFetchRetry() }
	return &p
}

func buildRetryPolicy(cfg config.RetryConfig) *source.RetryPolicy {
	retry := source.NewRetryPolicy()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.AuthAttempts > 0 {
		retry.AuthAttempts = cfg.AuthAttempts
	}
	if cfg.Base.Duration > 0 {
		retry.Base = cfg.Base.Duration
	}
	return retry
}

func buildArchiver(ctx context.Context, cfg config.ArchiveConfig) (archive.Archiver, error) {
	switch cfg.Backend {
	case "", "none":
		return archive.NopArchiver{}, nil
	case "dir":
		return archive.NewDirArchiver(cfg.Dir)
	case "s3":
		return archive.NewS3Archiver(ctx, archive.S3Config{
			Bucket:       cfg.Bucket,
			Prefix:       cfg.Prefix,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown archive backend: %s", cfg.Backend)
	}
}

// buildAdapter constructs the completion-event adapter, or nil when none
// is configured.
func buildAdapter(cfg config.AdapterConfig) (adapter.Adapter, error) {
	retries := -1
	if cfg.Retries != nil {
		retries = *cfg.Retries
	}

	switch cfg.Type {
	case "":
		return nil, nil
	case "webhook":
		wcfg := webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
		}
		if retries >= 0 {
			wcfg.Retries = retries
		} else {
			wcfg.Retries = webhook.DefaultRetries
		}
		return webhook.New(wcfg)
	case "redis":
		rcfg := redis.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
		}
		if retries >= 0 {
			rcfg.Retries = retries
		} else {
			rcfg.Retries = redis.DefaultRetries
		}
		return redis.New(rcfg)
	default:
		return nil, fmt.Errorf("unknown adapter type: %s", cfg.Type)
	}
}

// publishCompletion sends the sync_completed event. Publishing is
// best-effort: a dead event bus must not fail a sync that wrote rows.
func publishCompletion(ctx context.Context, cfg config.AdapterConfig, report *runtime.SyncReport, sugar *log.SugaredLogger) {
	bus, err := buildAdapter(cfg)
	if err != nil {
		sugar.Errorf("adapter setup failed: %v", err)
		return
	}
	if bus == nil {
		return
	}
	defer iox.DiscardClose(bus)

	event := completionEvent(report)
	if err := bus.Publish(ctx, event); err != nil {
		sugar.Warnf("completion event publish failed: %v", err)
	}
}

func completionEvent(report *runtime.SyncReport) *adapter.SyncCompletedEvent {
	return &adapter.SyncCompletedEvent{
		EventType:    "sync_completed",
		RunID:        report.RunID,
		WindowStart:  report.WindowStart,
		WindowEnd:    report.WindowEnd,
		GroupsTotal:  report.GroupsTotal,
		GroupsOK:     report.GroupsOK,
		GroupsNoData: report.GroupsNoData,
		GroupsFailed: report.GroupsFailed,
		RowsWritten:  report.RowsWritten,
		RowsCleared:  report.RowsCleared,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		JobID:        report.JobID,
		Attempt:      report.Attempt,
		DurationMs:   report.DurationMs,
	}
}

// parseMetricKeys converts the config metric overrides to typed network
// keys, rejecting unknown network names early.
func parseMetricKeys(raw map[string][]string) (map[types.NetworkKind][]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[types.NetworkKind][]string, len(raw))
	for name, keys := range raw {
		kind, err := types.ParseNetwork(name)
		if err != nil {
			return nil, fmt.Errorf("metrics config: %w", err)
		}
		out[kind] = keys
	}
	return out, nil
}
