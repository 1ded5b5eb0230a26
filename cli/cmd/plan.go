package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/gridsync/gridsync/cli/render"
	"github.com/gridsync/gridsync/grid"
	"github.com/gridsync/gridsync/iox"
	"github.com/gridsync/gridsync/log"
	"github.com/gridsync/gridsync/runtime"
	"github.com/gridsync/gridsync/source"
	"github.com/gridsync/gridsync/types"
)

// PlanCommand returns the plan command: a read-only dry run listing the
// groups, profiles, and tabs a sync over the window would touch.
func PlanCommand() *cli.Command {
	return &cli.Command{
		Name:   "plan",
		Usage:  "Show what a sync would touch without fetching or writing",
		Flags:  append(ReadOnlyFlags(), StartFlag, EndFlag),
		Action: planAction,
	}
}

func planAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfig)
	}
	if cfg.API.BaseURL == "" {
		return cli.Exit("api.base_url is required (set it in the config file)", exitConfig)
	}

	window, err := resolveWindow(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfig)
	}

	runMeta := types.NewRunMeta()
	sugar := log.NewLogger(runMeta).Sugar()

	client, err := source.NewClient(source.ClientConfig{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: iox.NewBearerClient(cfg.API.Token, source.DefaultTimeout),
		Logger:     sugar,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("analytics client: %v", err), exitConfig)
	}

	planCfg := runtime.PlanConfig{Directory: client, Logger: sugar}
	// With a sheets mapping the plan also previews which rows a sync
	// would clear; without one it stays a pure directory listing.
	if len(cfg.Sheets.Spreadsheets) > 0 {
		store, err := grid.NewSheetsStore(grid.SheetsConfig{
			BaseURL:      cfg.Sheets.BaseURL,
			HTTPClient:   iox.NewBearerClient(cfg.Sheets.Token, source.DefaultTimeout),
			Spreadsheets: cfg.Sheets.Spreadsheets,
			Logger:       sugar,
		})
		if err != nil {
			return cli.Exit(fmt.Sprintf("sheets store: %v", err), exitConfig)
		}
		planCfg.Store = store
	}

	plan, err := runtime.BuildSyncPlan(context.Background(), planCfg, window)
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return r.RenderTUI("plan", plan)
	}
	return r.Render(plan)
}
