package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/gridsync/gridsync/grid"
	"github.com/gridsync/gridsync/log"
	"github.com/gridsync/gridsync/reconcile"
	"github.com/gridsync/gridsync/source"
	"github.com/gridsync/gridsync/types"
)

// SyncPlan describes what a sync run would touch, without fetching any
// analytics or writing any rows. Built by the plan command.
type SyncPlan struct {
	WindowStart   string      `json:"window_start"`
	WindowEnd     string      `json:"window_end"`
	GroupsTotal   int         `json:"groups_total"`
	ProfilesTotal int         `json:"profiles_total"`
	Groups        []PlanGroup `json:"groups"`
}

// PlanGroup is one group's slice of the plan.
type PlanGroup struct {
	GroupID   string        `json:"group_id"`
	GroupName string        `json:"group_name"`
	Tabs      []string      `json:"tabs"`
	Profiles  []PlanProfile `json:"profiles"`
	// Clears lists the overlap rows a sync would remove per tab. Only
	// populated when the plan was built with a grid store.
	Clears []PlanClear `json:"clears,omitempty"`
}

// PlanProfile is one profile entry in the plan.
type PlanProfile struct {
	ProfileID string `json:"profile_id"`
	Name      string `json:"name"`
	Network   string `json:"network"`
}

// PlanClear is the dry-run reconciliation result for one tab.
type PlanClear struct {
	Tab    string   `json:"tab"`
	Rows   int      `json:"rows"`
	Ranges []string `json:"ranges"` // "start-end", 1-indexed inclusive
}

// PlanConfig wires BuildSyncPlan.
type PlanConfig struct {
	Directory source.ProfileDirectory
	// Store, when set, enables the dry-run reconciliation pass: the plan
	// then reports which existing rows a sync would clear. Resolution may
	// create a missing tab; row contents are never touched.
	Store  grid.Store
	Logger *log.SugaredLogger
}

// BuildSyncPlan lists groups and profiles from the directory and lays out
// the tabs a sync over the window would write. Groups with no profiles are
// kept in the plan with an empty profile list so the operator can spot them.
func BuildSyncPlan(ctx context.Context, cfg PlanConfig, window types.WriteWindow) (*SyncPlan, error) {
	if cfg.Directory == nil {
		return nil, errors.New("plan requires a profile directory")
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	groups, err := cfg.Directory.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	profiles, err := cfg.Directory.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	byGroup := make(map[string][]types.Profile, len(groups))
	for _, p := range profiles {
		byGroup[p.GroupID] = append(byGroup[p.GroupID], p)
	}

	var reconciler *reconcile.Reconciler
	if cfg.Store != nil {
		reconciler = reconcile.New(cfg.Store, cfg.Logger)
	}

	plan := &SyncPlan{
		WindowStart:   window.Start,
		WindowEnd:     window.End,
		GroupsTotal:   len(groups),
		ProfilesTotal: len(profiles),
	}
	for _, g := range groups {
		pg := PlanGroup{GroupID: g.ID, GroupName: g.Name}
		networks := make(map[types.NetworkKind]bool)
		for _, p := range byGroup[g.ID] {
			networks[p.Network] = true
			pg.Profiles = append(pg.Profiles, PlanProfile{
				ProfileID: p.ID,
				Name:      p.Name,
				Network:   string(p.Network),
			})
		}
		// Tabs in the fixed network order, only for networks with profiles.
		for _, kind := range types.AllNetworks() {
			if !networks[kind] {
				continue
			}
			pg.Tabs = append(pg.Tabs, kind.TabTitle())
			if reconciler != nil {
				pc, err := planClear(ctx, cfg.Store, reconciler, g.ID, kind, window)
				if err != nil {
					if cfg.Logger != nil {
						cfg.Logger.Warnf("plan: clear preview skipped: group=%s network=%s err=%v", g.ID, kind, err)
					}
					continue
				}
				pg.Clears = append(pg.Clears, pc)
			}
		}
		plan.Groups = append(plan.Groups, pg)
	}
	return plan, nil
}

// planClear resolves the tab and reports the rows a sync would remove,
// without touching anything.
func planClear(ctx context.Context, store grid.Store, reconciler *reconcile.Reconciler, groupID string, network types.NetworkKind, window types.WriteWindow) (PlanClear, error) {
	dest, err := store.ResolveDestination(ctx, groupID, network)
	if err != nil {
		return PlanClear{}, err
	}
	ranges, err := reconciler.Plan(ctx, dest, window)
	if err != nil {
		return PlanClear{}, err
	}

	pc := PlanClear{Tab: dest.Title}
	for _, rr := range ranges {
		pc.Rows += rr.Len()
		pc.Ranges = append(pc.Ranges, fmt.Sprintf("%d-%d", rr.Start, rr.End))
	}
	return pc, nil
}
