package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"designate/internal/api"
	"designate/pkg/config"
	"designate/pkg/contextmenu"
	"designate/pkg/core"
	"designate/pkg/db"
	"designate/pkg/db/maintenance"
	"designate/pkg/defs"
	"designate/pkg/designator"
	"designate/pkg/host"
	"designate/pkg/keys"
	"designate/pkg/probe"
	"designate/pkg/store"
	"designate/pkg/tracker"
)

// runtime is the wired designator stack shared by serve and play.
type runtime struct {
	cfg        *config.Config
	db         *db.DB
	store      *store.SQLiteStore
	source     *defs.Source
	settings   *config.UnifiedProvider
	host       *host.Host
	loop       *core.Loop
	menus      *contextmenu.Controller
	ctrl       *designator.Controller
	queue      *api.InputQueue
	stats      *tracker.Tracker
	contextKey keys.Key
}

func generateDefs(path string) error {
	if err := defs.GenerateDefault(path); err != nil {
		return fmt.Errorf("failed to generate defs: %w", err)
	}
	return nil
}

func openStore(cfg *config.Config) (*db.DB, *store.SQLiteStore, error) {
	d, err := db.Init(cfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return d, store.NewSQLiteStore(d), nil
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	contextKey, err := keys.Parse(cfg.Hotkeys.ContextAction)
	if err != nil {
		return nil, fmt.Errorf("invalid context action hotkey: %w", err)
	}

	if err := generateDefs(cfg.Defs.Path); err != nil {
		return nil, err
	}
	source, err := defs.Open(cfg.Defs.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}

	d, st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:        cfg,
		db:         d,
		store:      st,
		source:     source,
		settings:   config.NewProvider(cfg, st),
		host:       host.New(),
		loop:       core.NewLoop(time.Duration(cfg.Ticker.Frame), nil),
		queue:      api.NewInputQueue(),
		stats:      tracker.New(),
		contextKey: contextKey,
	}
	rt.queue.SetTracker(rt.stats)
	rt.settings.RegisterTools(source.Database())
	rt.host.SetSelectionLimit(func() int { return rt.settings.SelectionLimit(context.Background()) })

	rt.menus = contextmenu.NewController(nil, rt.settings, rt.host)
	rt.settings.RegisterMenuEntries(rt.menus.HandleKeys())

	rt.ctrl, err = designator.New(designator.Options{
		Defs:         source,
		Settings:     rt.settings,
		Resolver:     rt.host,
		Selector:     rt.host,
		Deferrer:     rt.loop.Later(),
		Surface:      rt.host,
		ContextMenus: rt.menus,
		ContextKey:   contextKey,
		RebuildLog:   st,
	})
	if err != nil {
		d.Close()
		return nil, err
	}

	rt.loop.AddFrameHook(func(context.Context) {
		rt.queue.Drain(rt.ctrl.HandleInput)
	})
	if every := time.Duration(cfg.Ticker.StaleMenuCheck); every > 0 {
		rt.loop.AddJob(rt.menus.StaleCheckJob(rt.ctrl.Registry(), every))
	}

	if err := maintenance.Run(ctx, st, d, cfg.Defs.Path, rt.knownSetting); err != nil {
		slog.Error("Maintenance tasks failed", "error", err)
	}

	rt.ctrl.RequestRebuild()
	return rt, nil
}

func (rt *runtime) knownSetting(key string) bool {
	_, ok := rt.settings.Lookup(key)
	return ok
}

// probes are the startup checks run before the loop starts.
func (rt *runtime) probes() []probe.Probe {
	return []probe.Probe{
		{
			Name:     "Settings store",
			Critical: true,
			Check: func(ctx context.Context) error {
				_, err := rt.store.ListState(ctx, config.ToolPrefix)
				return err
			},
		},
		{
			Name: "Definitions",
			Check: func(context.Context) error {
				res := defs.Validate(rt.source.Database(), rt.contextKey)
				if res.HasErrors() {
					return fmt.Errorf("%d definition errors", len(res.Errors))
				}
				if res.HasWarnings() {
					slog.Warn("Definition warnings", "count", len(res.Warnings), "detail", res.String())
				}
				return nil
			},
		},
	}
}

// reloadDefs runs on the loop thread after the defs file changes.
func (rt *runtime) reloadDefs() {
	if err := rt.source.Reload(); err != nil {
		return
	}
	rt.settings.RegisterTools(rt.source.Database())
	rt.ctrl.DefsChanged()
}

// onDefsFileChanged is the watcher callback. It runs off the loop thread.
func (rt *runtime) onDefsFileChanged() {
	rt.loop.Later().RunOnNextUpdate(rt.reloadDefs)
}

func (rt *runtime) Close() error {
	return rt.db.Close()
}
