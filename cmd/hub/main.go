package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/prompthub/prompthub/internal"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hub: %v\n", err)
		os.Exit(1)
	}

	rootCmd := NewRootCmd(version, app)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg     *internal.Config
	cfgPath string
	logger  *slog.Logger
	store   *internal.Store
}

func newApp() (*app, error) {
	cfgPath := internal.DefaultConfigPath()
	cfg, err := internal.LoadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Git.DebugLog {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return &app{
		cfg:     cfg,
		cfgPath: cfgPath,
		logger:  logger,
		store:   internal.NewStore(logger),
	}, nil
}

func (a *app) saveConfig() error {
	return internal.SaveConfig(a.cfgPath, a.cfg)
}

// openStore resolves the configured storage root and loads the record
// store. Idempotent across commands in the same invocation.
func (a *app) openStore() (*internal.Store, error) {
	root := a.cfg.ResolveStoragePath()
	if err := a.store.Initialize(root); err != nil {
		return nil, fmt.Errorf("open store at %s: %w", root, err)
	}
	return a.store, nil
}

func (a *app) reconciler() *internal.Reconciler {
	return internal.NewReconciler(a.store, a.cfg.Mirror.Enabled, a.logger)
}

func (a *app) syncer() *internal.Syncer {
	return internal.NewSyncer(a.cfg.ResolveStoragePath(), a.logger)
}
