package main

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/prompthub/prompthub/internal"
)

// newTestApp builds an app bound to a temp storage root with mirroring on
// and git sync off.
func newTestApp(t *testing.T) (*app, string) {
	t.Helper()
	dir := t.TempDir()

	cfg := internal.DefaultConfig()
	cfg.StoragePath = filepath.Join(dir, "storage")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &app{
		cfg:     cfg,
		cfgPath: filepath.Join(dir, "config.yaml"),
		logger:  logger,
		store:   internal.NewStore(logger),
	}, cfg.StoragePath
}

func runCmd(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test", a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}
