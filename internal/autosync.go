package internal

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// AutoSync schedules a sync run after a quiet period. Every qualifying save
// resets the single timer; runs never overlap, and results are reported
// through the callback instead of blocking the caller.
type AutoSync struct {
	delay    time.Duration
	run      func(context.Context) error
	onResult func(error)
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool

	runMu sync.Mutex
}

func NewAutoSync(delay time.Duration, run func(context.Context) error, onResult func(error), logger *slog.Logger) *AutoSync {
	if logger == nil {
		logger = slog.Default()
	}
	if onResult == nil {
		onResult = func(error) {}
	}
	return &AutoSync{delay: delay, run: run, onResult: onResult, logger: logger}
}

// Schedule restarts the debounce timer. The pending run, if any, is pushed
// back by the full delay.
func (a *AutoSync) Schedule() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if a.timer == nil {
		a.timer = time.AfterFunc(a.delay, a.fire)
		return
	}
	a.timer.Reset(a.delay)
}

// Stop cancels any pending run. A run already in flight finishes.
func (a *AutoSync) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
	}
}

// Flush runs a pending sync immediately instead of waiting out the delay.
// No-op when nothing is scheduled.
func (a *AutoSync) Flush() {
	a.mu.Lock()
	pending := a.timer != nil && a.timer.Stop()
	a.mu.Unlock()
	if pending {
		a.fire()
	}
}

func (a *AutoSync) fire() {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	a.logger.Debug("auto-sync run starting")
	err := a.run(context.Background())
	if err != nil {
		a.logger.Warn("auto-sync failed", "error", err)
	}
	a.onResult(err)
}
