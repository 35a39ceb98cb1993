package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/syssam/arbgen/compiler"
	"github.com/syssam/arbgen/compiler/gen"
)

// debouncePeriod groups the burst of events an editor save produces.
const debouncePeriod = 300 * time.Millisecond

// watcher reruns generation when a Go file of a watched directory changes.
type watcher struct {
	output string
	period time.Duration
	log    *slog.Logger
	run    func() error

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool

	// running serializes runs; a timer firing during a run waits for it.
	running sync.Mutex
}

// watchPackages runs generation once, then again after every change to the
// packages matched by patterns, until ctx is done.
func watchPackages(ctx context.Context, cfg *gen.Config, patterns []string, run func() error) error {
	log := cfg.Logger
	if err := run(); err != nil {
		log.Error("generation failed", "error", err)
	}
	pkgs, err := compiler.Load(ctx, cfg, patterns...)
	if err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()
	for _, p := range pkgs {
		if p.Dir == "" {
			continue
		}
		if err := fw.Add(p.Dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p.Dir, err)
		}
		log.Info("watching package", "package", p.Path, "dir", p.Dir)
	}
	w := &watcher{output: cfg.Output, period: debouncePeriod, log: log, run: run}
	return w.loop(ctx, fw.Events, fw.Errors)
}

func (w *watcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("watcher detected change", "file", event.Name, "op", event.Op.String())
			w.schedule()
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

// relevant reports whether event touches a Go source file other than the
// generated one.
func (w *watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	return strings.HasSuffix(base, ".go") && !strings.HasSuffix(base, "_test.go") && base != w.output
}

// schedule debounces reruns: the run starts once no event arrived for the
// debounce period.
func (w *watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.period, w.rerun)
}

// rerun runs generation unless the watcher stopped meanwhile.
func (w *watcher) rerun() {
	w.running.Lock()
	defer w.running.Unlock()
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}
	if err := w.run(); err != nil {
		w.log.Error("generation failed", "error", err)
		return
	}
	w.log.Info("regenerated")
}

// stop cancels a pending run and waits for the one in progress.
func (w *watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	w.running.Lock()
	defer w.running.Unlock()
}
