// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls a config file and its profile overlay and reloads the
// configuration when either changes on disk.
type Watcher struct {
	path     string
	profile  string
	interval time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	current   *Config
	seen      map[string]fileStamp
	listeners []func(*Config)

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

type fileStamp struct {
	mod  time.Time
	size int64
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatchInterval sets the polling interval. Non-positive values are ignored.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithWatchLogger sets the logger used for reload events.
func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// NewWatcher loads the configuration at path and prepares to watch it.
func NewWatcher(path, profile string, opts ...WatcherOption) (*Watcher, error) {
	cfg, err := LoadWithProfile(path, profile)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:     path,
		profile:  profile,
		interval: time.Second,
		logger:   slog.Default(),
		current:  cfg,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.seen = w.stamps()
	return w, nil
}

// OnChange registers fn to run after every successful reload.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// Config returns the most recently loaded configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start polls in the background until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
				if w.changed() {
					w.reload()
				}
			}
		}
	}()
}

// Stop ends polling and waits for the poller to exit. Start must have been called.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

// stamps records the modification time and size of every watched file that exists.
func (w *Watcher) stamps() map[string]fileStamp {
	out := make(map[string]fileStamp, 2)
	if w.path == "" {
		return out
	}
	files := []string{w.path}
	if w.profile != "" {
		files = append(files, profileConfigPath(w.path, w.profile))
	}
	for _, f := range files {
		if info, err := os.Stat(f); err == nil {
			out[f] = fileStamp{mod: info.ModTime(), size: info.Size()}
		}
	}
	return out
}

func (w *Watcher) changed() bool {
	now := w.stamps()

	w.mu.Lock()
	defer w.mu.Unlock()
	diff := len(now) != len(w.seen)
	for f, s := range now {
		if prev, ok := w.seen[f]; !ok || prev != s {
			diff = true
		}
	}
	w.seen = now
	return diff
}

func (w *Watcher) reload() {
	cfg, err := LoadWithProfile(w.path, w.profile)
	if err != nil {
		w.logger.Error("config.reload.error", slog.String("path", w.path), slog.String("error", err.Error()))
		return
	}

	w.mu.Lock()
	w.current = cfg
	listeners := append(([]func(*Config))(nil), w.listeners...)
	w.mu.Unlock()

	w.logger.Info("config.reload.complete", slog.String("path", w.path), slog.String("profile", w.profile))
	for _, fn := range listeners {
		fn(cfg)
	}
}
