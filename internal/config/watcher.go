// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/tetsu-tui/internal/log"
)

// reloadDebounce coalesces editor write bursts into one reload.
const reloadDebounce = 250 * time.Millisecond

// =============================================================================
// WATCHER
// =============================================================================

// Watcher reloads the configuration file when it changes and delivers
// each valid new configuration to its channel. Invalid intermediate
// states are logged and skipped, keeping the last good configuration in
// effect.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	updates chan *Config
	cancel  context.CancelFunc
}

// Watch starts watching the configuration file at path. The parent
// directory is watched so the file may not exist yet and atomic
// rename-style saves are still seen.
func Watch(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:    path,
		watcher: fsw,
		updates: make(chan *Config, 1),
		cancel:  cancel,
	}
	go w.run(ctx)
	return w, nil
}

// Updates delivers each successfully reloaded configuration.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				timerC = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			cfg, err := LoadFrom(w.path)
			if err != nil {
				log.Warn("config: reload skipped: %v", err)
				continue
			}
			select {
			case w.updates <- cfg:
			default:
				// Replace a stale pending update with the newest.
				select {
				case <-w.updates:
				default:
				}
				w.updates <- cfg
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("config: watch error: %v", err)
		}
	}
}
