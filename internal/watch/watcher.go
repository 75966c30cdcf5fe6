// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is used when New is given a non-positive debounce.
const DefaultDebounce = 250 * time.Millisecond

// Change is one debounced modification of the watched file.
type Change struct {
	Path string
	Time time.Time

	// Removed is true when the file no longer exists after the burst
	Removed bool
}

// =============================================================================
// WATCHER
// =============================================================================

// Watcher watches a single file.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger
	changes  chan Change

	mu      sync.Mutex
	pending time.Time // last raw event; zero when nothing is pending
	paused  int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// New starts watching path.
func New(path string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:     abs,
		watcher:  fsw,
		debounce: debounce,
		logger:   logger,
		changes:  make(chan Change, 1),
		ctx:      ctx,
		cancel:   cancel,
	}

	w.wg.Add(2)
	go w.processEvents()
	go w.processPending()

	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Changes delivers debounced changes. It is closed by Close. If the receiver
// falls behind, changes coalesce into the one already queued.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Pause suppresses events until the matching Resume, for writes made by the
// session itself.
func (w *Watcher) Pause() {
	w.mu.Lock()
	w.paused++
	w.mu.Unlock()
}

// Resume undoes one Pause and discards anything seen while paused.
func (w *Watcher) Resume() {
	w.mu.Lock()
	if w.paused > 0 {
		w.paused--
	}
	w.pending = time.Time{}
	w.mu.Unlock()
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			w.mu.Lock()
			if w.paused == 0 {
				w.pending = time.Now()
			}
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.String("path", w.path), zap.Error(err))
		}
	}
}

func (w *Watcher) processPending() {
	defer w.wg.Done()

	interval := w.debounce / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case now := <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && now.Sub(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if due {
				w.emit(now)
			}
		}
	}
}

func (w *Watcher) emit(now time.Time) {
	change := Change{Path: w.path, Time: now}
	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		change.Removed = true
	}

	w.logger.Debug("watched file changed", zap.String("path", w.path), zap.Bool("removed", change.Removed))

	select {
	case w.changes <- change:
	default:
	}
}

// Close stops watching and closes the Changes channel.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		w.cancel()
		err = w.watcher.Close()
		w.wg.Wait()
		close(w.changes)
	})
	return err
}
