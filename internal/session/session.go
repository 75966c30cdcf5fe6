// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/cvetriage/internal/config"
	"github.com/jeranaias/cvetriage/internal/diff"
	"github.com/jeranaias/cvetriage/internal/document"
	"github.com/jeranaias/cvetriage/internal/packages"
	"github.com/jeranaias/cvetriage/internal/storage"
	"github.com/jeranaias/cvetriage/internal/suggest"
	"github.com/jeranaias/cvetriage/internal/surface"
	"github.com/jeranaias/cvetriage/internal/tasks"
	"github.com/jeranaias/cvetriage/internal/tools"
	"github.com/jeranaias/cvetriage/internal/util"
	"github.com/jeranaias/cvetriage/internal/watch"
)

// maxJobHistory is how many finished jobs the tracker keeps.
const maxJobHistory = 50

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures New.
type Options struct {
	// Config defaults to config.Default()
	Config *config.Config

	// Path of the triage document; empty starts an unnamed empty buffer
	Path string

	// Logger defaults to a no-op logger
	Logger *zap.Logger

	// DatabasePath overrides the configured store location (":memory:" works)
	DatabasePath string

	// NoStore disables the persistent store entirely
	NoStore bool

	// Packages replaces the configured inventory commands
	Packages packages.Provider

	// Watch reloads the document when it changes on disk
	Watch bool
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the explicit context passed to triage operations.
type Session struct {
	id        string
	startTime time.Time
	cfg       *config.Config
	logger    *zap.Logger

	buffer     *document.Buffer
	history    *suggest.History
	provider   packages.Provider
	surfaces   *surface.Manager
	tracker    *tasks.Tracker
	runner     *tasks.Runner
	dispatcher *tools.Dispatcher

	store   *storage.Store
	watcher *watch.Watcher

	mu           sync.Mutex
	lastActivity time.Time
	closed       bool
}

// New opens a session. A missing document file is created empty.
func New(opts Options) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		id:        uuid.New().String(),
		startTime: time.Now(),
		cfg:       cfg,
		surfaces:  surface.NewManager(),
	}
	s.lastActivity = s.startTime
	s.logger = logger.With(zap.String("session", s.id[:8]))

	buffer, err := openBuffer(opts.Path)
	if err != nil {
		return nil, err
	}
	s.buffer = buffer

	if !opts.NoStore && (cfg.History.Persist || cfg.Packages.PersistCache) {
		s.store = s.openStore(opts.DatabasePath)
	}

	if err := s.initHistory(); err != nil {
		s.closeStore()
		return nil, err
	}

	s.provider = opts.Packages
	if s.provider == nil {
		var cache packages.Cache
		if s.store != nil && cfg.Packages.PersistCache {
			cache = s.store
		}
		s.provider = packages.NewCommandProvider(packages.Config{
			SourceCommand: cfg.Packages.SourceCommand,
			BinaryCommand: cfg.Packages.BinaryCommand,
			CacheTTL:      cfg.CacheTTL(),
			Timeout:       time.Duration(cfg.Packages.TimeoutSecs) * time.Second,
		}, cache, s.logger)
	}

	if err := s.initTools(); err != nil {
		s.closeStore()
		return nil, err
	}

	if opts.Watch && opts.Path != "" && cfg.UI.WatchFile {
		w, err := watch.New(opts.Path, cfg.WatchDebounce(), s.logger)
		if err != nil {
			s.logger.Warn("file watching unavailable", zap.String("path", opts.Path), zap.Error(err))
		} else {
			s.watcher = w
		}
	}

	s.logger.Info("session started",
		zap.String("path", opts.Path),
		zap.Int("reasons", s.history.Len()),
		zap.Bool("store", s.store != nil))

	return s, nil
}

func openBuffer(path string) (*document.Buffer, error) {
	if path == "" {
		return document.NewBuffer(""), nil
	}
	buffer, err := document.Open(path)
	if err == nil {
		return buffer, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	buffer = document.NewBuffer("")
	if err := buffer.SaveAs(path); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return buffer, nil
}

// openStore opens the store, continuing without one on failure.
func (s *Session) openStore(override string) *storage.Store {
	path := override
	if path == "" {
		var err error
		if path, err = s.cfg.DatabasePath(); err != nil {
			s.logger.Warn("no database path", zap.Error(err))
			return nil
		}
	}
	store, err := storage.Open(path)
	if err != nil {
		s.logger.Warn("persistent store unavailable", zap.String("path", path), zap.Error(err))
		return nil
	}
	return store
}

func (s *Session) initHistory() error {
	var sink suggest.Sink
	if s.store != nil && s.cfg.History.Persist {
		sink = s.store
	}
	s.history = suggest.NewHistory(sink, s.logger)

	if path := s.cfg.History.ReasonsFile; path != "" {
		f, err := os.Open(util.ExpandHome(path))
		if err != nil {
			return fmt.Errorf("failed to open reasons file: %w", err)
		}
		entries, err := suggest.LoadReasons(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to read reasons file %s: %w", path, err)
		}
		s.history.Seed(suggest.UniqueReasons(entries)...)
	}

	if sink != nil {
		reasons, err := s.store.Reasons(context.Background())
		if err != nil {
			s.logger.Warn("failed to load stored reasons", zap.Error(err))
		}
		s.history.Seed(reasons...)
	}
	return nil
}

func (s *Session) initTools() error {
	s.tracker = tasks.NewTracker(maxJobHistory, s.logger)
	s.runner = tasks.NewRunner(s.tracker, s.logger)

	registry := tools.NewRegistry()
	registry.RegisterFunction(tools.FuncDocumentSearch, tools.DocumentSearch(s.buffer.Path(), s.Document))
	registry.RegisterFunction(tools.FuncReasonSearch, tools.ReasonSearch(s.history.Snapshot))

	descriptors, err := s.cfg.Descriptors()
	if err != nil {
		return fmt.Errorf("invalid tool configuration: %w", err)
	}
	for _, d := range descriptors {
		if err := registry.Register(d); err != nil {
			return fmt.Errorf("invalid tool configuration: %w", err)
		}
	}

	s.dispatcher = tools.NewDispatcher(registry, s.runner, s.tracker, s.surfaces, s.logger)
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// StartTime returns when the session was opened.
func (s *Session) StartTime() time.Time { return s.startTime }

// Config returns the session configuration. It must not be modified.
func (s *Session) Config() *config.Config { return s.cfg }

// Logger returns the session logger.
func (s *Session) Logger() *zap.Logger { return s.logger }

// Buffer returns the document buffer.
func (s *Session) Buffer() *document.Buffer { return s.buffer }

// Document returns the current parse of the buffer.
func (s *Session) Document() *document.Document { return s.buffer.Document() }

// History returns the ignore reason history.
func (s *Session) History() *suggest.History { return s.history }

// Packages returns the package provider.
func (s *Session) Packages() packages.Provider { return s.provider }

// Surfaces returns the tool output surfaces.
func (s *Session) Surfaces() *surface.Manager { return s.surfaces }

// Tracker returns the job tracker.
func (s *Session) Tracker() *tasks.Tracker { return s.tracker }

// Dispatcher returns the tool dispatcher.
func (s *Session) Dispatcher() *tools.Dispatcher { return s.dispatcher }

// Store returns the persistent store, or nil.
func (s *Session) Store() *storage.Store { return s.store }

// Names lists the package names offered for completion.
func (s *Session) Names(ctx context.Context) ([]string, error) {
	return packages.Names(ctx, s.provider)
}

// RecordActivity marks the session as in use.
func (s *Session) RecordActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Dispatch runs a tool. With no keywords, the tool's keyword source supplies
// them from the block at the cursor.
func (s *Session) Dispatch(ctx context.Context, tool string, keywords []string) (*tasks.Job, error) {
	s.RecordActivity()
	if len(keywords) == 0 {
		if desc, ok := s.dispatcher.Registry().Get(tool); ok {
			defaults, err := tools.DefaultKeywords(desc, s.Document(), s.buffer.Cursor())
			if err != nil && !errors.Is(err, document.ErrNoRecordFound) {
				return nil, err
			}
			keywords = defaults
		}
	}
	return s.dispatcher.Dispatch(ctx, tool, keywords)
}

// Save writes the buffer to its file without triggering a reload.
func (s *Session) Save() error {
	s.RecordActivity()
	if s.watcher != nil {
		s.watcher.Pause()
		defer s.watcher.Resume()
	}
	return s.buffer.Save()
}

// Diff compares the file on disk with the buffer. A missing file compares
// as empty.
func (s *Session) Diff() (*diff.Diff, error) {
	path := s.buffer.Path()
	saved, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return diff.Compute(path, string(saved), s.buffer.Text()), nil
}

// Changes delivers on-disk changes of the document, or nil when not watching.
func (s *Session) Changes() <-chan watch.Change {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Changes()
}

// ChangeOutcome is the result of HandleChange.
type ChangeOutcome int

const (
	// ChangeReloaded means the buffer was clean and now matches the file
	ChangeReloaded ChangeOutcome = iota
	// ChangeConflict means the buffer has unsaved edits; nothing was reloaded
	ChangeConflict
	// ChangeRemoved means the file was deleted; the buffer is unchanged
	ChangeRemoved
)

// HandleChange applies an on-disk change: a clean buffer reloads, a dirty
// buffer is left alone.
func (s *Session) HandleChange(c watch.Change) (ChangeOutcome, error) {
	if c.Removed {
		s.logger.Warn("document removed on disk", zap.String("path", c.Path))
		return ChangeRemoved, nil
	}
	if s.buffer.Dirty() {
		s.logger.Warn("document changed on disk with unsaved edits", zap.String("path", c.Path))
		return ChangeConflict, nil
	}
	if err := s.buffer.Reload(); err != nil {
		return ChangeReloaded, err
	}
	s.logger.Info("document reloaded", zap.String("path", c.Path))
	return ChangeReloaded, nil
}

// =============================================================================
// STATUS
// =============================================================================

// Status represents the current session status.
type Status struct {
	SessionID   string
	Path        string
	StartTime   time.Time
	Duration    time.Duration
	IdleTime    time.Duration
	Dirty       bool
	Blocks      int
	Flags       int
	RunningJobs int
	Reasons     int
}

// GetStatus returns the current session status.
func (s *Session) GetStatus() Status {
	s.mu.Lock()
	last := s.lastActivity
	s.mu.Unlock()

	now := time.Now()
	doc := s.Document()
	return Status{
		SessionID:   s.id,
		Path:        s.buffer.Path(),
		StartTime:   s.startTime,
		Duration:    now.Sub(s.startTime),
		IdleTime:    now.Sub(last),
		Dirty:       s.buffer.Dirty(),
		Blocks:      len(doc.IdentifierLines()),
		Flags:       len(doc.Flags()),
		RunningJobs: len(s.tracker.Running()),
		Reasons:     s.history.Len(),
	}
}

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if secs := int(d.Seconds()) % 60; secs != 0 {
			return fmt.Sprintf("%dm %ds", mins, secs)
		}
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// =============================================================================
// CLOSE
// =============================================================================

// Close stops watching, waits for running jobs until ctx is done, and closes
// the store. Unsaved edits are not written.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var errs []error
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.runner.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("closing with jobs still running", zap.Int("running", len(s.tracker.Running())))
	}

	if err := s.closeStore(); err != nil {
		errs = append(errs, err)
	}
	s.logger.Info("session closed", zap.Duration("duration", time.Since(s.startTime)))
	return errors.Join(errs...)
}

func (s *Session) closeStore() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
