// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package packages

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/cvetriage/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInventoryFailed wraps a failing inventory command.
	ErrInventoryFailed = errors.New("package inventory failed")
)

// =============================================================================
// PROVIDER
// =============================================================================

// Provider lists known package names.
type Provider interface {
	SourcePackages(ctx context.Context) ([]string, error)
	BinaryPackages(ctx context.Context) ([]string, error)
}

// Cache stores inventory snapshots between sessions. *storage.Store
// implements it.
type Cache interface {
	SavePackages(ctx context.Context, kind storage.PackageKind, names []string, fetchedAt time.Time) error
	LoadPackages(ctx context.Context, kind storage.PackageKind, maxAge time.Duration) ([]string, time.Time, bool, error)
}

// Names returns the source and binary names of p merged, sorted and without
// duplicates.
func Names(ctx context.Context, p Provider) ([]string, error) {
	src, err := p.SourcePackages(ctx)
	if err != nil {
		return nil, err
	}
	bin, err := p.BinaryPackages(ctx)
	if err != nil {
		return nil, err
	}
	return normalize(append(append([]string(nil), src...), bin...)), nil
}

// =============================================================================
// STATIC PROVIDER
// =============================================================================

// Static is a Provider over fixed lists.
type Static struct {
	Source []string
	Binary []string
}

func (s Static) SourcePackages(context.Context) ([]string, error) {
	return append([]string(nil), s.Source...), nil
}

func (s Static) BinaryPackages(context.Context) ([]string, error) {
	return append([]string(nil), s.Binary...), nil
}

// Names implements the completion package lister.
func (s Static) Names(ctx context.Context) ([]string, error) {
	return Names(ctx, s)
}

// =============================================================================
// COMMAND PROVIDER
// =============================================================================

// Config configures a CommandProvider.
type Config struct {
	// SourceCommand and BinaryCommand are argv lists; empty means no list
	SourceCommand []string
	BinaryCommand []string

	// CacheTTL is the maximum age of a cached snapshot. Zero disables reading
	// the cache; snapshots are still written when a cache is set.
	CacheTTL time.Duration

	// Timeout bounds each command (0 = no limit beyond the caller's context)
	Timeout time.Duration
}

// runFunc executes argv and returns its standard output.
type runFunc func(ctx context.Context, argv []string) ([]byte, error)

// CommandProvider runs the inventory commands once and keeps the result.
// The first call decides the outcome: a failure, including a cancelled
// context, is returned by every later call too.
type CommandProvider struct {
	config Config
	cache  Cache
	logger *zap.Logger
	run    runFunc

	once    sync.Once
	mu      sync.RWMutex
	source  []string
	binary  []string
	err     error
	fetched time.Time
}

// NewCommandProvider creates a provider. cache and logger may be nil.
func NewCommandProvider(config Config, cache Cache, logger *zap.Logger) *CommandProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandProvider{
		config: config,
		cache:  cache,
		logger: logger,
		run:    runCommand,
	}
}

// SourcePackages returns the source package names.
func (p *CommandProvider) SourcePackages(ctx context.Context) ([]string, error) {
	if err := p.load(ctx); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.source...), nil
}

// BinaryPackages returns the binary package names.
func (p *CommandProvider) BinaryPackages(ctx context.Context) ([]string, error) {
	if err := p.load(ctx); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.binary...), nil
}

// Names returns both lists merged.
func (p *CommandProvider) Names(ctx context.Context) ([]string, error) {
	return Names(ctx, p)
}

// FetchedAt returns when the lists were produced, zero before the first load.
func (p *CommandProvider) FetchedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fetched
}

func (p *CommandProvider) load(ctx context.Context) error {
	p.once.Do(func() {
		source, binary, fetched, err := p.fetch(ctx)
		p.mu.Lock()
		p.source, p.binary, p.fetched, p.err = source, binary, fetched, err
		p.mu.Unlock()
	})
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

func (p *CommandProvider) fetch(ctx context.Context) (source, binary []string, fetched time.Time, err error) {
	fetched = time.Now()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		var at time.Time
		source, at, err = p.inventory(egCtx, storage.SourcePackages, p.config.SourceCommand)
		if !at.IsZero() && at.Before(fetched) {
			fetched = at
		}
		return err
	})
	eg.Go(func() error {
		var err error
		binary, _, err = p.inventory(egCtx, storage.BinaryPackages, p.config.BinaryCommand)
		return err
	})

	if err := eg.Wait(); err != nil {
		return nil, nil, time.Time{}, err
	}
	return source, binary, fetched, nil
}

// inventory returns one list, from the cache when fresh. The returned time is
// the snapshot time for cached lists and zero otherwise.
func (p *CommandProvider) inventory(ctx context.Context, kind storage.PackageKind, argv []string) ([]string, time.Time, error) {
	if len(argv) == 0 {
		return nil, time.Time{}, nil
	}

	if p.cache != nil && p.config.CacheTTL > 0 {
		names, at, ok, err := p.cache.LoadPackages(ctx, kind, p.config.CacheTTL)
		if err != nil {
			p.logger.Warn("package cache read failed", zap.String("kind", string(kind)), zap.Error(err))
		} else if ok {
			p.logger.Debug("using cached package list",
				zap.String("kind", string(kind)),
				zap.Int("count", len(names)),
				zap.Time("fetched_at", at))
			return names, at, nil
		}
	}

	runCtx := ctx
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := p.run(runCtx, argv)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %s: %v", ErrInventoryFailed, strings.Join(argv, " "), err)
	}
	names := ParseInventory(out)
	p.logger.Info("package inventory loaded",
		zap.String("kind", string(kind)),
		zap.Int("count", len(names)),
		zap.Duration("took", time.Since(start)))

	if p.cache != nil {
		if err := p.cache.SavePackages(ctx, kind, names, start); err != nil {
			p.logger.Warn("package cache write failed", zap.String("kind", string(kind)), zap.Error(err))
		}
	}
	return names, time.Time{}, nil
}

func runCommand(ctx context.Context, argv []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%v: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// =============================================================================
// PARSING
// =============================================================================

// ParseInventory takes the first field of every line of out. Blank lines and
// lines starting with '#' are skipped.
func ParseInventory(out []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		names = append(names, fields[0])
	}
	return normalize(names)
}

func normalize(names []string) []string {
	sort.Strings(names)
	out := names[:0]
	for i, n := range names {
		if i > 0 && n == names[i-1] {
			continue
		}
		out = append(out, n)
	}
	return out
}
