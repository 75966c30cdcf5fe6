// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/jeranaias/cvetriage/internal/surface"
	"github.com/jeranaias/cvetriage/internal/tasks"
)

// =============================================================================
// EXECUTION RECORD
// =============================================================================

// ExecutionRecord tracks one dispatch.
type ExecutionRecord struct {
	// ToolName is the name of the dispatched tool
	ToolName string

	// Keywords are the original keyword terms
	Keywords []string

	// Command is the expanded command line or function name
	Command string

	// JobID identifies the job
	JobID string

	// Timestamp is when the dispatch happened
	Timestamp time.Time
}

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher runs tools into their output surfaces.
type Dispatcher struct {
	registry *Registry
	runner   *tasks.Runner
	tracker  *tasks.Tracker
	surfaces *surface.Manager
	logger   *zap.Logger

	mu      sync.Mutex
	history []ExecutionRecord
}

// NewDispatcher creates a dispatcher. tracker and logger may be nil.
func NewDispatcher(registry *Registry, runner *tasks.Runner, tracker *tasks.Tracker,
	surfaces *surface.Manager, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		registry: registry,
		runner:   runner,
		tracker:  tracker,
		surfaces: surfaces,
		logger:   logger,
	}
}

// Registry returns the tool registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Surfaces returns the output surfaces.
func (d *Dispatcher) Surfaces() *surface.Manager {
	return d.surfaces
}

// History returns a copy of the dispatch history.
func (d *Dispatcher) History() []ExecutionRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]ExecutionRecord(nil), d.history...)
}

// FormatArgument joins keywords with single spaces and case folds the
// result when the descriptor asks for it.
func FormatArgument(desc Descriptor, keywords []string) string {
	arg := strings.Join(keywords, " ")
	if desc.FoldCase {
		arg = cases.Fold().String(arg)
	}
	return arg
}

// Dispatch runs the tool named name with keywords.
//
// Function tools run on the caller's goroutine and return a resolved job.
// Command tools return a running job immediately. The only error is
// ErrUnknownTool, reported before anything runs; every later failure shows
// in the job result and the output surface.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, keywords []string) (*tasks.Job, error) {
	desc, ok := d.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	var fn Func
	if desc.IsFunction() {
		if fn, ok = d.registry.Function(desc.Function); !ok {
			fn = func(string) (string, error) {
				return "", fmt.Errorf("%w: %q", ErrUnknownFunction, desc.Function)
			}
		}
	}

	arg := FormatArgument(desc, keywords)
	out := d.surfaces.Reset(desc.Name)
	generation := out.Generation()
	terms := append([]string(nil), keywords...)

	var job *tasks.Job
	command := desc.Function
	if fn != nil {
		job = d.runner.Call(desc.Name, desc.Function, fn, arg, out)
	} else {
		command = desc.Expand(arg)
		job = d.runner.Spawn(desc.Name, command, out)
	}

	job.Then(func(j *tasks.Job, res tasks.Result) {
		if out.Generation() != generation {
			// a later dispatch reset the surface; its output is mixed with ours
			d.logger.Debug("stale tool run finished",
				zap.String("tool", desc.Name),
				zap.String("job", j.ID))
		}
		if desc.Mode != surface.ModeNone {
			out.SetMode(desc.Mode)
			for _, term := range terms {
				out.Highlight(term)
			}
		}
		if d.tracker != nil {
			d.tracker.Notify(j, res, out)
		}
	})

	d.record(ExecutionRecord{
		ToolName:  desc.Name,
		Keywords:  terms,
		Command:   command,
		JobID:     job.ID,
		Timestamp: job.StartTime,
	})
	d.logger.Debug("tool dispatched",
		zap.String("tool", desc.Name),
		zap.String("job", job.ID),
		zap.Bool("function", fn != nil))

	return job, nil
}

// record adds an execution record to the history.
func (d *Dispatcher) record(rec ExecutionRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()

	const maxHistorySize = 1000
	if len(d.history) >= maxHistorySize {
		d.history = d.history[len(d.history)-maxHistorySize+1:]
	}
	d.history = append(d.history, rec)
}

// shellQuote quotes arg as one shell word.
func shellQuote(arg string) string {
	return shellquote.Join(arg)
}
