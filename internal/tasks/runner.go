// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"

	"go.uber.org/zap"
)

// =============================================================================
// RUNNER
// =============================================================================

// Shell is the interpreter command lines are run with.
var Shell = []string{"/bin/sh", "-c"}

// Runner starts jobs and tracks them until their continuations have run.
type Runner struct {
	tracker *Tracker
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewRunner creates a runner. tracker and logger may be nil.
func NewRunner(tracker *Tracker, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{tracker: tracker, logger: logger}
}

// Wait blocks until every job started by this runner has resolved.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Spawn runs command through the shell without blocking. Output lines are
// appended to the job and written to sink (which may be nil). Start
// failures resolve the job instead of being returned.
func (r *Runner) Spawn(tool, command string, sink io.Writer) *Job {
	job := NewJob(tool, command)
	r.track(job)

	r.logger.Debug("spawning tool command",
		zap.String("tool", tool),
		zap.String("job", job.ID),
		zap.String("command", command))

	args := append(append([]string{}, Shell[1:]...), command)
	cmd := exec.Command(Shell[0], args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.fail(job, sink, fmt.Errorf("failed to create stdout pipe: %w", err))
		return job
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.fail(job, sink, fmt.Errorf("failed to create stderr pipe: %w", err))
		return job
	}
	if err := cmd.Start(); err != nil {
		r.fail(job, sink, fmt.Errorf("failed to start command: %w", err))
		return job
	}

	out := &lineSink{job: job, sink: sink}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		// stdout and stderr lines interleave in arrival order
		var streams sync.WaitGroup
		streams.Add(2)
		go func() {
			defer streams.Done()
			streamOutput(stdout, out)
		}()
		go func() {
			defer streams.Done()
			streamOutput(stderr, out)
		}()
		streams.Wait()

		res := exitResult(cmd.Wait())
		r.logger.Debug("tool command terminated",
			zap.String("tool", tool),
			zap.String("job", job.ID),
			zap.Int("exit_code", res.ExitCode),
			zap.String("signal", res.Signal))
		job.resolve(res)
	}()

	return job
}

// Call runs fn synchronously with arg and returns a resolved job.
func (r *Runner) Call(tool, name string, fn func(arg string) (string, error), arg string, sink io.Writer) *Job {
	job := NewJob(tool, name)
	r.track(job)

	out := &lineSink{job: job, sink: sink}
	text, err := fn(arg)
	out.write(text)

	res := Result{}
	if err != nil {
		res.ExitCode = 1
		res.Err = err
		out.write(fmt.Sprintf("%s: %v\n", name, err))
	}
	job.resolve(res)
	return job
}

func (r *Runner) track(job *Job) {
	if r.tracker != nil {
		r.tracker.Add(job)
	}
}

func (r *Runner) fail(job *Job, sink io.Writer, err error) {
	r.logger.Warn("tool command not started", zap.String("tool", job.Tool), zap.Error(err))
	(&lineSink{job: job, sink: sink}).write(err.Error() + "\n")
	job.resolve(Result{ExitCode: -1, Err: err})
}

// =============================================================================
// OUTPUT
// =============================================================================

// lineSink serializes writes from the stdout and stderr readers.
type lineSink struct {
	mu   sync.Mutex
	job  *Job
	sink io.Writer
}

func (s *lineSink) write(text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job.AppendOutput(text)
	if s.sink != nil {
		io.WriteString(s.sink, text)
	}
}

// streamOutput reads from a pipe line by line.
func streamOutput(pipe io.Reader, out *lineSink) {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		out.write(scanner.Text() + "\n")
	}
}

// exitResult converts the error of cmd.Wait into a Result.
func exitResult(err error) Result {
	if err == nil {
		return Result{}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return Result{ExitCode: -1, Signal: status.Signal().String()}
		}
		return Result{ExitCode: exitErr.ExitCode()}
	}
	return Result{ExitCode: -1, Err: err}
}
