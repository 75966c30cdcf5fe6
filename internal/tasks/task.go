// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// JOB STATUS
// =============================================================================

// JobStatus represents the current state of a job.
type JobStatus string

const (
	// JobStatusRunning indicates the process has not terminated yet
	JobStatusRunning JobStatus = "Running"

	// JobStatusFinished indicates a zero exit status
	JobStatusFinished JobStatus = "Finished"

	// JobStatusExited indicates a non-zero exit status or a signal
	JobStatusExited JobStatus = "Exited"

	// JobStatusFailed indicates the process could not be started
	JobStatusFailed JobStatus = "Failed"
)

// String returns the string representation of the job status.
func (s JobStatus) String() string {
	return string(s)
}

// =============================================================================
// RESULT
// =============================================================================

// Result is what a job resolves to.
type Result struct {
	// ExitCode is the process exit status (-1 when killed by a signal or not started)
	ExitCode int

	// Signal is set when the process was terminated by a signal
	Signal string

	// Output is the complete captured output
	Output string

	// Err is set when the process could not be started or the function failed
	Err error
}

// Success reports a zero exit status without error.
func (r Result) Success() bool {
	return r.ExitCode == 0 && r.Signal == "" && r.Err == nil
}

// Continuation runs after a job resolves.
type Continuation func(job *Job, result Result)

// =============================================================================
// JOB
// =============================================================================

// Job is one dispatched command.
type Job struct {
	// ID is a unique identifier for this job
	ID string

	// Tool is the tool name the job was dispatched for
	Tool string

	// Command is the shell command line, or the function name for in-process tools
	Command string

	// StartTime is when the job started
	StartTime time.Time

	mu            sync.RWMutex
	status        JobStatus
	output        strings.Builder
	endTime       time.Time
	result        Result
	resolved      bool
	continuations []Continuation
	done          chan struct{}
}

// NewJob creates a running job for tool.
func NewJob(tool, command string) *Job {
	return &Job{
		ID:        uuid.New().String(),
		Tool:      tool,
		Command:   command,
		StartTime: time.Now(),
		status:    JobStatusRunning,
		done:      make(chan struct{}),
	}
}

// AppendOutput appends text to the job output (thread-safe).
func (j *Job) AppendOutput(text string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.output.WriteString(text)
}

// Output returns the output captured so far (thread-safe).
func (j *Job) Output() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.output.String()
}

// Status returns the current job status (thread-safe).
func (j *Job) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// IsComplete reports whether the job has resolved.
func (j *Job) IsComplete() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed once the job has resolved and every
// continuation registered before resolution has run.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Result returns the result; the second value is false while running.
func (j *Job) Result() (Result, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.result, j.resolved
}

// Wait blocks until the job is done or ctx ends. Returning early does not
// stop the process.
func (j *Job) Wait(ctx context.Context) (Result, error) {
	select {
	case <-j.done:
		res, _ := j.Result()
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Then registers a continuation. On a job that has already resolved it runs
// immediately on the caller's goroutine.
func (j *Job) Then(fn Continuation) {
	j.mu.Lock()
	if !j.resolved {
		j.continuations = append(j.continuations, fn)
		j.mu.Unlock()
		return
	}
	res := j.result
	j.mu.Unlock()
	fn(j, res)
}

// resolve records the result, runs pending continuations in registration
// order and closes Done. Only the first call has effect.
func (j *Job) resolve(res Result) {
	j.mu.Lock()
	if j.resolved {
		j.mu.Unlock()
		return
	}
	res.Output = j.output.String()
	j.result = res
	j.resolved = true
	j.endTime = time.Now()
	switch {
	case res.Err != nil && res.ExitCode < 0 && res.Signal == "":
		j.status = JobStatusFailed
	case res.Success():
		j.status = JobStatusFinished
	default:
		j.status = JobStatusExited
	}
	pending := j.continuations
	j.continuations = nil
	j.mu.Unlock()

	for _, fn := range pending {
		fn(j, res)
	}
	close(j.done)
}

// Duration returns how long the job has been running or took to complete.
func (j *Job) Duration() time.Duration {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.endTime.IsZero() {
		return time.Since(j.StartTime)
	}
	return j.endTime.Sub(j.StartTime)
}

// Summary returns a one-line summary of the job.
func (j *Job) Summary() string {
	summary := fmt.Sprintf("[%s] %s - %s", j.ID[:8], j.Tool, j.Status())
	if d := j.Duration(); d > 0 {
		summary += fmt.Sprintf(" (%.1fs)", d.Seconds())
	}
	return summary
}
