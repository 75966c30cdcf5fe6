// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// TRACKER
// =============================================================================

// Tracker keeps the jobs of a session and delivers completion notifications.
type Tracker struct {
	// jobs in dispatch order
	jobs []*Job

	// maxHistory is the maximum number of completed jobs to keep (0 = unlimited)
	maxHistory int

	mu         sync.RWMutex
	notifyChan chan Notification
	logger     *zap.Logger
}

// Notification reports one terminated job.
type Notification struct {
	JobID    string
	Tool     string
	Status   JobStatus
	ExitCode int
	Duration time.Duration
}

// NewTracker creates a tracker.
// maxHistory sets the maximum number of completed jobs to keep (0 = unlimited).
func NewTracker(maxHistory int, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		maxHistory: maxHistory,
		notifyChan: make(chan Notification, 100),
		logger:     logger,
	}
}

// Add records a job.
func (t *Tracker) Add(job *Job) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs = append(t.jobs, job)
	t.cleanupLocked()
}

// Get retrieves a job by ID, or nil.
func (t *Tracker) Get(id string) *Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, job := range t.jobs {
		if job.ID == id {
			return job
		}
	}
	return nil
}

// All returns every tracked job in dispatch order.
func (t *Tracker) All() []*Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Job(nil), t.jobs...)
}

// Running returns the jobs that have not resolved.
func (t *Tracker) Running() []*Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var result []*Job
	for _, job := range t.jobs {
		if !job.IsComplete() {
			result = append(result, job)
		}
	}
	return result
}

// Notifications returns the notification channel.
func (t *Tracker) Notifications() <-chan Notification {
	return t.notifyChan
}

// cleanupLocked drops the oldest completed jobs beyond maxHistory.
// Must be called with lock held.
func (t *Tracker) cleanupLocked() {
	if t.maxHistory <= 0 {
		return
	}
	completed := 0
	for _, job := range t.jobs {
		if job.IsComplete() {
			completed++
		}
	}
	toRemove := completed - t.maxHistory
	if toRemove <= 0 {
		return
	}
	kept := make([]*Job, 0, len(t.jobs)-toRemove)
	for _, job := range t.jobs {
		if job.IsComplete() && toRemove > 0 {
			toRemove--
			continue
		}
		kept = append(kept, job)
	}
	t.jobs = kept
}

// =============================================================================
// DEFAULT NOTIFIER
// =============================================================================

// Notify is the default completion handler: it writes a status line to sink,
// logs the termination and sends a Notification. A full channel drops the
// notification.
func (t *Tracker) Notify(job *Job, res Result, sink io.Writer) {
	line := StatusLine(job.Tool, res)
	if sink != nil {
		io.WriteString(sink, "\n"+line+"\n")
	}

	t.logger.Info("tool finished",
		zap.String("tool", job.Tool),
		zap.String("job", job.ID),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", job.Duration()))

	n := Notification{
		JobID:    job.ID,
		Tool:     job.Tool,
		Status:   job.Status(),
		ExitCode: res.ExitCode,
		Duration: job.Duration(),
	}
	select {
	case t.notifyChan <- n:
	default:
		t.logger.Warn("notification channel full, dropped notification", zap.String("job", job.ID))
	}

	t.mu.Lock()
	t.cleanupLocked()
	t.mu.Unlock()
}

// StatusLine describes how a job ended.
func StatusLine(tool string, res Result) string {
	switch {
	case res.Signal != "":
		return fmt.Sprintf("%s killed by signal %s", tool, res.Signal)
	case res.Err != nil && res.ExitCode < 0:
		return fmt.Sprintf("%s failed to start", tool)
	case res.ExitCode != 0:
		return fmt.Sprintf("%s exited abnormally with code %d", tool, res.ExitCode)
	default:
		return fmt.Sprintf("%s finished", tool)
	}
}
