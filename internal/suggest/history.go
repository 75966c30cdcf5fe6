// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package suggest

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultIgnoreReason is used for seed entries without a reason.
const DefaultIgnoreReason = "Ignored"

// =============================================================================
// HISTORY
// =============================================================================

// Sink persists reasons added to a History.
type Sink interface {
	AppendReason(reason string) error
}

// History is the session list of ignore reasons. It is append-only and never
// pruned. Readers take a snapshot; a reason added concurrently may be missing
// from a snapshot already taken.
type History struct {
	mu      sync.RWMutex
	reasons []string
	sink    Sink
	logger  *zap.Logger
}

// NewHistory creates an empty history. sink may be nil.
func NewHistory(sink Sink, logger *zap.Logger) *History {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{sink: sink, logger: logger}
}

// Seed appends reasons without passing them to the sink.
func (h *History) Seed(reasons ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range reasons {
		if r = strings.TrimSpace(r); r != "" {
			h.reasons = append(h.reasons, r)
		}
	}
}

// Add appends a reason and persists it. Sink failures are logged; the
// in-memory history is updated regardless.
func (h *History) Add(reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}

	h.mu.Lock()
	h.reasons = append(h.reasons, reason)
	sink := h.sink
	h.mu.Unlock()

	if sink != nil {
		if err := sink.AppendReason(reason); err != nil {
			h.logger.Warn("failed to persist ignore reason", zap.String("reason", reason), zap.Error(err))
		}
	}
}

// Len returns the number of recorded reasons, duplicates included.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.reasons)
}

// Snapshot returns the distinct reasons, most recently added first.
func (h *History) Snapshot() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]bool, len(h.reasons))
	out := make([]string, 0, len(h.reasons))
	for i := len(h.reasons) - 1; i >= 0; i-- {
		r := h.reasons[i]
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// IgnoreCandidates merges mined suggestions with history reasons. Mined
// entries keep their order and come first; duplicates are dropped.
func IgnoreCandidates(mined, history []string) []string {
	seen := make(map[string]bool, len(mined)+len(history))
	out := make([]string, 0, len(mined)+len(history))
	for _, list := range [][]string{mined, history} {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// =============================================================================
// SEED FILE
// =============================================================================

// IgnoredEntry is one identifier of a seed file with its reason.
type IgnoredEntry struct {
	ID     string
	Reason string
}

// LoadReasons parses the "CVE-YYYY-NNNN # reason" list format. Blank lines
// and lines starting with '#' are skipped. Several identifiers may share a
// line. "DNE -" and "NFU -" prefixes are removed from reasons, and a line
// without a reason gets DefaultIgnoreReason. The first reason for an
// identifier wins.
func LoadReasons(r io.Reader) ([]IgnoredEntry, error) {
	var entries []IgnoredEntry
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		reason := DefaultIgnoreReason
		if strings.HasPrefix(line, "CVE") {
			if ids, rest, ok := strings.Cut(line, "#"); ok {
				line, reason = ids, strings.TrimSpace(rest)
			}
		}
		if strings.HasPrefix(reason, "DNE -") || strings.HasPrefix(reason, "NFU -") {
			reason = strings.TrimLeft(reason[len("DNE -"):], "-")
		}
		reason = strings.TrimSpace(reason)

		for _, id := range strings.Fields(line) {
			if seen[id] {
				continue
			}
			seen[id] = true
			entries = append(entries, IgnoredEntry{ID: id, Reason: reason})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reasons at line %d: %w", lineNo, err)
	}
	return entries, nil
}

// UniqueReasons returns the distinct reasons of entries in file order.
func UniqueReasons(entries []IgnoredEntry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if e.Reason != "" && !seen[e.Reason] {
			seen[e.Reason] = true
			out = append(out, e.Reason)
		}
	}
	return out
}
