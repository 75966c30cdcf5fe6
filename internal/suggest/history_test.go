// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package suggest

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memorySink struct {
	mu      sync.Mutex
	reasons []string
	err     error
}

func (m *memorySink) AppendReason(reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reasons = append(m.reasons, reason)
	return m.err
}

func TestHistory(t *testing.T) {
	sink := &memorySink{}
	h := NewHistory(sink, zaptest.NewLogger(t))
	h.Seed("seeded", "")
	h.Add("first")
	h.Add("second")
	h.Add("first")
	h.Add("  ")

	assert.Equal(t, 4, h.Len(), "history never prunes")
	assert.Equal(t, []string{"first", "second", "seeded"}, h.Snapshot())
	assert.Equal(t, []string{"first", "second", "first"}, sink.reasons, "seeds are not persisted")
}

func TestHistorySinkFailure(t *testing.T) {
	h := NewHistory(&memorySink{err: errors.New("disk full")}, zaptest.NewLogger(t))
	h.Add("kept anyway")
	assert.Equal(t, []string{"kept anyway"}, h.Snapshot())
}

func TestHistoryConcurrentAdd(t *testing.T) {
	h := NewHistory(nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Add("reason")
			_ = h.Snapshot()
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, h.Len())
}

func TestIgnoreCandidates(t *testing.T) {
	got := IgnoreCandidates([]string{"not applicable", "not"}, []string{"code not present", "not"})
	assert.Equal(t, []string{"not applicable", "not", "code not present"}, got)
}

func TestLoadReasons(t *testing.T) {
	input := `# comment line

CVE-2020-0001 # code not present
CVE-2020-0002 CVE-2020-0003 # DNE - not in archive
CVE-2020-0004 # NFU -- windows only
CVE-2020-0005
CVE-2020-0001 # duplicate ignored
`
	entries, err := LoadReasons(strings.NewReader(input))
	require.NoError(t, err)

	want := []IgnoredEntry{
		{ID: "CVE-2020-0001", Reason: "code not present"},
		{ID: "CVE-2020-0002", Reason: "not in archive"},
		{ID: "CVE-2020-0003", Reason: "not in archive"},
		{ID: "CVE-2020-0004", Reason: "windows only"},
		{ID: "CVE-2020-0005", Reason: DefaultIgnoreReason},
	}
	assert.Equal(t, want, entries)
	assert.Equal(t, []string{"code not present", "not in archive", "windows only", "Ignored"}, UniqueReasons(entries))
}
