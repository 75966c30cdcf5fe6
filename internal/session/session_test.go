// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/cvetriage/internal/config"
	"github.com/jeranaias/cvetriage/internal/packages"
	"github.com/jeranaias/cvetriage/internal/tools"
	"github.com/jeranaias/cvetriage/internal/watch"
)

const sample = "CVE-2020-0001 ignore not applicable\nCVE-2020-0002\n"

func newTestSession(t *testing.T, text string) (*Session, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "triage.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	cfg := config.Default()
	cfg.DataDir = dir

	s, err := New(Options{
		Config:       cfg,
		Path:         path,
		Logger:       zaptest.NewLogger(t),
		DatabasePath: filepath.Join(dir, config.DatabaseFile),
		Packages:     packages.Static{Source: []string{"openssl", "linux"}, Binary: []string{"libssl3"}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, path
}

func TestNewSession(t *testing.T) {
	s, path := newTestSession(t, sample)

	assert.Len(t, s.ID(), 36)
	assert.Equal(t, path, s.Buffer().Path())
	assert.Equal(t, sample, s.Document().Text())
	assert.NotNil(t, s.Store())
	assert.Equal(t, []string{"grep-doc", "reasons"}, s.Dispatcher().Registry().Names())
}

func TestNewSessionCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.txt")
	s, err := New(Options{Path: path, NoStore: true, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	defer s.Close(context.Background())

	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, 0, s.Document().Len())
}

func TestSessionNames(t *testing.T) {
	s, _ := newTestSession(t, sample)

	names, err := s.Names(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"libssl3", "linux", "openssl"}, names)
}

func TestSessionHistoryPersists(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, config.DatabaseFile)
	cfg := config.Default()
	cfg.DataDir = dir

	s, err := New(Options{Config: cfg, DatabasePath: db, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	s.History().Add("not shipped")
	s.History().Add("fixed upstream")
	require.NoError(t, s.Close(context.Background()))

	s, err = New(Options{Config: cfg, DatabasePath: db, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	defer s.Close(context.Background())
	assert.Equal(t, []string{"fixed upstream", "not shipped"}, s.History().Snapshot())
}

func TestSessionReasonsFile(t *testing.T) {
	dir := t.TempDir()
	reasons := filepath.Join(dir, "ignored.txt")
	require.NoError(t, os.WriteFile(reasons, []byte("# seed\nCVE-2019-1000 # not built\nCVE-2019-1001 # NFU - not built\n"), 0o644))

	cfg := config.Default()
	cfg.History.ReasonsFile = reasons
	s, err := New(Options{Config: cfg, NoStore: true, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	defer s.Close(context.Background())

	assert.Equal(t, []string{"not built"}, s.History().Snapshot())
}

func TestSessionReasonsFileMissing(t *testing.T) {
	cfg := config.Default()
	cfg.History.ReasonsFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err := New(Options{Config: cfg, NoStore: true})
	assert.Error(t, err)
}

func TestNewSessionUnknownToolFunction(t *testing.T) {
	cfg := config.Default()
	cfg.Tools = append(cfg.Tools, config.ToolConfig{Name: "ghost", Function: "missing"})
	_, err := New(Options{Config: cfg, NoStore: true, Logger: zaptest.NewLogger(t)})
	assert.ErrorIs(t, err, tools.ErrUnknownFunction)
}

func TestSessionDispatchDefaultKeywords(t *testing.T) {
	s, _ := newTestSession(t, sample)
	s.Buffer().SetCursor(len("CVE-2020-0001 ignore"))

	job, err := s.Dispatch(context.Background(), "grep-doc", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := job.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success())

	out := s.Surfaces().Get("grep-doc").Text()
	assert.Contains(t, out, "CVE-2020-0001 ignore not applicable")
}

func TestSessionDispatchUnknownTool(t *testing.T) {
	s, _ := newTestSession(t, sample)
	_, err := s.Dispatch(context.Background(), "nope", []string{"x"})
	assert.Error(t, err)
}

func TestSessionHandleChange(t *testing.T) {
	s, path := newTestSession(t, sample)

	require.NoError(t, os.WriteFile(path, []byte("CVE-2021-0001\n"), 0o644))
	outcome, err := s.HandleChange(watch.Change{Path: path})
	require.NoError(t, err)
	assert.Equal(t, ChangeReloaded, outcome)
	assert.Equal(t, "CVE-2021-0001\n", s.Document().Text())

	require.NoError(t, s.Buffer().Replace(0, 0, "x"))
	outcome, err = s.HandleChange(watch.Change{Path: path})
	require.NoError(t, err)
	assert.Equal(t, ChangeConflict, outcome)
	assert.Equal(t, "xCVE-2021-0001\n", s.Document().Text())

	outcome, _ = s.HandleChange(watch.Change{Path: path, Removed: true})
	assert.Equal(t, ChangeRemoved, outcome)
}

func TestSessionDiff(t *testing.T) {
	s, path := newTestSession(t, sample)

	d, err := s.Diff()
	require.NoError(t, err)
	assert.True(t, d.Empty())

	require.NoError(t, s.Buffer().Replace(len(sample), len(sample), "CVE-2020-0003 skip\n"))
	d, err = s.Diff()
	require.NoError(t, err)
	assert.Equal(t, []string{"CVE-2020-0003"}, d.Records())

	require.NoError(t, os.Remove(path))
	d, err = s.Diff()
	require.NoError(t, err)
	assert.Equal(t, 3, d.Added)
	assert.Equal(t, 0, d.Removed)
}

func TestSessionStatus(t *testing.T) {
	s, _ := newTestSession(t, "CVE-2020-0001 add bogus openssl\nCVE-2020-0002\n")

	status := s.GetStatus()
	assert.Equal(t, 2, status.Blocks)
	assert.Equal(t, 1, status.Flags)
	assert.False(t, status.Dirty)
	assert.Equal(t, s.ID(), status.SessionID)
}

func TestSessionCloseTwice(t *testing.T) {
	s, _ := newTestSession(t, sample)
	assert.NoError(t, s.Close(context.Background()))
	assert.NoError(t, s.Close(context.Background()))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{5*time.Minute + 30*time.Second, "5m 30s"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.d))
	}
}
