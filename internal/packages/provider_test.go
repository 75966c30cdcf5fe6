// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package packages

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/cvetriage/internal/storage"
)

func TestParseInventory(t *testing.T) {
	out := []byte("openssl 3.0.2-0ubuntu1\n\n# comment\nbash 5.1\n  zlib\nopenssl 1.1\n")
	got := ParseInventory(out)
	if diff := cmp.Diff([]string{"bash", "openssl", "zlib"}, got); diff != "" {
		t.Errorf("ParseInventory mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, ParseInventory(nil))
}

func TestStatic(t *testing.T) {
	s := Static{Source: []string{"openssl", "bash"}, Binary: []string{"libssl3", "bash"}}

	names, err := s.Names(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bash", "libssl3", "openssl"}, names)

	src, err := s.SourcePackages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"openssl", "bash"}, src)
}

func fakeRun(calls *int32, outputs map[string]string) runFunc {
	return func(ctx context.Context, argv []string) ([]byte, error) {
		atomic.AddInt32(calls, 1)
		out, ok := outputs[argv[0]]
		if !ok {
			return nil, errors.New("exit status 1")
		}
		return []byte(out), nil
	}
}

func TestCommandProvider_RunsOnce(t *testing.T) {
	var calls int32
	p := NewCommandProvider(Config{
		SourceCommand: []string{"src"},
		BinaryCommand: []string{"bin"},
	}, nil, zaptest.NewLogger(t))
	p.run = fakeRun(&calls, map[string]string{
		"src": "openssl 3\nbash 5\n",
		"bin": "libssl3 3\n",
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		names, err := p.Names(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"bash", "libssl3", "openssl"}, names)
	}

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "each command runs once")
	assert.False(t, p.FetchedAt().IsZero())
}

func TestCommandProvider_Failure(t *testing.T) {
	var calls int32
	p := NewCommandProvider(Config{
		SourceCommand: []string{"missing"},
	}, nil, zaptest.NewLogger(t))
	p.run = fakeRun(&calls, nil)

	_, err := p.SourcePackages(context.Background())
	assert.ErrorIs(t, err, ErrInventoryFailed)

	_, err = p.BinaryPackages(context.Background())
	assert.ErrorIs(t, err, ErrInventoryFailed, "failure is kept for the session")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCommandProvider_NoCommands(t *testing.T) {
	p := NewCommandProvider(Config{}, nil, nil)

	names, err := p.Names(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCommandProvider_Cache(t *testing.T) {
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	config := Config{
		SourceCommand: []string{"src"},
		CacheTTL:      time.Hour,
	}
	outputs := map[string]string{"src": "openssl\nbash\n"}

	var first int32
	p := NewCommandProvider(config, store, zaptest.NewLogger(t))
	p.run = fakeRun(&first, outputs)
	_, err = p.SourcePackages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), first)

	// A second session reads the fresh snapshot instead of running the command
	var second int32
	p2 := NewCommandProvider(config, store, zaptest.NewLogger(t))
	p2.run = fakeRun(&second, outputs)
	src, err := p2.SourcePackages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bash", "openssl"}, src)
	assert.Equal(t, int32(0), second)
}

func TestCommandProvider_RealCommand(t *testing.T) {
	p := NewCommandProvider(Config{
		SourceCommand: []string{"/bin/sh", "-c", "printf 'curl 8.5\\nopenssl 3\\n'"},
		Timeout:       10 * time.Second,
	}, nil, zaptest.NewLogger(t))

	src, err := p.SourcePackages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"curl", "openssl"}, src)
}
