// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferEdit(t *testing.T) {
	b := NewBuffer("CVE-2020-0001\nCVE-2020-0002\n")
	b.SetCursor(14)

	err := b.Edit(func(doc *Document, cursor int) (*Change, error) {
		return &Change{Start: 13, End: 13, Text: " skip"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "CVE-2020-0001 skip\nCVE-2020-0002\n", b.Text())
	assert.Equal(t, 19, b.Cursor(), "cursor after the change shifts")
	assert.True(t, b.Dirty())
	assert.Equal(t, ActionSkip, b.Document().Actions(b.Document().Blocks()[0])[0].Kind)
}

func TestBufferEditFailureLeavesText(t *testing.T) {
	b := NewBuffer("CVE-2020-0001\n")
	sentinel := errors.New("boom")

	err := b.Edit(func(doc *Document, cursor int) (*Change, error) {
		return nil, sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "CVE-2020-0001\n", b.Text())
	assert.False(t, b.Dirty())

	err = b.Replace(5, 100, "x")
	assert.Error(t, err)
	assert.Equal(t, "CVE-2020-0001\n", b.Text())
}

func TestBufferSetCursorClamps(t *testing.T) {
	b := NewBuffer("abc")
	assert.Equal(t, 3, b.SetCursor(99))
	assert.Equal(t, 0, b.SetCursor(-1))
}

func TestBufferSaveReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triage.txt")
	require.NoError(t, os.WriteFile(path, []byte("CVE-2020-0001\n"), 0600))

	b, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, b.Replace(13, 13, " unembargo"))
	require.NoError(t, b.Save())
	assert.False(t, b.Dirty())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "CVE-2020-0001 unembargo\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, os.WriteFile(path, []byte("CVE-2021-0001\n"), 0600))
	b.SetCursor(20)
	require.NoError(t, b.Reload())
	assert.Equal(t, "CVE-2021-0001\n", b.Text())
	assert.Equal(t, 14, b.Cursor())
}

func TestBufferSaveWithoutPath(t *testing.T) {
	b := NewBuffer("x")
	assert.Error(t, b.Save())

	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, b.SaveAs(path))
	assert.Equal(t, path, b.Path())
}
