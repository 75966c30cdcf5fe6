// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package edit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cvetriage/internal/document"
)

func TestSetTrailingFields(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		cursor int
		value  string
		want   string
	}{
		{
			name: "bare identifier", text: "CVE-2020-0001\n", cursor: 0,
			value: "skip", want: "CVE-2020-0001 skip\n",
		},
		{
			name: "replace action", text: "CVE-2020-0001 add high foo\nCVE-2020-0002\n", cursor: 5,
			value: "ignore \"x\"", want: "CVE-2020-0001 ignore \"x\"\nCVE-2020-0002\n",
		},
		{
			name: "cursor on continuation line", text: "CVE-2020-0001 skip\nedit low foo\n", cursor: 22,
			value: "unembargo", want: "CVE-2020-0001 unembargo\nedit low foo\n",
		},
		{
			name: "empty clears", text: "CVE-2020-0001 add high foo", cursor: 0,
			value: "", want: "CVE-2020-0001",
		},
		{
			name: "no trailing newline", text: "CVE-2020-0001", cursor: 13,
			value: "add low a b", want: "CVE-2020-0001 add low a b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := document.NewBuffer(tt.text)
			require.NoError(t, SetTrailingFields(buf, tt.cursor, tt.value))
			assert.Equal(t, tt.want, buf.Text())

			// Applying twice yields the same document
			require.NoError(t, SetTrailingFields(buf, tt.cursor, tt.value))
			assert.Equal(t, tt.want, buf.Text())
		})
	}
}

func TestSetTrailingFieldsNoRecord(t *testing.T) {
	buf := document.NewBuffer("notes\nCVE-2020-0001\n")
	err := SetTrailingFields(buf, 2, "skip")
	assert.ErrorIs(t, err, document.ErrNoRecordFound)
	assert.Equal(t, "notes\nCVE-2020-0001\n", buf.Text())
	assert.False(t, buf.Dirty())
}

type fakePrompter struct {
	priority document.Priority
	packages []string
	asked    []string
}

func (f *fakePrompter) Priority(ctx context.Context, id string, choices []document.Priority) (document.Priority, error) {
	f.asked = append(f.asked, "priority")
	return f.priority, nil
}

func (f *fakePrompter) Packages(ctx context.Context, id string) ([]string, error) {
	f.asked = append(f.asked, "packages")
	return f.packages, nil
}

func TestAddOrEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit fields", func(t *testing.T) {
		buf := document.NewBuffer("CVE-2020-0001\n")
		require.NoError(t, AddOrEdit(ctx, buf, 0, document.ActionAdd, document.PriorityHigh, []string{"a", "b"}, nil))
		assert.Equal(t, "CVE-2020-0001 add high a b\n", buf.Text())
	})

	t.Run("recovers from existing line", func(t *testing.T) {
		buf := document.NewBuffer("CVE-2020-0001 add medium openssl\n")
		p := &fakePrompter{}
		require.NoError(t, AddOrEdit(ctx, buf, 0, document.ActionEdit, "", nil, p))
		assert.Equal(t, "CVE-2020-0001 edit medium openssl\n", buf.Text())
		assert.Empty(t, p.asked)
	})

	t.Run("recovers from continuation line", func(t *testing.T) {
		buf := document.NewBuffer("CVE-2020-0001\nedit low bash zsh\n")
		require.NoError(t, AddOrEdit(ctx, buf, 0, document.ActionAdd, document.PriorityCritical, nil, nil))
		assert.Equal(t, "CVE-2020-0001 add critical bash zsh\nedit low bash zsh\n", buf.Text())
	})

	t.Run("prompts for missing fields", func(t *testing.T) {
		buf := document.NewBuffer("CVE-2020-0001\n")
		p := &fakePrompter{priority: document.PriorityLow, packages: []string{"curl"}}
		require.NoError(t, AddOrEdit(ctx, buf, 0, document.ActionAdd, "", nil, p))
		assert.Equal(t, "CVE-2020-0001 add low curl\n", buf.Text())
		assert.Equal(t, []string{"priority", "packages"}, p.asked)
	})

	t.Run("empty priority answer", func(t *testing.T) {
		buf := document.NewBuffer("CVE-2020-0001\n")
		p := &fakePrompter{packages: []string{"openssl", "libssl3"}}
		err := AddOrEdit(ctx, buf, 0, document.ActionAdd, "", nil, p)
		assert.ErrorIs(t, err, ErrIncomplete)
		assert.Equal(t, "CVE-2020-0001\n", buf.Text())
		assert.Equal(t, []string{"priority"}, p.asked)
	})

	t.Run("missing without prompter", func(t *testing.T) {
		buf := document.NewBuffer("CVE-2020-0001\n")
		err := AddOrEdit(ctx, buf, 0, document.ActionAdd, document.PriorityLow, nil, nil)
		assert.ErrorIs(t, err, ErrIncomplete)
		assert.Equal(t, "CVE-2020-0001\n", buf.Text())
	})

	t.Run("rejects other kinds", func(t *testing.T) {
		buf := document.NewBuffer("CVE-2020-0001\n")
		assert.Error(t, AddOrEdit(ctx, buf, 0, document.ActionIgnore, "", nil, nil))
	})
}

func TestSetPriority(t *testing.T) {
	buf := document.NewBuffer("CVE-2020-0001 add untriaged foo bar\nCVE-2020-0002 ignore \"x\"\nedit\n")

	assert.True(t, SetPriority(buf, 3, document.PriorityHigh))
	assert.Equal(t, "CVE-2020-0001 add high foo bar\nCVE-2020-0002 ignore \"x\"\nedit\n", buf.Text())

	// Not an add/edit line
	before := buf.Text()
	assert.False(t, SetPriority(buf, 32, document.PriorityLow))
	assert.Equal(t, before, buf.Text())

	// Continuation edit line without priority gets one inserted
	editLine := len(buf.Text()) - len("edit\n")
	assert.True(t, SetPriority(buf, editLine, document.PriorityLow))
	assert.Equal(t, "CVE-2020-0001 add high foo bar\nCVE-2020-0002 ignore \"x\"\nedit low\n", buf.Text())
}

func TestRepeatPrevious(t *testing.T) {
	buf := document.NewBuffer("CVE-2020-0001 add low bash\nCVE-2020-0002\n")
	require.NoError(t, RepeatPrevious(buf, 30))
	assert.Equal(t, "CVE-2020-0001 add low bash\nCVE-2020-0002 add low bash\n", buf.Text())

	err := RepeatPrevious(buf, 0)
	assert.True(t, errors.Is(err, ErrNoPreviousRecord))

	err = RepeatPrevious(document.NewBuffer("text\n"), 0)
	assert.ErrorIs(t, err, document.ErrNoRecordFound)
}

type recorder []string

func (r *recorder) Add(reason string) { *r = append(*r, reason) }

func TestIgnore(t *testing.T) {
	buf := document.NewBuffer("CVE-2020-0001\n")
	var rec recorder

	require.NoError(t, Ignore(buf, 0, `"code not present"`, &rec))
	assert.Equal(t, "CVE-2020-0001 ignore \"code not present\"\n", buf.Text())
	assert.Equal(t, recorder{"code not present"}, rec)

	assert.Error(t, Ignore(buf, 0, "  ", &rec))
	assert.Len(t, rec, 1)
}
