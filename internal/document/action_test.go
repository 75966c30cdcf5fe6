// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		ok       bool
		id       string
		kind     ActionKind
		priority Priority
		packages []string
		reason   string
	}{
		{name: "bare identifier", line: "CVE-2020-0001", ok: true, id: "CVE-2020-0001", kind: ActionNone},
		{name: "identifier with trailing space", line: "CVE-2020-0001 ", ok: true, id: "CVE-2020-0001", kind: ActionNone},
		{
			name: "add", line: "CVE-2020-0001 add high openssl libssl", ok: true, id: "CVE-2020-0001",
			kind: ActionAdd, priority: PriorityHigh, packages: []string{"openssl", "libssl"},
		},
		{
			name: "edit continuation", line: "edit low bash", ok: true,
			kind: ActionEdit, priority: PriorityLow, packages: []string{"bash"},
		},
		{name: "add without priority", line: "CVE-2020-0001 add", ok: true, id: "CVE-2020-0001", kind: ActionAdd},
		{
			name: "ignore", line: `CVE-2020-0002 ignore "not applicable"`, ok: true, id: "CVE-2020-0002",
			kind: ActionIgnore, reason: `"not applicable"`,
		},
		{name: "skip", line: "CVE-2020-0003 skip", ok: true, id: "CVE-2020-0003", kind: ActionSkip},
		{name: "unembargo", line: "CVE-2020-0003 unembargo", ok: true, id: "CVE-2020-0003", kind: ActionUnembargo},
		{name: "unknown on identifier line", line: "CVE-2020-0003 frobnicate", ok: true, id: "CVE-2020-0003", kind: ActionUnknown},
		{name: "plain text", line: "some notes here", ok: false},
		{name: "blank", line: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.id, got.ID)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.priority, got.Priority)
			assert.Equal(t, tt.reason, got.Reason)
			if diff := cmp.Diff(tt.packages, got.Packages); diff != "" {
				t.Errorf("packages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseLineColumns(t *testing.T) {
	line := "CVE-2020-0001 add  high openssl"
	a, ok := ParseLine(line)
	require.True(t, ok)
	assert.Equal(t, "add", line[a.KeywordCol:a.KeywordCol+len(a.Keyword)])
	assert.Equal(t, "high", line[a.PriorityCol:a.PriorityCol+len(a.Priority)])
}

func TestActionFormat(t *testing.T) {
	a, ok := ParseLine("CVE-2020-0001   add   high  a b")
	require.True(t, ok)
	assert.Equal(t, "add high a b", a.Format())

	a, ok = ParseLine(`CVE-2020-0001 ignore "x y"`)
	require.True(t, ok)
	assert.Equal(t, `ignore "x y"`, a.Format())
	assert.Equal(t, `"x y"`, a.FreeText())
}

func TestFlags(t *testing.T) {
	doc := Parse(`CVE-2020-0001 add untriaged foo
CVE-2020-0002 skip
CVE-2020-0003 add high foo
CVE-2020-0004 edit
CVE-2020-0005 frob
CVE-2020-0006 ignore "whatever"
`)
	flags := doc.Flags()
	require.Len(t, flags, 4)

	assert.Equal(t, 0, flags[0].Line)
	assert.Equal(t, "untriaged", flags[0].Value)
	assert.True(t, errors.Is(flags[0], ErrInvalidPriority))
	assert.Equal(t, "untriaged", doc.Text()[flags[0].Offset:flags[0].End()])

	assert.Equal(t, 1, flags[1].Line)
	assert.Equal(t, "skip", flags[1].Value)
	assert.True(t, errors.Is(flags[1], ErrInvalidAction))

	assert.Equal(t, 3, flags[2].Line)
	assert.Equal(t, "", flags[2].Value)
	assert.True(t, errors.Is(flags[2], ErrInvalidPriority))
	assert.Contains(t, flags[2].Error(), "missing")

	assert.Equal(t, 4, flags[3].Line)
	assert.True(t, errors.Is(flags[3], ErrInvalidAction))
}
