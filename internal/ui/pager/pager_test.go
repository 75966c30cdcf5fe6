// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pager

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "triage.txt:%d:CVE-2020-%04d\n", i, i)
	}
	return b.String()
}

func resize(t *testing.T, m Model, w, h int) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return next.(Model)
}

func TestModel_View(t *testing.T) {
	m := New(Options{Title: "grep-doc", Content: func() string { return lines(3) }})
	m = resize(t, m, 60, 10)

	view := m.View()
	assert.Contains(t, view, "grep-doc")
	assert.Contains(t, view, "triage.txt:2:CVE-2020-0002")
	assert.Contains(t, view, "q quit")
}

func TestModel_Quit(t *testing.T) {
	m := New(Options{Title: "x"})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_Scrolling(t *testing.T) {
	m := New(Options{Title: "x", Content: func() string { return lines(50) }})
	m = resize(t, m, 60, 12)

	assert.Contains(t, m.View(), "CVE-2020-0001")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("G")})
	m = next.(Model)
	view := m.View()
	assert.Contains(t, view, "CVE-2020-0050")
	assert.NotContains(t, view, "CVE-2020-0001")
}

func TestModel_LiveRefresh(t *testing.T) {
	content := "first\n"
	m := New(Options{Title: "x", Live: true, Content: func() string { return content }})
	require.NotNil(t, m.Init())
	m = resize(t, m, 40, 10)

	content = "first\nsecond\n"
	next, cmd := m.Update(refreshMsg{})
	m = next.(Model)

	assert.NotNil(t, cmd, "live pager keeps ticking")
	assert.Equal(t, "first\nsecond\n", m.Content())
	assert.Contains(t, m.View(), "second")
}

func TestModel_StaticHasNoTicker(t *testing.T) {
	m := New(Options{Title: "x"})
	assert.Nil(t, m.Init())
}
