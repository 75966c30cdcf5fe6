// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package surface

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cvetriage/internal/ui/styles"
)

func TestManagerReuse(t *testing.T) {
	m := NewManager()
	s := m.Get("usn")
	io.WriteString(s, "old output\n")
	s.SetMode(ModeGrep)
	s.Highlight("openssl")

	again := m.Reset("usn")
	assert.Same(t, s, again, "surface is reused per name")
	assert.Empty(t, again.Text())
	assert.Equal(t, ModeNone, again.Mode())
	assert.Empty(t, again.Highlights())
	assert.Equal(t, 1, again.Generation())

	m.Get("other")
	assert.Equal(t, []string{"other", "usn"}, m.Names())
}

func TestHighlightDedup(t *testing.T) {
	s := NewManager().Get("x")
	s.Highlight("OpenSSL")
	s.Highlight("openssl")
	s.Highlight(" ")
	assert.Equal(t, []string{"OpenSSL"}, s.Highlights())
}

func TestHighlightSpans(t *testing.T) {
	spans := HighlightSpans("libssl3 and LIBSSL", []string{"libssl", "libssl3"})
	require.Len(t, spans, 2)
	assert.Equal(t, Span{0, 7}, spans[0])
	assert.Equal(t, Span{12, 18}, spans[1])

	assert.Nil(t, HighlightSpans("anything", nil))
	assert.Len(t, HighlightSpans("a.b axb", []string{"a.b"}), 1, "terms are literal")
}

func TestParseMode(t *testing.T) {
	for _, name := range []string{"", "text", "GREP"} {
		_, err := ParseMode(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseMode("occur")
	assert.Error(t, err)
}

func TestLocations(t *testing.T) {
	s := NewManager().Get("grep")
	fmt.Fprint(s, "active/CVE-2020-0001:12:Priority: high\nnoise\nretired/x:3:y\n")
	assert.Nil(t, s.Locations(), "only grep mode parses locations")

	s.SetMode(ModeGrep)
	locs := s.Locations()
	require.Len(t, locs, 2)
	assert.Equal(t, Location{File: "active/CVE-2020-0001", Line: 12, Text: "Priority: high"}, locs[0])
	assert.Equal(t, 3, locs[1].Line)
}

func TestRenderPlain(t *testing.T) {
	s := NewManager().Get("grep")
	fmt.Fprint(s, "a.txt:1:openssl here")
	s.SetMode(ModeGrep)
	s.Highlight("openssl")

	// Without color the text comes back unchanged
	assert.Equal(t, "a.txt:1:openssl here", s.Render(styles.NewTheme(styles.ColorNever)))
}
