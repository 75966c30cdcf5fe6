// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package surface

import (
	"strconv"
	"strings"

	"github.com/jeranaias/cvetriage/internal/ui/styles"
)

// Render returns the surface text styled for its mode with highlight terms
// marked.
func (s *Surface) Render(theme *styles.Theme) string {
	text := s.Text()
	mode := s.Mode()
	terms := s.Highlights()

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if mode == ModeGrep {
			if loc, ok := ParseLocation(line); ok {
				prefix := loc.File + ":" + strconv.Itoa(loc.Line) + ":"
				lines[i] = theme.Location.Render(prefix) + highlightLine(loc.Text, terms, theme)
				continue
			}
		}
		lines[i] = highlightLine(line, terms, theme)
	}
	return strings.Join(lines, "\n")
}

func highlightLine(line string, terms []string, theme *styles.Theme) string {
	spans := HighlightSpans(line, terms)
	if len(spans) == 0 {
		return line
	}
	var b strings.Builder
	last := 0
	for _, sp := range spans {
		b.WriteString(line[last:sp.Start])
		b.WriteString(theme.Highlight.Render(line[sp.Start:sp.End]))
		last = sp.End
	}
	b.WriteString(line[last:])
	return b.String()
}
