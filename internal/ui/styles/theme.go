// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ColorMode selects whether output is colored.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Valid reports whether m is a known color mode.
func (m ColorMode) Valid() bool {
	return m == ColorAuto || m == ColorAlways || m == ColorNever
}

// Theme holds the styles used to render documents and tool output.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	renderer *lipgloss.Renderer

	// ==========================================================================
	// DOCUMENT STYLES
	// ==========================================================================

	Identifier lipgloss.Style
	Keyword    lipgloss.Style
	Package    lipgloss.Style
	Reason     lipgloss.Style
	Comment    lipgloss.Style
	Flagged    lipgloss.Style
	priorities map[string]lipgloss.Style

	// ==========================================================================
	// OUTPUT STYLES
	// ==========================================================================

	Highlight lipgloss.Style
	Location  lipgloss.Style
	Status    lipgloss.Style
	Prompt    lipgloss.Style
	Muted     lipgloss.Style
	Header    lipgloss.Style
}

// NewTheme creates a theme for the given color mode. Auto detects the
// terminal's color profile.
func NewTheme(mode ColorMode) *Theme {
	renderer := lipgloss.NewRenderer(os.Stdout)
	isDark := true
	profile := termenv.Ascii
	if mode != ColorNever {
		profile = termenv.ColorProfile()
		isDark = termenv.HasDarkBackground()
		if mode == ColorAlways && profile == termenv.Ascii {
			profile = termenv.ANSI256
		}
	}
	renderer.SetColorProfile(profile)
	renderer.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: profile,
		renderer:     renderer,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	s := t.renderer.NewStyle

	t.Identifier = s().Foreground(Purple).Bold(true)
	t.Keyword = s().Foreground(Cyan).Bold(true)
	t.Package = s().Foreground(Emerald)
	t.Reason = s().Foreground(TextPrimary).Italic(true)
	t.Comment = s().Foreground(TextMuted)
	t.Flagged = s().Foreground(Rose).Background(RoseDeep).Underline(true)

	t.priorities = make(map[string]lipgloss.Style, len(PriorityColors))
	for name, color := range PriorityColors {
		t.priorities[name] = s().Foreground(color).Bold(name == "critical")
	}

	t.Highlight = s().Foreground(Amber).Background(AmberDeep).Bold(true)
	t.Location = s().Foreground(Purple)
	t.Status = s().Foreground(TextSecondary).Italic(true)
	t.Prompt = s().Foreground(Cyan).Bold(true)
	t.Muted = s().Foreground(TextMuted)
	t.Header = s().Foreground(Purple).Bold(true).Underline(true)
}

// Priority returns the style of a priority value; unknown values are
// rendered flagged.
func (t *Theme) Priority(name string) lipgloss.Style {
	if style, ok := t.priorities[name]; ok {
		return style
	}
	return t.Flagged
}

// Plain reports whether the theme renders without color.
func (t *Theme) Plain() bool {
	return t.ColorProfile == termenv.Ascii
}
