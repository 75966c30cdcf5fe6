// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles for cvetriage command output.

package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/cvetriage/internal/ui/styles"
)

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(12)

	// ValueStyle is used for field values
	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	// ErrorStyle is used for error messages
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Rose)

	// WarningStyle is used for warnings
	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// SuccessStyle is used for success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	// DimStyle is used for secondary information
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)
)

// applyColorMode sets the lipgloss profile used by the shared styles.
func applyColorMode(mode styles.ColorMode) {
	switch mode {
	case styles.ColorNever:
		lipgloss.SetColorProfile(termenv.Ascii)
	case styles.ColorAlways:
		if termenv.ColorProfile() == termenv.Ascii {
			lipgloss.SetColorProfile(termenv.ANSI256)
		}
	}
}

// formatField renders a "label value" line.
func formatField(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value)
}
