// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"
)

// columnGap separates columns in Columns output.
const columnGap = 2

// Truncate fits s into width display columns, ending in "..." when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// PadRight pads s with spaces to width display columns.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// Columns lays items out column-major, like ls, within width display
// columns. Each returned row has no trailing spaces.
func Columns(items []string, width int) []string {
	if len(items) == 0 {
		return nil
	}

	widest := 0
	for _, item := range items {
		if w := runewidth.StringWidth(item); w > widest {
			widest = w
		}
	}

	cols := (width + columnGap) / (widest + columnGap)
	if cols < 1 {
		cols = 1
	}
	rows := (len(items) + cols - 1) / cols

	out := make([]string, rows)
	for r := 0; r < rows; r++ {
		var line strings.Builder
		for c := 0; c < cols; c++ {
			i := c*rows + r
			if i >= len(items) {
				break
			}
			if c > 0 {
				line.WriteString(strings.Repeat(" ", columnGap))
			}
			line.WriteString(PadRight(items[i], widest))
		}
		out[r] = strings.TrimRight(line.String(), " ")
	}
	return out
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
