// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// suggest.go - Command suggestion for typo correction.

package cli

import (
	"strings"
)

// SuggestCommand returns the candidate closest to input, or "" when none is
// close enough. The threshold grows with the input length.
func SuggestCommand(input string, candidates []string) string {
	input = strings.ToLower(input)

	// Don't suggest for very short inputs (likely intentional)
	if len(strings.TrimLeft(input, "/")) < 2 {
		return ""
	}

	// <=3 chars: 1 edit; 4-8 chars: 2 edits (catches transpositions); longer: 3
	maxDistance := 1
	if len(input) >= 4 {
		maxDistance = 2
	}
	if len(input) > 8 {
		maxDistance = 3
	}

	bestMatch := ""
	bestDistance := -1
	for _, cmd := range candidates {
		distance := levenshteinDistance(input, strings.ToLower(cmd))
		if distance == 0 {
			return ""
		}
		if distance <= maxDistance && (bestDistance == -1 || distance < bestDistance) {
			bestDistance = distance
			bestMatch = cmd
		}
	}

	return bestMatch
}

// levenshteinDistance calculates the edit distance between two strings:
// the minimum number of single-byte insertions, deletions or substitutions.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	// Two rows instead of the full matrix
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}

// didYouMean formats the suggestion hint, or "" without a match.
func didYouMean(input string, candidates []string) string {
	if s := SuggestCommand(input, candidates); s != "" {
		return "did you mean " + s + "?"
	}
	return ""
}
