// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff compares two versions of a triage document.
//
// It is used to review unsaved edits against the file on disk. Hunks carry
// the identifier of the record they change, the way unified diffs of source
// code carry the enclosing function.
//
// # Key Types
//
//   - Diff: Hunks plus added and removed line counts
//   - Hunk: A run of changes with context, labelled with its record
//   - Line: One context, added or removed line
//
// # Usage
//
//	d := diff.Compute(path, saved, buf.Text())
//	if !d.Empty() {
//	    fmt.Print(d.Unified())
//	}
package diff
