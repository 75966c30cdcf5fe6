// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across cvetriage.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - ExpandHome: resolve a leading ~ in configured paths
//
// Display:
//   - Truncate, PadRight: width-aware string fitting
//   - Columns: lay out completion candidates in terminal columns
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0644)
//
//	for _, row := range util.Columns(candidates, 80) {
//	    fmt.Println(row)
//	}
package util
