// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch reports changes to the triage document on disk.
//
// The directory holding the file is watched rather than the file itself so
// that editors which save through a rename are still seen. Bursts of events
// are debounced into one Change.
//
// # Usage
//
//	w, err := watch.New(path, 300*time.Millisecond, logger)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	for change := range w.Changes() {
//	    if change.Removed { ... }
//	}
package watch
