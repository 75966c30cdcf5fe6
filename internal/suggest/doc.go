// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package suggest mines earlier action lines for reusable free text.
//
// SuggestedNames scans backward from the cursor to the top of the current
// block, collecting the free text of ignore and add lines as whole phrases
// and as single words. History keeps the ignore reasons used during a
// session; it only grows.
//
// # Key Types
//
//   - History: append-only, concurrency-safe list of ignore reasons
//
// # Usage
//
//	names, err := suggest.SuggestedNames(buf.Document(), buf.Cursor())
//	candidates := suggest.IgnoreCandidates(names, sess.History.Snapshot())
package suggest
