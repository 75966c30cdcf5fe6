// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package surface holds the named output buffers tool runs write into.
//
// One surface exists per tool name and is reset on every dispatch. After a
// run terminates a presentation mode and keyword highlights may be applied.
// Concurrent writers are serialized, but two runs of the same tool share a
// surface and may interleave.
//
// # Key Types
//
//   - Surface: output text with mode and highlight terms
//   - Manager: surfaces by name
//   - Mode: presentation of the text (text, grep)
package surface
