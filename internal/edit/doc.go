// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package edit moves the cursor between CVE blocks and rewrites their action
// fields.
//
// Navigation is a pure function of a document and a cursor. Mutations go
// through document.Buffer.Edit so a failed operation never writes.
//
// # Usage
//
//	next, err := edit.Advance(buf.Document(), buf.Cursor(), 1, edit.Forward)
//	if errors.Is(err, edit.ErrNoMoreRecords) {
//	    // stay put
//	}
//	buf.SetCursor(next)
//
//	err = edit.AddOrEdit(ctx, buf, buf.Cursor(), document.ActionAdd, "", nil, prompter)
package edit
