// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the state of one triage session.
//
// A Session bundles the document buffer, the ignore reason history, the
// package provider, the output surfaces, the job tracker and the tool
// dispatcher. Nothing in cvetriage keeps this state in package variables, so
// several sessions (or tests) can run side by side without sharing history or
// caches.
//
// # Key Types
//
//   - Session: the session object
//   - Options: what to open and how
//   - Status: a snapshot for the status line
//
// # Usage
//
//	s, err := session.New(session.Options{Config: cfg, Path: "triage.txt", Logger: logger})
//	if err != nil {
//	    return err
//	}
//	defer s.Close(ctx)
//
//	job, err := s.Dispatch(ctx, "grep-doc", nil)
package session
