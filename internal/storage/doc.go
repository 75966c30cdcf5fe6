// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists triage state that outlives a session.
//
// Two things are kept in a single SQLite database: the ignore reasons
// entered during earlier sessions, and the package inventory lists with the
// time they were fetched.
//
// # Key Types
//
//   - Store: the database handle; satisfies suggest.Sink
//   - PackageKind: which inventory a cached list belongs to
//
// # Usage
//
//	store, err := storage.Open(filepath.Join(dataDir, "triage.db"))
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	history := suggest.NewHistory(store, logger)
//	reasons, _ := store.Reasons(ctx)
//	history.Seed(reasons...)
//
// # Storage Location
//
// The database lives in ~/.cvetriage/triage.db unless the data directory is
// configured elsewhere. The path ":memory:" opens a private in-memory
// database.
package storage
