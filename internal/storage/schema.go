// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// Schema is the SQLite schema for the triage store.
const Schema = `
-- Ignore reasons in the order they were entered
CREATE TABLE IF NOT EXISTS ignore_reasons (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    reason TEXT NOT NULL,
    added_at INTEGER NOT NULL
);

-- Package inventory snapshots, one row per name
CREATE TABLE IF NOT EXISTS package_cache (
    kind TEXT NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (kind, name)
);

-- Fetch time of each inventory snapshot
CREATE TABLE IF NOT EXISTS package_fetch (
    kind TEXT PRIMARY KEY,
    fetched_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ignore_reasons_added ON ignore_reasons(added_at);
`
