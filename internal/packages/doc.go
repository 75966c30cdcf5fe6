// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package packages supplies the package names offered when completing the
// package list of an add or edit line.
//
// Names come from two inventory commands, one listing source packages and
// one listing binary packages. Each command prints one package per line; the
// first whitespace-separated field is taken as the name. Both commands run at
// most once per provider, concurrently, and the result is kept for the
// lifetime of the provider. An optional cache stores each list with its fetch
// time so a later session can skip the commands while the list is fresh.
//
// # Key Types
//
//   - Provider: the source/binary lists
//   - CommandProvider: runs the inventory commands
//   - Static: fixed lists, for tests and offline use
//
// # Usage
//
//	p := packages.NewCommandProvider(packages.Config{
//	    SourceCommand: []string{"apt-cache", "dumpavail"},
//	    CacheTTL:      24 * time.Hour,
//	}, store, logger)
//	names, err := p.Names(ctx)
package packages
