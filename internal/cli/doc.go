// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the cvetriage command line.
//
// The root command loads the configuration and logger once; each subcommand
// opens a session on the triage document it is given.
//
// # Commands
//
//   - edit: Interactive triage REPL with tab completion
//   - blocks, check: List records and flagged values
//   - complete, suggest: Print the candidate set or mined suggestions at an offset
//   - search: Dispatch a tool and print its output
//   - show: Render a document with highlighting
//   - config: Show, query or initialize the configuration
//   - commands: Reference of the REPL commands
//   - version: Print version information
//
// # Usage
//
//	os.Exit(cli.Execute(os.Args[1:]))
package cli
