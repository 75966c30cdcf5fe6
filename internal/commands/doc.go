// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the triage REPL command system.
//
// Input starting with / is a slash command; any other input is written as the
// action text of the current CVE record. The package also resolves the
// completion context of an action line prefix and filters candidates for tab
// completion.
//
// # Key Types
//
//   - Registry: Command registry with all available commands
//   - Parser: Splits input into command and arguments
//   - Context: Session state passed to handlers
//   - Resolver: Maps a cursor position to its candidate set
//   - Completer: Tab completion for commands, arguments and actions
//
// # Built-in Commands
//
//   - /next, /prev, /goto: Move between records
//   - /add, /edit, /ignore, /skip, /unembargo, /prio, /repeat, /set: Triage
//   - /sug: Show mined suggestions
//   - /search, /show: Run tools and view their output
//   - /write, /reload, /check, /blocks: Document operations
//
// # Usage
//
//	ctx := commands.NewContext(context.Background(), sess, os.Stdout)
//	if err := commands.Execute(ctx, "/next 2"); err != nil {
//	    fmt.Println(err)
//	}
//
// Get completions:
//
//	res := commands.ForContext(ctx).Complete(context.Background(), "add hi", 6)
//	// res.Values() == ["high"]
package commands
