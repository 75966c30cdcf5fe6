// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools dispatches configured lookup tools against keyword input.
//
// A Descriptor names either a shell command template or an in-process
// function. Dispatch joins the keywords with single spaces, optionally case
// folds them, and either calls the function synchronously or spawns the
// command into the tool's output surface without blocking. When the run
// terminates, a continuation applies the descriptor's presentation mode,
// highlights the keywords and hands over to the default status notifier.
//
// Dispatching an unregistered name fails with ErrUnknownTool before anything
// runs. Command failures are not errors here; they show up as the exit
// status written to the surface.
//
// Runs of the same tool are not serialized. A second dispatch resets the
// shared surface, and the continuation of the first run may still mark it.
//
// # Usage
//
//	d := tools.NewDispatcher(registry, runner, tracker, surfaces, logger)
//	job, err := d.Dispatch(ctx, "usn-search", []string{"openssl"})
//	if errors.Is(err, tools.ErrUnknownTool) {
//	    ...
//	}
//	<-job.Done()
package tools
