// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks runs external lookup commands in the background.
//
// Every dispatched command becomes a Job. A Job is a future: it resolves once
// with a Result (exit status and output) when its process terminates, and
// continuations attached with Then run strictly after that termination.
// There is no cancellation; an abandoned job runs to completion.
//
// # Key Types
//
//   - Job: one command run with its output buffer and completion future
//   - Result: exit code, signal flag and captured output
//   - Runner: spawns shell commands and in-process functions
//   - Tracker: list of jobs with completion notifications
//
// # Usage
//
//	runner := tasks.NewRunner(tracker, logger)
//	job := runner.Spawn("usn-search", "grep -i openssl notes.txt", surface)
//	job.Then(func(j *tasks.Job, res tasks.Result) {
//	    fmt.Println("exit", res.ExitCode)
//	})
//
//	res, err := job.Wait(ctx)
package tasks
