// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger shared by the command line and the
// interactive session.
//
// Output is a console encoding with ISO8601 timestamps written to stderr or
// to a log file. The default level is warn so that the interactive session is
// not interleaved with routine messages; verbose mode logs at debug.
//
// # Usage
//
//	logger, err := logging.New(logging.Options{Verbose: verbose})
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
package logging
