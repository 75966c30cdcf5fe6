// cvetriage - interactive triage of CVE records in a plain text worklist.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/jeranaias/cvetriage/internal/cli"
)

// Version information, set by the build:
//
//	go build -ldflags "-X main.Version=1.2.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if Version != "dev" {
		cli.Version = Version
	}
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate

	os.Exit(cli.Execute(os.Args[1:]))
}
