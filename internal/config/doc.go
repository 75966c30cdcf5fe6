// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for cvetriage.
//
// Configuration is TOML with defaults for every key, environment variable
// overrides and validation.
//
// # Key Types
//
//   - Config: main configuration structure
//   - PackagesConfig: package inventory commands and cache
//   - HistoryConfig: ignore reason seed file and persistence
//   - ToolConfig: one external lookup tool
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CVETRIAGE_*)
//   - ~/.cvetriage/config.toml, or the file given with --config
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	descriptors, err := cfg.Descriptors()
//
// Tool descriptors are read once at start and never changed afterwards.
package config
