// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for turbo-deploy.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a [pflag.FlagSet] factory, and a
// Run function. The command tree is assembled in the commands package and
// dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and structured help output with examples.
//
// Flags are declared as tagged struct fields and bound with
// [FlagsFromParams]. When a user types an unknown subcommand or flag,
// the framework suggests the closest known name by Levenshtein edit
// distance (threshold: distance <= 3).
//
// Errors returned to main carry their exit status: [ExitError] for
// outcomes the command already reported, [ToolError] for categorized
// failures printed once as "error: ...".
package cli
