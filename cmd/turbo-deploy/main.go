// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

// turbo-deploy deploys the turbo-translate backend to its host and
// verifies that every service answers.
//
// Usage:
//
//	turbo-deploy [deploy|status|plan] [flags]
//
// Run "turbo-deploy --help" for the full flag list.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/turbo-translate/turbo-deploy/cmd/turbo-deploy/commands"
	"github.com/turbo-translate/turbo-deploy/lib/process"
)

func main() {
	// Errors that carry an exit code (a degraded run under
	// --fail-on-degraded) have already been reported; anything else
	// is printed once as "error: ...".
	process.Exit(run())
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.Root().Execute(ctx, os.Args[1:])
}
