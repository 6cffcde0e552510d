// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger writing to stderr. When
// stderr is a terminal it uses slog.TextHandler for human-readable
// output; when piped or redirected it uses slog.JSONHandler so CI logs
// stay machine-parseable.
//
// Stage progress and the final report already go to stdout, so the
// default level is warn. verbose lowers it to debug.
//
// Callers scope the logger with command-specific context via With():
//
//	logger := cli.NewCommandLogger(false).With(
//	    "command", "deploy",
//	    "host", target.Host,
//	)
func NewCommandLogger(verbose bool) *slog.Logger {
	return newLogger(os.Stderr, IsTerminal(os.Stderr), verbose)
}

func newLogger(w io.Writer, terminal, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if terminal {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
