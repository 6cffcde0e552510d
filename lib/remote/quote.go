// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import "strings"

// Quote quotes s for a POSIX shell. Strings made only of safe
// characters are returned unchanged; anything else is single-quoted
// with embedded quotes written as '\''.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, unsafeShellRune) == -1 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func unsafeShellRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	switch r {
	case '-', '_', '.', '/', '@', ':', ',', '+', '=':
		return false
	}
	return true
}

// QuotePath quotes a remote path like [Quote] but keeps a leading "~"
// meaning the remote user's home directory.
func QuotePath(path string) string {
	switch {
	case path == "~":
		return `"$HOME"`
	case strings.HasPrefix(path, "~/"):
		rest := strings.TrimLeft(path[2:], "/")
		if rest == "" {
			return `"$HOME"`
		}
		return `"$HOME"/` + Quote(rest)
	default:
		return Quote(path)
	}
}

// InDirectory prefixes command with a cd into directory.
func InDirectory(directory, command string) string {
	return "cd " + QuotePath(directory) + " && " + command
}
