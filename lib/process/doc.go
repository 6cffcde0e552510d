// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

// Package process maps the error returned by a binary's run() to a
// process exit status, printing it once on stderr unless the error
// says it has already been reported.
package process
