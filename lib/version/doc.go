// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports which build of turbo-deploy is running.
//
// Release builds stamp [GitCommit], [GitDirty], [BuildTime], and
// [Version] with -ldflags -X. Binaries built with plain "go build" or
// "go install" from a checkout fall back to the VCS settings the Go
// toolchain embeds, so --version still names a commit.
package version
