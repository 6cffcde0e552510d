// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

// Package remote runs commands on the deployment host over SSH.
//
// A [Client] wraps one SSH connection and exposes the two primitives a
// deployment needs: [Client.Run] executes a shell command and returns
// its combined output and exit status, and [Client.Upload] streams a
// gzip'd tar archive into a remote directory. Every call opens its own
// session, so calls are independent and may not share shell state.
//
// Commands are passed to the remote login shell verbatim. Build them
// with [Quote] and [QuotePath] so that paths containing spaces or
// quotes survive.
package remote
