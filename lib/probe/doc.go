// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

// Package probe answers one question before a deployment touches a
// host: is it reachable at all? Each [Prober] sends a single bounded
// probe and returns nil or the reason it failed. Nothing is retried.
package probe
