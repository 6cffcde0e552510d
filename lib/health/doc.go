// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

// Package health checks HTTP liveness endpoints.
//
// [Verify] performs exactly one GET per endpoint, concurrently, and
// returns the results in input order. A service is healthy when a
// response arrives with a 2xx status within the checker's timeout.
//
// [Warmup] is the readiness poll that precedes verification: it keeps
// checking endpoints that are not yet healthy, backing off between
// rounds, until all of them answer or the deadline passes. Warm-up
// results are discarded; only [Verify] decides the reported health.
package health
