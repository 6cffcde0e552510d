// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for the deployer's
// packages.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so tests that drive a fake clock never hang when the code
// under test stops making progress. They are the only place tests use a
// real wall-clock timeout.
//
// [WriteTree] materializes a map of relative paths to contents as a
// directory tree, for tests of artifact packing and synchronization.
//
// All helpers call t.Fatalf on failure.
package testutil
