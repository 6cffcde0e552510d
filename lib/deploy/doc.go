// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

// Package deploy orchestrates a single deployment of the backend
// services to one remote host:
//
//	preflight -> sync -> bootstrap -> launch -> warm-up -> verify
//
// Each stage runs once, in order, against an immutable [Target]. The
// first four stages are fatal on failure: the run stops, the
// [StageError] names the stage, and no later primitive is invoked.
// Warm-up and verification never abort. A failing service shows up
// as an unhealthy [ServiceResult] and the run ends degraded.
//
// The orchestrator owns no transport. Reachability, remote commands,
// file upload, and HTTP checks arrive through the [Prober], [Remote],
// and [Checker] interfaces, which lib/probe, lib/remote, and
// lib/health implement. Tests substitute fakes for all of them.
package deploy
