// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the time source used by the deployer's waiting
// code: the warm-up readiness poll and its backoff between attempts.
//
// Production code passes Real(). Tests pass Fake(), whose time only moves
// when the test calls Advance, so a sixty-second warm-up deadline can be
// exercised without sleeping:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go waiter.Wait(ctx, services)
//	fake.WaitForTimers(1)        // the poll loop is now blocked on a backoff
//	fake.Advance(2 * time.Second) // release it
//
// WaitForTimers closes the race between a goroutine registering a timer
// and the test advancing past it.
package clock
