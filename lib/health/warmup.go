// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"context"
	"fmt"
	"time"

	"github.com/turbo-translate/turbo-deploy/lib/clock"
)

// Mode selects how warm-up waits for services.
type Mode string

const (
	// ModePoll checks endpoints with exponential backoff until all are
	// healthy or the deadline passes.
	ModePoll Mode = "poll"

	// ModeFixed sleeps for the deadline without checking anything.
	ModeFixed Mode = "fixed"
)

// Policy configures [Warmup].
type Policy struct {
	Mode Mode

	// Deadline bounds the whole warm-up. In fixed mode it is the sleep
	// length. Zero disables warm-up.
	Deadline time.Duration

	// InitialBackoff is the wait after the first unsuccessful round.
	// Each later wait doubles, up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultPolicy polls for up to a minute, backing off 1s, 2s, 4s, then
// every 8s.
func DefaultPolicy() Policy {
	return Policy{
		Mode:           ModePoll,
		Deadline:       60 * time.Second,
		InitialBackoff: time.Second,
		MaxBackoff:     8 * time.Second,
	}
}

// Validate reports a policy that [Warmup] cannot run.
func (p Policy) Validate() error {
	switch p.Mode {
	case ModePoll, ModeFixed, "":
	default:
		return fmt.Errorf("unknown warm-up mode %q (want %q or %q)", p.Mode, ModePoll, ModeFixed)
	}
	if p.Deadline < 0 {
		return fmt.Errorf("warm-up deadline must not be negative, got %s", p.Deadline)
	}
	if p.InitialBackoff < 0 || p.MaxBackoff < 0 {
		return fmt.Errorf("warm-up backoff must not be negative")
	}
	return nil
}

// WarmupResult describes how warm-up ended.
type WarmupResult struct {
	// Skipped is set when the deadline is zero.
	Skipped bool

	// Ready is set when every endpoint answered healthy. Fixed mode
	// never sets it.
	Ready bool

	// Rounds counts the polling rounds performed.
	Rounds int

	// Pending names the endpoints still unhealthy when the deadline
	// passed.
	Pending []string

	Elapsed time.Duration
}

// Warmup waits for endpoints to become ready according to policy. An
// expired deadline is not an error: the result reports which
// endpoints never answered and the caller moves on to verification.
// The only error is ctx's.
func Warmup(ctx context.Context, clk clock.Clock, checker Checker, endpoints []Endpoint, policy Policy) (WarmupResult, error) {
	var result WarmupResult
	if policy.Deadline <= 0 {
		result.Skipped = true
		return result, nil
	}
	start := clk.Now()

	if policy.Mode == ModeFixed {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-clk.After(policy.Deadline):
		}
		result.Elapsed = clk.Now().Sub(start)
		return result, nil
	}

	backoff := policy.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	maxBackoff := policy.MaxBackoff
	if maxBackoff < backoff {
		maxBackoff = backoff
	}

	pending := endpoints
	for {
		result.Rounds++
		var unhealthy []Endpoint
		for index, check := range Verify(ctx, checker, pending) {
			if !check.Healthy() {
				unhealthy = append(unhealthy, pending[index])
			}
		}
		pending = unhealthy
		result.Elapsed = clk.Now().Sub(start)

		if len(pending) == 0 {
			result.Ready = true
			return result, nil
		}
		if err := ctx.Err(); err != nil {
			result.Pending = endpointNames(pending)
			return result, err
		}

		remaining := policy.Deadline - result.Elapsed
		if remaining <= 0 {
			result.Pending = endpointNames(pending)
			return result, nil
		}

		select {
		case <-ctx.Done():
			result.Pending = endpointNames(pending)
			return result, ctx.Err()
		case <-clk.After(min(backoff, remaining)):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func endpointNames(endpoints []Endpoint) []string {
	names := make([]string, len(endpoints))
	for index, endpoint := range endpoints {
		names[index] = endpoint.Name
	}
	return names
}
