// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"fmt"
	"time"

	"github.com/turbo-translate/turbo-deploy/lib/artifact"
	"github.com/turbo-translate/turbo-deploy/lib/health"
)

// Run is the record of one deployment. It is created by
// [Orchestrator.Run], filled in as stages complete, and returned to
// the caller even when a stage fails.
type Run struct {
	Target Target

	// ArtifactDir is the local directory that was packed.
	ArtifactDir string

	// Manifest describes what was uploaded. Zero until sync succeeds.
	Manifest artifact.Manifest

	// ConfigCreated is set when bootstrap copied the template because
	// the remote config file was missing.
	ConfigCreated bool

	Warmup health.WarmupResult

	// Services holds one result per service, in registry order.
	Services []ServiceResult

	Outcome Outcome
	State   State

	// History lists every state the run passed through, starting with
	// StateIdle.
	History []State

	Stages []StageTiming

	StartedAt time.Time
	Duration  time.Duration
}

// StageTiming records how long a completed stage took.
type StageTiming struct {
	Name     string
	Status   string
	Duration time.Duration
}

// ServiceResult is the verified health of one service.
type ServiceResult struct {
	Spec       ServiceSpec
	URL        string
	Healthy    bool
	StatusCode int
	Err        error
	Duration   time.Duration
}

// HealthyCount returns how many services passed verification.
func (r *Run) HealthyCount() int {
	count := 0
	for _, service := range r.Services {
		if service.Healthy {
			count++
		}
	}
	return count
}

// Finish marks a verified run as done. The caller invokes it once no
// further work depends on the run.
func (r *Run) Finish() {
	r.advance(StateDone)
}

func newRun(target Target, artifactDir string, now time.Time) *Run {
	return &Run{
		Target:      target,
		ArtifactDir: artifactDir,
		State:       StateIdle,
		History:     []State{StateIdle},
		StartedAt:   now,
	}
}

func (r *Run) advance(to State) {
	if !canTransition(r.State, to) {
		panic(fmt.Sprintf("deploy: illegal transition %s -> %s", r.State, to))
	}
	r.State = to
	r.History = append(r.History, to)
}

func (r *Run) recordServices(services []ServiceSpec, results []health.Result, host string) {
	r.Services = make([]ServiceResult, len(services))
	for index, spec := range services {
		result := results[index]
		r.Services[index] = ServiceResult{
			Spec:       spec,
			URL:        spec.URL(host),
			Healthy:    result.Healthy(),
			StatusCode: result.StatusCode,
			Err:        result.Err,
			Duration:   result.Duration,
		}
	}
	if health.AllHealthy(results) {
		r.Outcome = OutcomeHealthy
	} else {
		r.Outcome = OutcomeDegraded
	}
}
