// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

// State is a position in the deployment state machine.
type State string

const (
	StateIdle                 State = "idle"
	StateConnectivityVerified State = "connectivity-verified"
	StateArtifactsSynced      State = "artifacts-synced"
	StateConfigReady          State = "config-ready"
	StateServicesLaunching    State = "services-launching"
	StateWarmingUp            State = "warming-up"
	StateHealthChecked        State = "health-checked"
	StateDone                 State = "done"
	StateAborted              State = "aborted"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// Outcome is the aggregate verdict of health verification.
type Outcome string

const (
	// OutcomeUnknown means verification has not run.
	OutcomeUnknown  Outcome = ""
	OutcomeHealthy  Outcome = "healthy"
	OutcomeDegraded Outcome = "degraded"
)

// transitions lists the legal successor states. Aborted is reachable
// from every state up to and including launch.
var transitions = map[State][]State{
	StateIdle:                 {StateConnectivityVerified, StateAborted, StateHealthChecked},
	StateConnectivityVerified: {StateArtifactsSynced, StateAborted},
	StateArtifactsSynced:      {StateConfigReady, StateAborted},
	StateConfigReady:          {StateServicesLaunching, StateAborted},
	StateServicesLaunching:    {StateWarmingUp, StateAborted},
	StateWarmingUp:            {StateHealthChecked},
	StateHealthChecked:        {StateDone},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
