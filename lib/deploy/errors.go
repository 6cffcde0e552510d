// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds. Every fatal [StageError] matches exactly one of these
// via errors.Is. An unhealthy service is not an error; it is reported
// in [ServiceResult].
var (
	ErrUnreachableTarget = errors.New("target unreachable")
	ErrSyncFailure       = errors.New("artifact sync failed")
	ErrBootstrapFailure  = errors.New("config bootstrap failed")
	ErrLaunchFailure     = errors.New("service launch failed")
)

// StageError is the error returned when a fatal stage stops the run.
type StageError struct {
	// Stage is the name of the stage that failed ("preflight", "sync",
	// "bootstrap", "launch").
	Stage string

	// Kind is one of the Err* sentinels.
	Kind error

	Target Target

	// Command is the remote command that failed, if any.
	Command string

	// Output is the combined output of Command. Launch failures carry
	// the compose output here so the operator sees why.
	Output string

	// Err is the underlying transport or exit error.
	Err error
}

func (e *StageError) Error() string {
	var message strings.Builder
	switch e.Kind {
	case ErrUnreachableTarget:
		fmt.Fprintf(&message, "host %s is unreachable", e.Target.Host)
	default:
		fmt.Fprintf(&message, "%s on %s", e.Kind, e.Target.Host)
	}
	if e.Err != nil {
		fmt.Fprintf(&message, ": %v", e.Err)
	}
	if output := strings.TrimSpace(e.Output); output != "" {
		fmt.Fprintf(&message, "\n%s", output)
	}
	return message.String()
}

// Unwrap exposes both the kind and the underlying error, so errors.Is
// matches the sentinel and errors.As reaches the transport error.
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
