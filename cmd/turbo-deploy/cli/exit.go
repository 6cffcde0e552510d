// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. The command has already written its own output; main
// exits with Code and prints nothing more.
//
// turbo-deploy uses it for a degraded deployment under
// --fail-on-degraded, where the report itself explains the failure.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}
