// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
	"os"
)

// ExitCoder is implemented by errors that carry their own exit status.
// Such errors have already been reported by the command that returned
// them.
type ExitCoder interface {
	ExitCode() int
}

// Exit terminates the process for the error returned by run(). A nil
// error exits 0. An [ExitCoder] exits with its code and prints nothing.
// Any other error is written to stderr as "error: err" and exits 1.
func Exit(err error) {
	os.Exit(Report(os.Stderr, err))
}

// Report writes err to w the way [Exit] would and returns the exit
// code without exiting.
func Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if coder, ok := err.(ExitCoder); ok {
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
