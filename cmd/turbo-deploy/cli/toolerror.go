// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies command errors so that callers (scripts, CI
// wrappers reading --json output) can tell bad input from a flaky
// network without parsing message text.
type ErrorCategory string

const (
	// CategoryValidation indicates invalid input: unknown flags, bad
	// configuration values, unexpected positional arguments. Fix the
	// input and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryTransient indicates a failure that may clear on its own:
	// an unreachable host, a dropped SSH connection.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal indicates an unexpected failure: I/O errors on
	// local files, bugs.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized error returned by commands. It wraps an
// inner error, preserving the chain for errors.Is and errors.As. Use the
// category-specific constructors rather than constructing it directly.
type ToolError struct {
	Category ErrorCategory
	Err      error
}

// Error returns the underlying error message. The category is not part
// of the text.
func (e *ToolError) Error() string { return e.Err.Error() }

func (e *ToolError) Unwrap() error { return e.Err }

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error: a temporary failure that may succeed on retry.
func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error: an unexpected failure, bug, or I/O error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// Category returns the category of err if it wraps a [ToolError], or ""
// otherwise.
func Category(err error) ErrorCategory {
	for err != nil {
		if toolError, ok := err.(*ToolError); ok {
			return toolError.Category
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = unwrapper.Unwrap()
	}
	return ""
}
