// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// Result is the outcome of a remote command that ran to completion.
type Result struct {
	// Output interleaves stdout and stderr.
	Output string

	// ExitCode is the command's exit status, or -1 when the command
	// did not report one (killed by a signal, connection lost).
	ExitCode int
}

// ExitError is returned when a remote command exits non-zero.
type ExitError struct {
	Command  string
	ExitCode int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("remote command %q exited with status %d", e.Command, e.ExitCode)
}

// Client runs commands over one SSH connection. Safe for concurrent
// use; each call opens its own session.
type Client struct {
	client     *ssh.Client
	closeAgent func()
	logger     *slog.Logger
}

// Run executes command through the remote login shell and waits for it
// to exit. A non-zero exit returns the Result together with an
// [*ExitError]; any other error means the command's fate is unknown.
// Cancelling ctx kills the remote command.
func (c *Client) Run(ctx context.Context, command string) (Result, error) {
	return c.run(ctx, command, nil)
}

// Upload extracts a gzip'd tar stream into directory, which must
// already exist. Files already present are overwritten; files absent
// from the archive are left alone.
func (c *Client) Upload(ctx context.Context, archive io.Reader, directory string) error {
	command := "tar -xzf - -C " + QuotePath(directory)
	result, err := c.run(ctx, command, archive)
	if err != nil {
		if output := strings.TrimSpace(result.Output); output != "" {
			return fmt.Errorf("%w: %s", err, output)
		}
		return err
	}
	return nil
}

// Close closes the SSH connection.
func (c *Client) Close() error {
	err := c.client.Close()
	c.closeAgent()
	return err
}

func (c *Client) run(ctx context.Context, command string, stdin io.Reader) (Result, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("opening ssh session: %w", err)
	}
	defer session.Close()

	var output lockedBuffer
	session.Stdout = &output
	session.Stderr = &output
	if stdin != nil {
		session.Stdin = stdin
	}

	start := time.Now()
	if err := session.Start(command); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("starting %q: %w", command, err)
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	select {
	case err = <-done:
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		session.Close()
		<-done
		return Result{Output: output.String(), ExitCode: -1}, ctx.Err()
	}

	result := Result{Output: output.String()}
	c.logger.Debug("remote command finished",
		"command", command,
		"duration", time.Since(start),
		"error", err,
	)
	if err == nil {
		return result, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitStatus()
		return result, &ExitError{Command: command, ExitCode: result.ExitCode}
	}
	result.ExitCode = -1
	return result, fmt.Errorf("running %q: %w", command, err)
}

// lockedBuffer lets stdout and stderr share one buffer.
type lockedBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}
