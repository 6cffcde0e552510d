// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/turbo-translate/turbo-deploy/lib/health"
	"github.com/turbo-translate/turbo-deploy/lib/remote"
)

const testDirectory = "/srv/turbo-translate"

func testTarget() Target {
	return Target{Host: "192.168.1.89", Port: 22, User: "deploy", Directory: testDirectory}
}

type fakeProber struct {
	err   error
	hosts []string
}

func (p *fakeProber) Probe(ctx context.Context, host string) error {
	p.hosts = append(p.hosts, host)
	return p.err
}

// fakeHost simulates the remote side: a flat file map under the
// deployment directory and a log of every command.
type fakeHost struct {
	mu       sync.Mutex
	files    map[string]string
	commands []string
	uploads  int
	uploaded int64
	connects int
	closed   int

	connectErr error
	// failures maps an exact command to the result it should produce.
	failures  map[string]fakeFailure
	uploadErr error
	// refuseErr fails the upload before any of the archive is read,
	// like a session that cannot be opened.
	refuseErr error
}

type fakeFailure struct {
	output   string
	exitCode int
	err      error
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		files:    map[string]string{".env.example": "HUGGINGFACE_TOKEN=\nAPI_KEY=\n"},
		failures: make(map[string]fakeFailure),
	}
}

func (h *fakeHost) Connect(ctx context.Context, target Target) (Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connects++
	if h.connectErr != nil {
		return nil, h.connectErr
	}
	return &fakeSession{host: h}, nil
}

func (h *fakeHost) log() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.commands...)
}

func (h *fakeHost) file(name string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	content, ok := h.files[name]
	return content, ok
}

type fakeSession struct {
	host *fakeHost
}

func (s *fakeSession) Run(ctx context.Context, command string) (remote.Result, error) {
	h := s.host
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = append(h.commands, command)

	if failure, ok := h.failures[command]; ok {
		if failure.err != nil {
			return remote.Result{Output: failure.output, ExitCode: -1}, failure.err
		}
		return remote.Result{Output: failure.output, ExitCode: failure.exitCode},
			&remote.ExitError{Command: command, ExitCode: failure.exitCode}
	}

	body, ok := strings.CutPrefix(command, "cd "+testDirectory+" && ")
	if !ok {
		// mkdir -p and anything else outside the directory succeed.
		return remote.Result{}, nil
	}
	fields := strings.Fields(body)
	switch {
	case len(fields) == 3 && fields[0] == "test" && fields[1] == "-f":
		if _, exists := h.files[fields[2]]; !exists {
			return remote.Result{ExitCode: 1}, &remote.ExitError{Command: command, ExitCode: 1}
		}
	case len(fields) == 3 && fields[0] == "cp":
		content, exists := h.files[fields[1]]
		if !exists {
			output := fmt.Sprintf("cp: cannot stat '%s': No such file or directory\n", fields[1])
			return remote.Result{Output: output, ExitCode: 1}, &remote.ExitError{Command: command, ExitCode: 1}
		}
		h.files[fields[2]] = content
	}
	return remote.Result{}, nil
}

func (s *fakeSession) Upload(ctx context.Context, archive io.Reader, directory string) error {
	h := s.host
	h.mu.Lock()
	refuseErr := h.refuseErr
	h.mu.Unlock()
	if refuseErr != nil {
		return refuseErr
	}

	data, err := io.ReadAll(archive)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = append(h.commands, "upload "+directory)
	h.uploads++
	h.uploaded += int64(len(data))
	if err != nil {
		return err
	}
	if h.uploadErr != nil {
		return h.uploadErr
	}
	return h.extract(data)
}

// extract writes every regular file in a gzip'd tar stream into the
// file map, overwriting what is there. Caller holds mu.
func (h *fakeHost) extract(data []byte) error {
	decompressor, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	archive := tar.NewReader(decompressor)
	for {
		header, err := archive.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		content, err := io.ReadAll(archive)
		if err != nil {
			return err
		}
		h.files[header.Name] = string(content)
	}
}

func (s *fakeSession) Close() error {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	s.host.closed++
	return nil
}

// fakeChecker reports every endpoint healthy unless listed in down.
type fakeChecker struct {
	mu    sync.Mutex
	down  map[string]error
	calls map[string]int
	urls  map[string]string
}

func newFakeChecker() *fakeChecker {
	return &fakeChecker{
		down:  make(map[string]error),
		calls: make(map[string]int),
		urls:  make(map[string]string),
	}
}

func (c *fakeChecker) Check(ctx context.Context, endpoint health.Endpoint) health.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[endpoint.Name]++
	c.urls[endpoint.Name] = endpoint.URL
	if err, down := c.down[endpoint.Name]; down {
		return health.Result{Endpoint: endpoint, Err: err}
	}
	return health.Result{Endpoint: endpoint, StatusCode: 200}
}

func (c *fakeChecker) totalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, count := range c.calls {
		total += count
	}
	return total
}

var errConnectionRefused = errors.New("dial tcp 192.168.1.89:8001: connect: connection refused")
