// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"fmt"
	"net"
	"strconv"
)

// Target identifies the remote endpoint of a deployment. It is built
// once from configuration and passed by value; nothing downstream
// mutates it.
type Target struct {
	Host      string `yaml:"host"      json:"host"`
	Port      int    `yaml:"port"      json:"port"`
	User      string `yaml:"user"      json:"user"`
	Directory string `yaml:"directory" json:"directory"`
}

// Address returns host:port for the SSH connection.
func (t Target) Address() string {
	port := t.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port))
}

func (t Target) String() string {
	if t.User == "" {
		return fmt.Sprintf("%s:%s", t.Host, t.Directory)
	}
	return fmt.Sprintf("%s@%s:%s", t.User, t.Host, t.Directory)
}

// ServiceSpec describes one backend service and the path that answers
// its liveness check.
type ServiceSpec struct {
	Name string `yaml:"name" json:"name"`
	Port int    `yaml:"port" json:"port"`
	Path string `yaml:"path" json:"path"`
}

// URL returns the liveness URL of the service on host.
func (s ServiceSpec) URL(host string) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(s.Port)) + s.Path
}

// DefaultServices returns the service registry in report order. The
// translation service has no /health route; its language listing
// doubles as the liveness check.
func DefaultServices() []ServiceSpec {
	return []ServiceSpec{
		{Name: "speech-to-text", Port: 8000, Path: "/health"},
		{Name: "diarization", Port: 8001, Path: "/health"},
		{Name: "translation", Port: 8002, Path: "/languages"},
		{Name: "text-to-speech", Port: 8003, Path: "/health"},
	}
}
