// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// DefaultTimeout matches a single ping with a two second wait.
const DefaultTimeout = 2 * time.Second

// Method names a probe implementation.
type Method string

const (
	MethodICMP Method = "icmp"
	MethodTCP  Method = "tcp"
)

// Prober checks that a host is reachable.
type Prober interface {
	Probe(ctx context.Context, host string) error
}

// New returns the prober for method. port is only used by the TCP
// prober.
func New(method Method, timeout time.Duration, port int) (Prober, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	switch method {
	case MethodICMP, "":
		return &ICMP{Timeout: timeout}, nil
	case MethodTCP:
		if port <= 0 {
			port = 22
		}
		return &TCP{Port: port, Timeout: timeout}, nil
	default:
		return nil, fmt.Errorf("unknown probe method %q (want %q or %q)", method, MethodICMP, MethodTCP)
	}
}

// TCP probes by opening and immediately closing a TCP connection.
// Use it where ICMP is filtered; the SSH port is the natural choice.
type TCP struct {
	Port    int
	Timeout time.Duration
}

// Probe dials host:Port once.
func (p *TCP) Probe(ctx context.Context, host string) error {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	var dialer net.Dialer
	connection, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(p.Port)))
	if err != nil {
		return fmt.Errorf("tcp probe: %w", err)
	}
	return connection.Close()
}

// resolve returns the first address for host, preferring IPv4.
func resolve(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	addresses, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	for _, address := range addresses {
		if address.IP.To4() != nil {
			return address.IP, nil
		}
	}
	if len(addresses) == 0 {
		return nil, fmt.Errorf("no addresses for %s", host)
	}
	return addresses[0].IP, nil
}
