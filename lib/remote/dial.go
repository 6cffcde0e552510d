// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultDialTimeout bounds the TCP connect and SSH handshake.
const DefaultDialTimeout = 10 * time.Second

// defaultIdentities are tried, in order, from the home .ssh directory
// when no identity file is configured.
var defaultIdentities = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// Options configures [Dial].
type Options struct {
	// Address is host:port.
	Address string
	User    string

	// IdentityFile is a private key that must load. When empty, the
	// standard key names under HomeDir/.ssh are tried and missing ones
	// are skipped.
	IdentityFile string
	HomeDir      string

	// Password enables password authentication when non-empty.
	Password string

	// AgentSocket is the path of an ssh-agent socket. Unreachable
	// agents are ignored.
	AgentSocket string

	// KnownHostsFile verifies the host key. InsecureHostKey skips
	// verification entirely.
	KnownHostsFile  string
	InsecureHostKey bool

	DialTimeout time.Duration

	Logger *slog.Logger
}

// Dial connects and authenticates to the remote host.
func Dial(ctx context.Context, options Options) (*Client, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := options.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}

	auths, closeAgent, err := authMethods(options, logger)
	if err != nil {
		return nil, err
	}

	hostKeyCallback, err := hostKeyCallback(options)
	if err != nil {
		closeAgent()
		return nil, err
	}

	config := &ssh.ClientConfig{
		User:            options.User,
		Auth:            auths,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	dialer := net.Dialer{Timeout: timeout}
	connection, err := dialer.DialContext(ctx, "tcp", options.Address)
	if err != nil {
		closeAgent()
		return nil, fmt.Errorf("connecting to %s: %w", options.Address, err)
	}
	// NewClientConn has no context; a deadline bounds the handshake.
	connection.SetDeadline(time.Now().Add(timeout))
	clientConnection, channels, requests, err := ssh.NewClientConn(connection, options.Address, config)
	if err != nil {
		connection.Close()
		closeAgent()
		return nil, fmt.Errorf("ssh handshake with %s: %w", options.Address, err)
	}
	connection.SetDeadline(time.Time{})

	logger.Debug("ssh connected",
		"address", options.Address,
		"user", options.User,
		"server_version", string(clientConnection.ServerVersion()),
	)
	return &Client{
		client:     ssh.NewClient(clientConnection, channels, requests),
		closeAgent: closeAgent,
		logger:     logger,
	}, nil
}

// authMethods assembles key, password, and agent authentication. The
// returned function closes the agent connection, if one was opened.
func authMethods(options Options, logger *slog.Logger) ([]ssh.AuthMethod, func(), error) {
	var signers []ssh.Signer
	if options.IdentityFile != "" {
		signer, err := loadSigner(options.IdentityFile)
		if err != nil {
			return nil, nil, fmt.Errorf("identity %s: %w", options.IdentityFile, err)
		}
		signers = append(signers, signer)
	} else if options.HomeDir != "" {
		for _, name := range defaultIdentities {
			path := filepath.Join(options.HomeDir, ".ssh", name)
			signer, err := loadSigner(path)
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					logger.Debug("skipping identity", "path", path, "error", err)
				}
				continue
			}
			signers = append(signers, signer)
		}
	}

	var auths []ssh.AuthMethod
	if len(signers) > 0 {
		auths = append(auths, ssh.PublicKeys(signers...))
	}

	closeAgent := func() {}
	if options.AgentSocket != "" {
		connection, err := net.Dial("unix", options.AgentSocket)
		if err != nil {
			logger.Debug("ssh agent unavailable", "socket", options.AgentSocket, "error", err)
		} else {
			auths = append(auths, ssh.PublicKeysCallback(agent.NewClient(connection).Signers))
			closeAgent = func() { connection.Close() }
		}
	}

	if options.Password != "" {
		auths = append(auths, ssh.Password(options.Password))
	}
	return auths, closeAgent, nil
}

func hostKeyCallback(options Options) (ssh.HostKeyCallback, error) {
	if options.InsecureHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	if options.KnownHostsFile == "" {
		return nil, fmt.Errorf("no known_hosts file configured (set one, or pass --insecure-host-key)")
	}
	callback, err := knownhosts.New(options.KnownHostsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("known_hosts file %s not found; add the host with ssh-keyscan or pass --insecure-host-key", options.KnownHostsFile)
		}
		return nil, fmt.Errorf("known_hosts: %w", err)
	}
	return callback, nil
}

// loadSigner reads an unencrypted private key. Encrypted keys belong
// in an ssh-agent.
func loadSigner(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("private key is encrypted; load it into ssh-agent instead")
		}
		return nil, err
	}
	return signer, nil
}
