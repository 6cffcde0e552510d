// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the turbo-deploy command tree and wires the
// configuration into the orchestrator's collaborators: the preflight
// prober, the SSH connector, and the HTTP health checker.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/turbo-translate/turbo-deploy/cmd/turbo-deploy/cli"
	"github.com/turbo-translate/turbo-deploy/lib/clock"
	"github.com/turbo-translate/turbo-deploy/lib/config"
	"github.com/turbo-translate/turbo-deploy/lib/deploy"
	"github.com/turbo-translate/turbo-deploy/lib/health"
	"github.com/turbo-translate/turbo-deploy/lib/probe"
	"github.com/turbo-translate/turbo-deploy/lib/remote"
)

// environment is everything a command reaches outside the process for.
// Root uses the real one; tests substitute fakes.
type environment struct {
	stdout io.Writer
	stderr io.Writer

	// terminal reports whether stdout is a terminal, which enables
	// colored reports.
	terminal bool

	newLogger func(verbose bool) *slog.Logger
	clock     clock.Clock

	newProber    func(cfg *config.Config) (deploy.Prober, error)
	newConnector func(cfg *config.Config, logger *slog.Logger) deploy.Connector
	newChecker   func(cfg *config.Config) health.Checker
}

func defaultEnvironment() *environment {
	return &environment{
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		terminal:     cli.IsTerminal(os.Stdout),
		newLogger:    cli.NewCommandLogger,
		clock:        clock.Real(),
		newProber:    newProber,
		newConnector: newSSHConnector,
		newChecker:   newHTTPChecker,
	}
}

// Root builds the turbo-deploy command tree. Invoked without a
// subcommand it deploys.
func Root() *cli.Command {
	return newRoot(defaultEnvironment())
}

func newRoot(env *environment) *cli.Command {
	root := deployCommand(env, "turbo-deploy")
	root.Description = `turbo-deploy: deploy the turbo-translate backend.

Probes the target host, uploads the local docker tree over SSH,
creates the runtime .env from .env.example when it is missing,
rebuilds and starts the services with docker compose, waits for
them to come up, and verifies each one over HTTP.`
	root.HelpOutput = env.stderr
	root.Subcommands = []*cli.Command{
		deployCommand(env, "deploy"),
		statusCommand(env),
		planCommand(env),
	}
	return root
}

func newProber(cfg *config.Config) (deploy.Prober, error) {
	return probe.New(probe.Method(cfg.Probe.Method), cfg.Probe.Timeout, cfg.Target.Port)
}

func newHTTPChecker(cfg *config.Config) health.Checker {
	return health.NewHTTPChecker(cfg.Health.Timeout, cfg.Health.Token)
}

// newSSHConnector dials a fresh SSH connection for each deployment.
// SSH_AUTH_SOCK is read here, following the ssh convention.
func newSSHConnector(cfg *config.Config, logger *slog.Logger) deploy.Connector {
	sshConfig := cfg.SSH
	return deploy.ConnectorFunc(func(ctx context.Context, target deploy.Target) (deploy.Session, error) {
		home, _ := os.UserHomeDir()
		client, err := remote.Dial(ctx, remote.Options{
			Address:         target.Address(),
			User:            target.User,
			IdentityFile:    sshConfig.Identity,
			HomeDir:         home,
			AgentSocket:     os.Getenv("SSH_AUTH_SOCK"),
			Password:        sshConfig.Password,
			KnownHostsFile:  sshConfig.KnownHosts,
			InsecureHostKey: sshConfig.InsecureHostKey,
			DialTimeout:     sshConfig.DialTimeout,
			Logger:          logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	})
}
