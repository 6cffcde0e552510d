// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/turbo-translate/turbo-deploy/cmd/turbo-deploy/cli"
	"github.com/turbo-translate/turbo-deploy/lib/config"
)

// targetParams are shared by every command. Flags override the
// configuration file only when given explicitly.
type targetParams struct {
	cli.JSONOutput
	Config  string `flag:"config,c" desc:"YAML or JSONC config file (default $TURBO_DEPLOY_CONFIG)"`
	Host    string `flag:"host" desc:"target host"`
	User    string `flag:"user" desc:"SSH user on the target"`
	Dir     string `flag:"dir" desc:"remote working directory"`
	SSHPort int    `flag:"ssh-port" desc:"SSH port on the target"`
	Verbose bool   `flag:"verbose,v" desc:"log debug detail to stderr"`
}

func (p *targetParams) apply(cfg *config.Config, flags *pflag.FlagSet) {
	if cli.Changed(flags, "host") {
		cfg.Target.Host = p.Host
	}
	if cli.Changed(flags, "user") {
		cfg.Target.User = p.User
	}
	if cli.Changed(flags, "dir") {
		cfg.Target.Directory = p.Dir
	}
	if cli.Changed(flags, "ssh-port") {
		cfg.Target.Port = p.SSHPort
	}
}

// load reads the configuration, layers the flags over it, and
// validates the result.
func (p *targetParams) load(flags *pflag.FlagSet, apply ...func(*config.Config, *pflag.FlagSet)) (*config.Config, error) {
	cfg, _, err := config.Load(p.Config)
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	p.apply(cfg, flags)
	for _, fn := range apply {
		fn(cfg, flags)
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

type deployParams struct {
	targetParams
	Identity        string        `flag:"identity,i" desc:"SSH private key"`
	KnownHosts      string        `flag:"known-hosts" desc:"known_hosts file used to verify the host key"`
	InsecureHostKey bool          `flag:"insecure-host-key" desc:"skip host key verification"`
	Artifacts       string        `flag:"artifacts" desc:"local artifact directory"`
	Probe           string        `flag:"probe" desc:"preflight method: icmp or tcp"`
	WarmupDeadline  time.Duration `flag:"warmup-deadline" desc:"how long to wait for services after launch (0 skips)"`
	FailOnDegraded  bool          `flag:"fail-on-degraded" desc:"exit 2 when any service is unhealthy"`
	DryRun          bool          `flag:"dry-run" desc:"print the planned remote commands without running them"`
	Version         bool          `flag:"version" desc:"print version information"`
}

func (p *deployParams) applyDeploy(cfg *config.Config, flags *pflag.FlagSet) {
	if cli.Changed(flags, "identity") {
		cfg.SSH.Identity = p.Identity
	}
	if cli.Changed(flags, "known-hosts") {
		cfg.SSH.KnownHosts = p.KnownHosts
	}
	if cli.Changed(flags, "insecure-host-key") {
		cfg.SSH.InsecureHostKey = p.InsecureHostKey
	}
	if cli.Changed(flags, "artifacts") {
		cfg.Artifacts.Directory = p.Artifacts
	}
	if cli.Changed(flags, "probe") {
		cfg.Probe.Method = p.Probe
	}
	if cli.Changed(flags, "warmup-deadline") {
		cfg.Warmup.Deadline = p.WarmupDeadline
	}
	if cli.Changed(flags, "fail-on-degraded") {
		cfg.Health.FailOnDegraded = p.FailOnDegraded
	}
}

type statusParams struct {
	targetParams
	FailOnDegraded bool `flag:"fail-on-degraded" desc:"exit 2 when any service is unhealthy"`
}

func (p *statusParams) applyStatus(cfg *config.Config, flags *pflag.FlagSet) {
	if cli.Changed(flags, "fail-on-degraded") {
		cfg.Health.FailOnDegraded = p.FailOnDegraded
	}
}

type planParams struct {
	targetParams
	Artifacts      string        `flag:"artifacts" desc:"local artifact directory"`
	WarmupDeadline time.Duration `flag:"warmup-deadline" desc:"how long to wait for services after launch (0 skips)"`
}

func (p *planParams) applyPlan(cfg *config.Config, flags *pflag.FlagSet) {
	if cli.Changed(flags, "artifacts") {
		cfg.Artifacts.Directory = p.Artifacts
	}
	if cli.Changed(flags, "warmup-deadline") {
		cfg.Warmup.Deadline = p.WarmupDeadline
	}
}
