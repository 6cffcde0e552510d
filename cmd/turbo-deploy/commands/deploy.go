// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/turbo-translate/turbo-deploy/cmd/turbo-deploy/cli"
	"github.com/turbo-translate/turbo-deploy/cmd/turbo-deploy/cli/report"
	"github.com/turbo-translate/turbo-deploy/lib/artifact"
	"github.com/turbo-translate/turbo-deploy/lib/config"
	"github.com/turbo-translate/turbo-deploy/lib/deploy"
	"github.com/turbo-translate/turbo-deploy/lib/health"
	"github.com/turbo-translate/turbo-deploy/lib/version"
)

// Exit codes beyond the generic failure that main reports.
const exitDegraded = 2

func deployCommand(env *environment, name string) *cli.Command {
	var params deployParams
	var flags *pflag.FlagSet

	return &cli.Command{
		Name:    name,
		Summary: "Deploy the backend and verify it came up",
		Description: `Deploy the backend to the target host and verify every service.

Stages run in order and the first fatal failure stops the run:
preflight probe, artifact sync, config bootstrap, launch. Warm-up
and health verification never abort; unhealthy services are
reported and the run ends degraded.`,
		Examples: []cli.Example{
			{Description: "Deploy with the built-in defaults", Command: "turbo-deploy"},
			{Description: "Deploy to another host, failing CI on a degraded result", Command: "turbo-deploy deploy --host 10.0.0.7 --fail-on-degraded"},
			{Description: "Show what would run", Command: "turbo-deploy --dry-run"},
		},
		Flags: func() *pflag.FlagSet {
			flags = cli.FlagsFromParams(name, &params)
			return flags
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument %q", args[0])
			}
			if params.Version {
				fmt.Fprintf(env.stdout, "turbo-deploy %s\n", version.Full())
				return nil
			}
			cfg, err := params.load(flags, params.applyDeploy)
			if err != nil {
				return err
			}
			logger := env.newLogger(params.Verbose).With("command", "deploy")
			if params.DryRun {
				return runPlan(env, cfg, logger, params.JSONOutput)
			}
			return runDeploy(ctx, env, cfg, logger, params.JSONOutput)
		},
	}
}

func runDeploy(ctx context.Context, env *environment, cfg *config.Config, logger *slog.Logger, output cli.JSONOutput) error {
	// Progress lines would corrupt the JSON document on stdout.
	progress := env.stdout
	if output.OutputJSON {
		progress = env.stderr
	}

	orchestrator, err := newOrchestrator(env, cfg, logger, progress)
	if err != nil {
		return err
	}

	run, runErr := orchestrator.Run(ctx)
	if runErr == nil {
		run.Finish()
	}
	if done, err := output.EmitJSON(env.stdout, report.Build(run, runErr)); done {
		if err != nil {
			return err
		}
		if runErr != nil {
			return &cli.ExitError{Code: 1}
		}
		return exitStatus(run, cfg)
	}
	if runErr != nil {
		return classify(runErr)
	}

	report.Write(env.stdout, run, env.terminal)
	return exitStatus(run, cfg)
}

// exitStatus maps the outcome of a verified run to an exit status.
func exitStatus(run *deploy.Run, cfg *config.Config) error {
	if run.Outcome == deploy.OutcomeDegraded && cfg.Health.FailOnDegraded {
		return &cli.ExitError{Code: exitDegraded}
	}
	return nil
}

// classify attaches a CLI category to a fatal stage error. The
// message is unchanged.
func classify(err error) error {
	switch {
	case errors.Is(err, deploy.ErrUnreachableTarget),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return cli.Transient("%w", err)
	default:
		return cli.Internal("%w", err)
	}
}

func newOrchestrator(env *environment, cfg *config.Config, logger *slog.Logger, progress io.Writer) (*deploy.Orchestrator, error) {
	prober, err := env.newProber(cfg)
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	orchestrator, err := deploy.New(deploy.Options{
		Target:        cfg.Target,
		Services:      cfg.Services,
		ArtifactDir:   cfg.Artifacts.Directory,
		Excludes:      cfg.Artifacts.Exclude,
		ConfigFile:    cfg.Bootstrap.ConfigFile,
		TemplateFile:  cfg.Bootstrap.Template,
		LaunchCommand: cfg.Launch.Command,
		Warmup: health.Policy{
			Mode:           health.Mode(cfg.Warmup.Mode),
			Deadline:       cfg.Warmup.Deadline,
			InitialBackoff: cfg.Warmup.InitialBackoff,
			MaxBackoff:     cfg.Warmup.MaxBackoff,
		},
		Prober:    prober,
		Connector: env.newConnector(cfg, logger),
		Checker:   env.newChecker(cfg),
		Clock:     env.clock,
		Logger:    logger,
		Progress:  progress,
	})
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	return orchestrator, nil
}

// planOutput is the --json form of a plan.
type planOutput struct {
	Target    deploy.Target        `json:"target"`
	Artifacts artifact.Manifest    `json:"artifacts"`
	Steps     []deploy.PlannedStep `json:"steps"`
}

func runPlan(env *environment, cfg *config.Config, logger *slog.Logger, output cli.JSONOutput) error {
	orchestrator, err := newOrchestrator(env, cfg, logger, nil)
	if err != nil {
		return err
	}
	steps, manifest, err := orchestrator.Plan()
	if err != nil {
		return cli.Validation("artifacts: %w", err)
	}
	if done, err := output.EmitJSON(env.stdout, planOutput{Target: cfg.Target, Artifacts: manifest, Steps: steps}); done {
		return err
	}
	report.WritePlan(env.stdout, cfg.Target, steps, manifest)
	return nil
}

func statusCommand(env *environment) *cli.Command {
	var params statusParams
	var flags *pflag.FlagSet

	return &cli.Command{
		Name:    "status",
		Summary: "Check service health without deploying",
		Description: `Check every service once and report, without touching the host.

Each service gets exactly one HTTP GET on its liveness path. The
exit status is 0 unless --fail-on-degraded is set and a service is
unhealthy.`,
		Flags: func() *pflag.FlagSet {
			flags = cli.FlagsFromParams("status", &params)
			return flags
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument %q", args[0])
			}
			cfg, err := params.load(flags, params.applyStatus)
			if err != nil {
				return err
			}
			logger := env.newLogger(params.Verbose).With("command", "status")
			orchestrator, err := newOrchestrator(env, cfg, logger, nil)
			if err != nil {
				return err
			}

			run := orchestrator.Verify(ctx)
			run.Finish()
			if done, err := params.EmitJSON(env.stdout, report.Build(run, nil)); done {
				if err != nil {
					return err
				}
				return exitStatus(run, cfg)
			}
			report.Write(env.stdout, run, env.terminal)
			return exitStatus(run, cfg)
		},
	}
}

func planCommand(env *environment) *cli.Command {
	var params planParams
	var flags *pflag.FlagSet

	return &cli.Command{
		Name:    "plan",
		Summary: "Print the planned remote commands without running them",
		Flags: func() *pflag.FlagSet {
			flags = cli.FlagsFromParams("plan", &params)
			return flags
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument %q", args[0])
			}
			cfg, err := params.load(flags, params.applyPlan)
			if err != nil {
				return err
			}
			return runPlan(env, cfg, env.newLogger(params.Verbose).With("command", "plan"), params.JSONOutput)
		},
	}
}
