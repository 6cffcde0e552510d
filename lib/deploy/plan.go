// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"fmt"

	"github.com/turbo-translate/turbo-deploy/lib/artifact"
	"github.com/turbo-translate/turbo-deploy/lib/health"
	"github.com/turbo-translate/turbo-deploy/lib/remote"
)

// PlannedStep is one action a deployment would take.
type PlannedStep struct {
	Stage       string `json:"stage"`
	Description string `json:"description"`

	// Command is the remote shell command, when the step runs one.
	Command string `json:"command,omitempty"`
}

// Plan describes what [Orchestrator.Run] would do, without probing or
// connecting. The local artifact tree is scanned so the plan can
// report what would be uploaded; a scan failure is returned as-is.
func (o *Orchestrator) Plan() ([]PlannedStep, artifact.Manifest, error) {
	manifest, err := artifact.Scan(o.options.ArtifactDir, o.options.Excludes)
	if err != nil {
		return nil, artifact.Manifest{}, err
	}

	target := o.options.Target
	directory := remote.QuotePath(target.Directory)
	steps := []PlannedStep{
		{
			Stage:       StagePreflight,
			Description: fmt.Sprintf("probe %s", target.Host),
		},
		{
			Stage:       StageSync,
			Description: fmt.Sprintf("create %s on %s", target.Directory, target.Address()),
			Command:     "mkdir -p " + directory,
		},
		{
			Stage: StageSync,
			Description: fmt.Sprintf("upload %s (%d files, %d bytes, digest %.16s)",
				o.options.ArtifactDir, manifest.Files, manifest.Bytes, manifest.Digest),
			Command: "tar -xzf - -C " + directory,
		},
		{
			Stage:       StageBootstrap,
			Description: fmt.Sprintf("check for %s", o.options.ConfigFile),
			Command:     remote.InDirectory(target.Directory, "test -f "+remote.Quote(o.options.ConfigFile)),
		},
		{
			Stage:       StageBootstrap,
			Description: fmt.Sprintf("if missing, copy %s to %s", o.options.TemplateFile, o.options.ConfigFile),
			Command: remote.InDirectory(target.Directory,
				"cp "+remote.Quote(o.options.TemplateFile)+" "+remote.Quote(o.options.ConfigFile)),
		},
		{
			Stage:       StageLaunch,
			Description: "pull, rebuild, and start services",
			Command:     remote.InDirectory(target.Directory, o.options.LaunchCommand),
		},
		{
			Stage:       StageWarmup,
			Description: describeWarmup(o.options.Warmup),
		},
	}
	for _, service := range o.options.Services {
		steps = append(steps, PlannedStep{
			Stage:       StageVerify,
			Description: fmt.Sprintf("GET %s (%s)", service.URL(target.Host), service.Name),
		})
	}
	return steps, manifest, nil
}

func describeWarmup(policy health.Policy) string {
	switch {
	case policy.Deadline <= 0:
		return "skip warm-up"
	case policy.Mode == health.ModeFixed:
		return fmt.Sprintf("wait %s", policy.Deadline)
	default:
		return fmt.Sprintf("poll services for up to %s (backoff %s to %s)",
			policy.Deadline, policy.InitialBackoff, policy.MaxBackoff)
	}
}
