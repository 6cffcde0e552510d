// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"errors"

	"github.com/turbo-translate/turbo-deploy/lib/artifact"
	"github.com/turbo-translate/turbo-deploy/lib/deploy"
)

// Summary is the --json form of a run.
type Summary struct {
	Host          string             `json:"host"`
	Directory     string             `json:"directory"`
	State         string             `json:"state"`
	Outcome       string             `json:"outcome,omitempty"`
	Healthy       int                `json:"healthy"`
	Total         int                `json:"total"`
	ConfigCreated bool               `json:"config_created"`
	Artifacts     *artifact.Manifest `json:"artifacts,omitempty"`
	Warmup        *WarmupSummary     `json:"warmup,omitempty"`
	Stages        []StageSummary     `json:"stages"`
	Services      []ServiceSummary   `json:"services"`
	Error         *ErrorSummary      `json:"error,omitempty"`
	Seconds       float64            `json:"duration_seconds"`
}

// WarmupSummary reports the warm-up poll.
type WarmupSummary struct {
	Skipped bool     `json:"skipped,omitempty"`
	Ready   bool     `json:"ready"`
	Rounds  int      `json:"rounds"`
	Pending []string `json:"pending,omitempty"`
	Seconds float64  `json:"duration_seconds"`
}

// StageSummary reports one completed stage.
type StageSummary struct {
	Name    string  `json:"name"`
	Status  string  `json:"status"`
	Seconds float64 `json:"duration_seconds"`
}

// ServiceSummary reports one verified service.
type ServiceSummary struct {
	Name       string  `json:"name"`
	URL        string  `json:"url"`
	Healthy    bool    `json:"healthy"`
	StatusCode int     `json:"status_code,omitempty"`
	Error      string  `json:"error,omitempty"`
	Seconds    float64 `json:"duration_seconds"`
}

// ErrorSummary reports the fatal failure of an aborted run.
type ErrorSummary struct {
	Stage   string `json:"stage,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
	Output  string `json:"output,omitempty"`
}

// Build converts run, and the error that aborted it if any, into a
// [Summary].
func Build(run *deploy.Run, runErr error) Summary {
	summary := Summary{
		Host:          run.Target.Host,
		Directory:     run.Target.Directory,
		State:         string(run.State),
		Outcome:       string(run.Outcome),
		Healthy:       run.HealthyCount(),
		Total:         len(run.Services),
		ConfigCreated: run.ConfigCreated,
		Stages:        []StageSummary{},
		Services:      []ServiceSummary{},
		Seconds:       run.Duration.Seconds(),
	}
	if run.Manifest.Files > 0 {
		manifest := run.Manifest
		summary.Artifacts = &manifest
	}
	if run.Warmup.Rounds > 0 || run.Warmup.Skipped {
		summary.Warmup = &WarmupSummary{
			Skipped: run.Warmup.Skipped,
			Ready:   run.Warmup.Ready,
			Rounds:  run.Warmup.Rounds,
			Pending: run.Warmup.Pending,
			Seconds: run.Warmup.Elapsed.Seconds(),
		}
	}
	for _, stage := range run.Stages {
		summary.Stages = append(summary.Stages, StageSummary{
			Name:    stage.Name,
			Status:  stage.Status,
			Seconds: stage.Duration.Seconds(),
		})
	}
	for _, service := range run.Services {
		entry := ServiceSummary{
			Name:       service.Spec.Name,
			URL:        service.URL,
			Healthy:    service.Healthy,
			StatusCode: service.StatusCode,
			Seconds:    service.Duration.Seconds(),
		}
		if service.Err != nil {
			entry.Error = service.Err.Error()
		}
		summary.Services = append(summary.Services, entry)
	}
	if runErr != nil {
		summary.Error = buildError(runErr)
	}
	return summary
}

func buildError(err error) *ErrorSummary {
	var stageErr *deploy.StageError
	if !errors.As(err, &stageErr) {
		return &ErrorSummary{Message: err.Error()}
	}
	summary := &ErrorSummary{
		Stage:   stageErr.Stage,
		Message: err.Error(),
		Output:  stageErr.Output,
	}
	if stageErr.Kind != nil {
		summary.Kind = stageErr.Kind.Error()
	}
	return summary
}
