// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/turbo-translate/turbo-deploy/lib/artifact"
	"github.com/turbo-translate/turbo-deploy/lib/deploy"
)

// Status is the outcome of a single checklist line.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusWarn Status = "warn"
)

// Line is one row of the checklist.
type Line struct {
	Name    string
	Status  Status
	Message string
}

// Lines builds the checklist for run: a warning when the runtime
// config was created from its template, then one line per verified
// service in registry order.
func Lines(run *deploy.Run) []Line {
	var lines []Line
	if run.ConfigCreated {
		lines = append(lines, Line{
			Name:    "runtime config",
			Status:  StatusWarn,
			Message: "created from template; edit it and redeploy",
		})
	}

	for _, service := range run.Services {
		lines = append(lines, serviceLine(service))
	}
	return lines
}

func serviceLine(service deploy.ServiceResult) Line {
	elapsed := formatDuration(service.Duration)
	if service.Healthy {
		return Line{
			Name:    service.Spec.Name,
			Status:  StatusPass,
			Message: fmt.Sprintf("%d %s (%s)", service.StatusCode, service.URL, elapsed),
		}
	}
	reason := fmt.Sprintf("HTTP %d", service.StatusCode)
	if service.Err != nil {
		reason = service.Err.Error()
	}
	return Line{
		Name:    service.Spec.Name,
		Status:  StatusFail,
		Message: fmt.Sprintf("%s: %s (%s)", service.URL, reason, elapsed),
	}
}

// Verdict returns the closing sentence for run.
func Verdict(run *deploy.Run) string {
	switch run.Outcome {
	case deploy.OutcomeHealthy:
		return fmt.Sprintf("%d/%d services healthy.", run.HealthyCount(), len(run.Services))
	case deploy.OutcomeDegraded:
		return fmt.Sprintf("%d/%d services healthy. Deployment degraded.", run.HealthyCount(), len(run.Services))
	default:
		return "Deployment aborted before health verification."
	}
}

// Write prints the checklist for run to w. color enables lipgloss
// styling of the status column and should only be set when w is a
// terminal.
func Write(w io.Writer, run *deploy.Run, color bool) {
	palette := newPalette(w, color)

	fmt.Fprintf(w, "\n%s\n", palette.paint(palette.header, fmt.Sprintf("turbo-deploy: %s (%s)", run.Target.Host, run.Target.Directory)))
	if run.Manifest.Files > 0 {
		fmt.Fprintf(w, "artifacts: %d files, %s, blake3 %s\n",
			run.Manifest.Files, formatBytes(run.Manifest.Bytes), shortDigest(run.Manifest.Digest))
	}
	fmt.Fprintln(w)

	for _, line := range Lines(run) {
		prefix := fmt.Sprintf("[%-5s]", strings.ToUpper(string(line.Status)))
		fmt.Fprintf(w, "%s  %-40s  %s\n", palette.paint(palette.status(line.Status), prefix), line.Name, line.Message)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, palette.paint(palette.verdict(run.Outcome), Verdict(run)))
}

// WritePlan prints the steps a deployment would take without taking
// them.
func WritePlan(w io.Writer, target deploy.Target, steps []deploy.PlannedStep, manifest artifact.Manifest) {
	fmt.Fprintf(w, "turbo-deploy plan for %s\n", target)
	fmt.Fprintf(w, "artifacts: %d files, %s, blake3 %s\n\n",
		manifest.Files, formatBytes(manifest.Bytes), shortDigest(manifest.Digest))
	for index, step := range steps {
		fmt.Fprintf(w, "%d. %-10s %s\n", index+1, step.Stage, step.Description)
		if step.Command != "" {
			fmt.Fprintf(w, "   $ %s\n", step.Command)
		}
	}
}

// palette holds the styles for one rendering. A disabled palette
// leaves text untouched.
type palette struct {
	enabled bool
	header  lipgloss.Style
	pass    lipgloss.Style
	fail    lipgloss.Style
	warn    lipgloss.Style
}

func newPalette(w io.Writer, color bool) palette {
	if !color {
		return palette{}
	}
	// The profile is forced because lipgloss otherwise re-detects it
	// from the environment, and the caller has already decided.
	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(termenv.ANSI256))
	renderer.SetColorProfile(termenv.ANSI256)
	return palette{
		enabled: true,
		header:  renderer.NewStyle().Foreground(lipgloss.Color("255")).Bold(true),
		pass:    renderer.NewStyle().Foreground(lipgloss.Color("114")),
		fail:    renderer.NewStyle().Foreground(lipgloss.Color("196")),
		warn:    renderer.NewStyle().Foreground(lipgloss.Color("220")),
	}
}

func (p palette) paint(style lipgloss.Style, text string) string {
	if !p.enabled {
		return text
	}
	return style.Render(text)
}

func (p palette) status(status Status) lipgloss.Style {
	switch status {
	case StatusPass:
		return p.pass
	case StatusFail:
		return p.fail
	default:
		return p.warn
	}
}

func (p palette) verdict(outcome deploy.Outcome) lipgloss.Style {
	switch outcome {
	case deploy.OutcomeHealthy:
		return p.pass
	case deploy.OutcomeDegraded:
		return p.warn
	default:
		return p.fail
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
