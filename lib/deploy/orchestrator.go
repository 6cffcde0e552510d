// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/turbo-translate/turbo-deploy/lib/artifact"
	"github.com/turbo-translate/turbo-deploy/lib/clock"
	"github.com/turbo-translate/turbo-deploy/lib/health"
	"github.com/turbo-translate/turbo-deploy/lib/remote"
)

const (
	// DefaultLaunchCommand pulls current images, rebuilds changed ones,
	// and starts everything in the background.
	DefaultLaunchCommand = "docker compose pull && docker compose up -d --build"

	DefaultConfigFile   = ".env"
	DefaultTemplateFile = ".env.example"
)

// Stage names, in execution order.
const (
	StagePreflight = "preflight"
	StageSync      = "sync"
	StageBootstrap = "bootstrap"
	StageLaunch    = "launch"
	StageWarmup    = "warm-up"
	StageVerify    = "verify"
)

var deployStages = []string{StagePreflight, StageSync, StageBootstrap, StageLaunch, StageWarmup, StageVerify}

// errUploadStopped unblocks the packer once the upload has returned.
// A pack error wrapping it is a consequence of the upload, never the
// cause of the failure.
var errUploadStopped = errors.New("upload stopped reading the archive")

// Prober checks that the target host is reachable.
type Prober interface {
	Probe(ctx context.Context, host string) error
}

// Session is an open connection to the target host.
type Session interface {
	Run(ctx context.Context, command string) (remote.Result, error)
	Upload(ctx context.Context, archive io.Reader, directory string) error
	Close() error
}

// Connector opens a [Session]. It is called once per run, after
// preflight has passed.
type Connector interface {
	Connect(ctx context.Context, target Target) (Session, error)
}

// ConnectorFunc adapts a function to [Connector].
type ConnectorFunc func(ctx context.Context, target Target) (Session, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context, target Target) (Session, error) {
	return f(ctx, target)
}

// Options configures an [Orchestrator]. Target, Services, Prober,
// Connector, and Checker are required.
type Options struct {
	Target   Target
	Services []ServiceSpec

	// ArtifactDir is the local tree synchronized into
	// Target.Directory. Excludes are skipped (see [artifact.Excluded]).
	// The root-level ConfigFile is always excluded so a sync never
	// replaces the remote runtime config.
	ArtifactDir string
	Excludes    []string

	// ConfigFile and TemplateFile are relative to Target.Directory.
	ConfigFile   string
	TemplateFile string

	LaunchCommand string

	Warmup health.Policy

	Prober    Prober
	Connector Connector
	Checker   health.Checker

	Clock  clock.Clock
	Logger *slog.Logger

	// Progress receives one line per completed stage. Nil discards.
	Progress io.Writer
}

// Orchestrator runs deployments for one target.
type Orchestrator struct {
	options  Options
	clock    clock.Clock
	logger   *slog.Logger
	progress io.Writer
}

// New validates options and fills in defaults.
func New(options Options) (*Orchestrator, error) {
	var errs []error
	if options.Target.Host == "" {
		errs = append(errs, errors.New("target host is required"))
	}
	if options.Target.Directory == "" {
		errs = append(errs, errors.New("target directory is required"))
	}
	if len(options.Services) == 0 {
		errs = append(errs, errors.New("at least one service is required"))
	}
	if options.Prober == nil {
		errs = append(errs, errors.New("prober is required"))
	}
	if options.Connector == nil {
		errs = append(errs, errors.New("connector is required"))
	}
	if options.Checker == nil {
		errs = append(errs, errors.New("health checker is required"))
	}
	if err := options.Warmup.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if options.ConfigFile == "" {
		options.ConfigFile = DefaultConfigFile
	}
	if options.TemplateFile == "" {
		options.TemplateFile = DefaultTemplateFile
	}
	if options.LaunchCommand == "" {
		options.LaunchCommand = DefaultLaunchCommand
	}
	if options.Warmup.Mode == "" {
		options.Warmup.Mode = health.ModePoll
	}
	options.Services = append([]ServiceSpec(nil), options.Services...)
	options.Excludes = append(slices.Clone(options.Excludes), "/"+path.Clean(options.ConfigFile))

	orchestrator := &Orchestrator{
		options:  options,
		clock:    options.Clock,
		logger:   options.Logger,
		progress: options.Progress,
	}
	if orchestrator.clock == nil {
		orchestrator.clock = clock.Real()
	}
	if orchestrator.logger == nil {
		orchestrator.logger = slog.New(slog.DiscardHandler)
	}
	if orchestrator.progress == nil {
		orchestrator.progress = io.Discard
	}
	return orchestrator, nil
}

// Target returns the deployment target.
func (o *Orchestrator) Target() Target { return o.options.Target }

// Run executes the full deployment. The returned Run is never nil.
// The error is a [*StageError] when a fatal stage failed, or ctx's
// error when the deployment was cancelled. A degraded deployment is
// not an error; inspect Run.Outcome.
func (o *Orchestrator) Run(ctx context.Context) (*Run, error) {
	run := newRun(o.options.Target, o.options.ArtifactDir, o.clock.Now())
	defer func() { run.Duration = o.clock.Now().Sub(run.StartedAt) }()

	logger := o.logger.With("host", o.options.Target.Host, "directory", o.options.Target.Directory)
	logger.Info("deployment starting", "services", len(o.options.Services))

	steps := &stageCounter{total: len(deployStages), writer: o.progress, clock: o.clock, run: run}

	// Preflight: the only gate that runs before anything touches the host.
	start := o.clock.Now()
	if err := o.options.Prober.Probe(ctx, o.options.Target.Host); err != nil {
		return o.abort(run, logger, &StageError{Stage: StagePreflight, Kind: ErrUnreachableTarget, Target: o.options.Target, Err: err})
	}
	run.advance(StateConnectivityVerified)
	steps.complete(StagePreflight, "ok", start)

	start = o.clock.Now()
	session, err := o.sync(ctx, run)
	if err != nil {
		return o.abort(run, logger, err)
	}
	defer session.Close()
	run.advance(StateArtifactsSynced)
	logger.Info("artifacts synced",
		"files", run.Manifest.Files,
		"bytes", run.Manifest.Bytes,
		"digest", run.Manifest.Digest,
	)
	steps.complete(StageSync, fmt.Sprintf("ok, %d files", run.Manifest.Files), start)

	start = o.clock.Now()
	if err := o.bootstrap(ctx, session, run); err != nil {
		return o.abort(run, logger, err)
	}
	run.advance(StateConfigReady)
	if run.ConfigCreated {
		steps.complete(StageBootstrap, "created "+o.options.ConfigFile, start)
		logger.Info("runtime config created from template",
			"config", o.options.ConfigFile,
			"template", o.options.TemplateFile,
		)
		fmt.Fprintf(o.progress, "[deploy] warning: %s was missing on %s and has been created from %s.\n",
			o.options.ConfigFile, o.options.Target.Host, o.options.TemplateFile)
		fmt.Fprintf(o.progress, "[deploy]          Edit %s/%s (set HUGGINGFACE_TOKEN) and redeploy.\n",
			o.options.Target.Directory, o.options.ConfigFile)
	} else {
		steps.complete(StageBootstrap, "ok", start)
	}

	start = o.clock.Now()
	run.advance(StateServicesLaunching)
	if err := o.launch(ctx, session); err != nil {
		return o.abort(run, logger, err)
	}
	steps.complete(StageLaunch, "ok", start)

	start = o.clock.Now()
	run.advance(StateWarmingUp)
	endpoints := o.endpoints()
	run.Warmup, err = health.Warmup(ctx, o.clock, o.options.Checker, endpoints, o.options.Warmup)
	if err != nil {
		return run, err
	}
	steps.complete(StageWarmup, warmupStatus(run.Warmup, o.options.Warmup.Mode), start)
	if len(run.Warmup.Pending) > 0 {
		logger.Info("warm-up deadline passed", "pending", run.Warmup.Pending, "rounds", run.Warmup.Rounds)
	}

	start = o.clock.Now()
	o.verify(ctx, run, endpoints)
	steps.complete(StageVerify, verifyStatus(run), start)
	o.logOutcome(logger, run)
	return run, nil
}

// Verify checks every service once without deploying anything.
func (o *Orchestrator) Verify(ctx context.Context) *Run {
	run := newRun(o.options.Target, o.options.ArtifactDir, o.clock.Now())
	start := o.clock.Now()
	o.verify(ctx, run, o.endpoints())
	run.Duration = o.clock.Now().Sub(start)
	o.logOutcome(o.logger.With("host", o.options.Target.Host), run)
	return run
}

func (o *Orchestrator) verify(ctx context.Context, run *Run, endpoints []health.Endpoint) {
	results := health.Verify(ctx, o.options.Checker, endpoints)
	run.recordServices(o.options.Services, results, o.options.Target.Host)
	run.advance(StateHealthChecked)
}

func (o *Orchestrator) logOutcome(logger *slog.Logger, run *Run) {
	for _, service := range run.Services {
		if !service.Healthy {
			logger.Info("service unhealthy",
				"service", service.Spec.Name,
				"url", service.URL,
				"status", service.StatusCode,
				"error", service.Err,
			)
		}
	}
	logger.Info("health verified",
		"outcome", string(run.Outcome),
		"healthy", run.HealthyCount(),
		"total", len(run.Services),
	)
}

func (o *Orchestrator) abort(run *Run, logger *slog.Logger, err error) (*Run, error) {
	run.advance(StateAborted)
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		logger.Info("deployment aborted", "stage", stageErr.Stage, "error", stageErr.Err)
	}
	return run, err
}

func (o *Orchestrator) endpoints() []health.Endpoint {
	endpoints := make([]health.Endpoint, len(o.options.Services))
	for index, service := range o.options.Services {
		endpoints[index] = health.Endpoint{Name: service.Name, URL: service.URL(o.options.Target.Host)}
	}
	return endpoints
}

// sync connects, creates the remote directory, and streams the packed
// artifact tree into it. On success the session stays open for the
// remaining stages.
func (o *Orchestrator) sync(ctx context.Context, run *Run) (Session, error) {
	target := o.options.Target
	fail := func(command, output string, err error) error {
		return &StageError{Stage: StageSync, Kind: ErrSyncFailure, Target: target, Command: command, Output: output, Err: err}
	}

	if info, err := os.Stat(o.options.ArtifactDir); err != nil {
		return nil, fail("", "", fmt.Errorf("artifact directory: %w", err))
	} else if !info.IsDir() {
		return nil, fail("", "", fmt.Errorf("artifact directory %s is not a directory", o.options.ArtifactDir))
	}

	session, err := o.options.Connector.Connect(ctx, target)
	if err != nil {
		return nil, fail("", "", err)
	}

	mkdir := "mkdir -p " + remote.QuotePath(target.Directory)
	if result, err := session.Run(ctx, mkdir); err != nil {
		session.Close()
		return nil, fail(mkdir, result.Output, err)
	}

	type packResult struct {
		manifest artifact.Manifest
		err      error
	}
	reader, writer := io.Pipe()
	packed := make(chan packResult, 1)
	go func() {
		manifest, err := artifact.Pack(o.options.ArtifactDir, o.options.Excludes, writer)
		writer.CloseWithError(err)
		packed <- packResult{manifest: manifest, err: err}
	}()

	uploadErr := session.Upload(ctx, reader, target.Directory)
	reader.CloseWithError(errUploadStopped)
	result := <-packed

	upload := "tar -xzf - -C " + remote.QuotePath(target.Directory)
	var syncErr error
	switch {
	case result.err != nil && !errors.Is(result.err, errUploadStopped):
		syncErr = result.err
	case uploadErr != nil:
		syncErr = uploadErr
	case result.err != nil:
		syncErr = errors.New("remote side stopped reading before the archive was complete")
	}
	if syncErr != nil {
		session.Close()
		return nil, fail(upload, "", syncErr)
	}
	run.Manifest = result.manifest
	return session, nil
}

// bootstrap creates the runtime config from its template when, and
// only when, the config file is absent.
func (o *Orchestrator) bootstrap(ctx context.Context, session Session, run *Run) error {
	target := o.options.Target
	fail := func(command, output string, err error) error {
		return &StageError{Stage: StageBootstrap, Kind: ErrBootstrapFailure, Target: target, Command: command, Output: output, Err: err}
	}

	check := remote.InDirectory(target.Directory, "test -f "+remote.Quote(o.options.ConfigFile))
	result, err := session.Run(ctx, check)
	if err == nil {
		return nil
	}
	var exitErr *remote.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode != 1 {
		return fail(check, result.Output, err)
	}

	copyCommand := remote.InDirectory(target.Directory,
		"cp "+remote.Quote(o.options.TemplateFile)+" "+remote.Quote(o.options.ConfigFile))
	result, err = session.Run(ctx, copyCommand)
	if err != nil {
		return fail(copyCommand, result.Output, err)
	}
	run.ConfigCreated = true
	return nil
}

func (o *Orchestrator) launch(ctx context.Context, session Session) error {
	command := remote.InDirectory(o.options.Target.Directory, o.options.LaunchCommand)
	result, err := session.Run(ctx, command)
	if err != nil {
		return &StageError{
			Stage:   StageLaunch,
			Kind:    ErrLaunchFailure,
			Target:  o.options.Target,
			Command: command,
			Output:  result.Output,
			Err:     err,
		}
	}
	return nil
}

func warmupStatus(result health.WarmupResult, mode health.Mode) string {
	switch {
	case result.Skipped:
		return "skipped"
	case mode == health.ModeFixed:
		return "ok"
	case result.Ready:
		return fmt.Sprintf("ok, ready after %d rounds", result.Rounds)
	default:
		return "deadline passed, still waiting on " + strings.Join(result.Pending, ", ")
	}
}

func verifyStatus(run *Run) string {
	status := fmt.Sprintf("%d/%d healthy", run.HealthyCount(), len(run.Services))
	if run.Outcome == OutcomeDegraded {
		return "degraded, " + status
	}
	return "ok, " + status
}

// stageCounter prints one progress line per completed stage and
// records its timing.
type stageCounter struct {
	index  int
	total  int
	writer io.Writer
	clock  clock.Clock
	run    *Run
}

func (s *stageCounter) complete(name, status string, start time.Time) {
	s.index++
	duration := s.clock.Now().Sub(start)
	s.run.Stages = append(s.run.Stages, StageTiming{Name: name, Status: status, Duration: duration})
	fmt.Fprintf(s.writer, "[deploy] stage %d/%d: %s... %s (%s)\n", s.index, s.total, name, status, formatDuration(duration))
}

// formatDuration formats a duration as seconds with one decimal place.
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
