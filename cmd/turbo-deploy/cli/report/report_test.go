// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/turbo-translate/turbo-deploy/lib/artifact"
	"github.com/turbo-translate/turbo-deploy/lib/deploy"
)

var testTarget = deploy.Target{Host: "192.168.1.89", Port: 22, User: "deploy", Directory: "~/turbo-translate"}

func serviceResults(down map[string]error) []deploy.ServiceResult {
	var results []deploy.ServiceResult
	for _, spec := range deploy.DefaultServices() {
		result := deploy.ServiceResult{
			Spec:     spec,
			URL:      spec.URL(testTarget.Host),
			Duration: 100 * time.Millisecond,
		}
		if err, ok := down[spec.Name]; ok {
			result.Err = err
		} else {
			result.Healthy = true
			result.StatusCode = 200
		}
		results = append(results, result)
	}
	return results
}

func healthyRun() *deploy.Run {
	return &deploy.Run{
		Target:   testTarget,
		Manifest: artifact.Manifest{Files: 3, Bytes: 2048, Digest: "0123456789abcdef0123"},
		Services: serviceResults(nil),
		Outcome:  deploy.OutcomeHealthy,
		State:    deploy.StateHealthChecked,
		Stages: []deploy.StageTiming{
			{Name: deploy.StagePreflight, Status: "ok", Duration: 200 * time.Millisecond},
		},
		Duration: 3 * time.Second,
	}
}

func TestWrite_Healthy(t *testing.T) {
	var buffer bytes.Buffer
	Write(&buffer, healthyRun(), false)
	output := buffer.String()

	if strings.Contains(output, "\x1b[") {
		t.Errorf("uncolored output contains escape sequences:\n%q", output)
	}
	want := fmt.Sprintf("[PASS ]  %-40s  200 http://192.168.1.89:8002/languages (0.1s)\n", "translation")
	if !strings.Contains(output, want) {
		t.Errorf("output missing translation line %q:\n%s", want, output)
	}
	for _, name := range []string{"speech-to-text", "diarization", "translation", "text-to-speech"} {
		if !strings.Contains(output, name) {
			t.Errorf("output missing service %q", name)
		}
	}
	if !strings.Contains(output, "artifacts: 3 files, 2.0 KiB, blake3 0123456789ab\n") {
		t.Errorf("output missing artifact line:\n%s", output)
	}
	if !strings.HasSuffix(output, "4/4 services healthy.\n") {
		t.Errorf("output should end with the verdict:\n%s", output)
	}
}

func TestWrite_ServiceOrder(t *testing.T) {
	var buffer bytes.Buffer
	Write(&buffer, healthyRun(), false)
	output := buffer.String()

	previous := -1
	for _, spec := range deploy.DefaultServices() {
		index := strings.Index(output, spec.Name)
		if index <= previous {
			t.Fatalf("service %q out of registry order:\n%s", spec.Name, output)
		}
		previous = index
	}
}

func TestWrite_Degraded(t *testing.T) {
	run := healthyRun()
	run.Services = serviceResults(map[string]error{"diarization": errors.New("connection refused")})
	run.Outcome = deploy.OutcomeDegraded

	var buffer bytes.Buffer
	Write(&buffer, run, false)
	output := buffer.String()

	if got := strings.Count(output, "[FAIL ]"); got != 1 {
		t.Errorf("FAIL lines = %d, want 1:\n%s", got, output)
	}
	want := fmt.Sprintf("[FAIL ]  %-40s  http://192.168.1.89:8001/health: connection refused (0.1s)", "diarization")
	if !strings.Contains(output, want) {
		t.Errorf("output missing %q:\n%s", want, output)
	}
	if !strings.Contains(output, "3/4 services healthy. Deployment degraded.") {
		t.Errorf("output missing degraded verdict:\n%s", output)
	}
}

func TestWrite_HTTPStatusFailure(t *testing.T) {
	run := healthyRun()
	run.Services[3].Healthy = false
	run.Services[3].StatusCode = 503
	run.Outcome = deploy.OutcomeDegraded

	var buffer bytes.Buffer
	Write(&buffer, run, false)
	if !strings.Contains(buffer.String(), "http://192.168.1.89:8003/health: HTTP 503") {
		t.Errorf("output missing status failure:\n%s", buffer.String())
	}
}

func TestWrite_ConfigCreated(t *testing.T) {
	run := healthyRun()
	run.ConfigCreated = true

	var buffer bytes.Buffer
	Write(&buffer, run, false)
	if !strings.Contains(buffer.String(), "[WARN ]  runtime config") {
		t.Errorf("output missing config warning:\n%s", buffer.String())
	}
}

func TestWrite_Color(t *testing.T) {
	var buffer bytes.Buffer
	Write(&buffer, healthyRun(), true)
	output := buffer.String()

	if !strings.Contains(output, "\x1b[") {
		t.Errorf("colored output has no escape sequences:\n%q", output)
	}
	if !strings.Contains(output, "[PASS ]") || !strings.Contains(output, "speech-to-text") {
		t.Errorf("colored output lost its text:\n%q", output)
	}
}

func TestBuild(t *testing.T) {
	run := healthyRun()
	run.Services = serviceResults(map[string]error{"diarization": errors.New("connection refused")})
	run.Outcome = deploy.OutcomeDegraded

	summary := Build(run, nil)
	if summary.Healthy != 3 || summary.Total != 4 {
		t.Errorf("Healthy/Total = %d/%d, want 3/4", summary.Healthy, summary.Total)
	}
	if summary.Outcome != "degraded" || summary.State != "health-checked" {
		t.Errorf("Outcome = %q, State = %q", summary.Outcome, summary.State)
	}
	if summary.Error != nil {
		t.Errorf("Error = %+v, want nil for a degraded run", summary.Error)
	}
	if summary.Services[1].Error != "connection refused" || summary.Services[1].Healthy {
		t.Errorf("diarization = %+v", summary.Services[1])
	}
	if summary.Artifacts == nil || summary.Artifacts.Files != 3 {
		t.Errorf("Artifacts = %+v", summary.Artifacts)
	}

	encoded, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, want := range []string{`"name":"translation"`, `"url":"http://192.168.1.89:8002/languages"`, `"duration_seconds":3`} {
		if !bytes.Contains(encoded, []byte(want)) {
			t.Errorf("JSON missing %s:\n%s", want, encoded)
		}
	}
}

func TestBuild_StageError(t *testing.T) {
	run := &deploy.Run{Target: testTarget, State: deploy.StateAborted}
	runErr := &deploy.StageError{
		Stage:  deploy.StageLaunch,
		Kind:   deploy.ErrLaunchFailure,
		Target: testTarget,
		Output: "no such service: stt",
		Err:    errors.New("exit status 1"),
	}

	summary := Build(run, runErr)
	if summary.Error == nil {
		t.Fatal("Error = nil for an aborted run")
	}
	if summary.Error.Stage != "launch" || summary.Error.Kind != "service launch failed" {
		t.Errorf("Error = %+v", summary.Error)
	}
	if summary.Error.Output != "no such service: stt" {
		t.Errorf("Output = %q", summary.Error.Output)
	}
	if summary.Services == nil || len(summary.Services) != 0 {
		t.Errorf("Services = %#v, want empty non-nil slice", summary.Services)
	}

	plain := Build(run, errors.New("context canceled"))
	if plain.Error.Message != "context canceled" || plain.Error.Stage != "" {
		t.Errorf("plain error = %+v", plain.Error)
	}
}

func TestWritePlan(t *testing.T) {
	steps := []deploy.PlannedStep{
		{Stage: "preflight", Description: "probe 192.168.1.89"},
		{Stage: "sync", Description: "create ~/turbo-translate", Command: `mkdir -p "$HOME"/turbo-translate`},
	}
	var buffer bytes.Buffer
	WritePlan(&buffer, testTarget, steps, artifact.Manifest{Files: 2, Bytes: 10, Digest: "abc"})
	output := buffer.String()

	for _, want := range []string{
		"artifacts: 2 files, 10 B, blake3 abc\n",
		"1. preflight  probe 192.168.1.89\n",
		"2. sync       create ~/turbo-translate\n",
		"   $ mkdir -p \"$HOME\"/turbo-translate\n",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("plan missing %q:\n%s", want, output)
		}
	}
}
