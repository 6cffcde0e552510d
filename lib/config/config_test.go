// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Target.Host != "192.168.1.89" {
		t.Errorf("expected host=192.168.1.89, got %s", cfg.Target.Host)
	}
	if cfg.Target.Port != 22 {
		t.Errorf("expected port=22, got %d", cfg.Target.Port)
	}
	if len(cfg.Services) != 4 {
		t.Fatalf("expected 4 services, got %d", len(cfg.Services))
	}
	if cfg.Services[2].Name != "translation" || cfg.Services[2].Path != "/languages" {
		t.Errorf("expected translation on /languages, got %+v", cfg.Services[2])
	}
	if cfg.Artifacts.Directory != "docker" {
		t.Errorf("expected artifacts.directory=docker, got %s", cfg.Artifacts.Directory)
	}
	if cfg.Warmup.Deadline != 60*time.Second {
		t.Errorf("expected warmup.deadline=60s, got %s", cfg.Warmup.Deadline)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestDefaultIsFresh(t *testing.T) {
	first := Default()
	first.Services[0].Port = 9999
	first.Artifacts.Exclude[0] = "changed"

	second := Default()
	if second.Services[0].Port != 8000 || second.Artifacts.Exclude[0] != ".git" {
		t.Error("Default() shares state between calls")
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := writeConfig(t, "deploy.yaml", `
target:
  host: gpu-box.lan
  user: ops
  directory: /opt/turbo-translate

warmup:
  mode: fixed
  deadline: 30s

health:
  token: secret
  fail_on_degraded: true
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Target.Host != "gpu-box.lan" || cfg.Target.User != "ops" {
		t.Errorf("target not loaded: %+v", cfg.Target)
	}
	if cfg.Target.Port != 22 {
		t.Errorf("expected port to keep default 22, got %d", cfg.Target.Port)
	}
	if cfg.Warmup.Mode != "fixed" || cfg.Warmup.Deadline != 30*time.Second {
		t.Errorf("warmup not loaded: %+v", cfg.Warmup)
	}
	if cfg.Warmup.MaxBackoff != 8*time.Second {
		t.Errorf("expected max_backoff to keep default, got %s", cfg.Warmup.MaxBackoff)
	}
	if !cfg.Health.FailOnDegraded || cfg.Health.Token != "secret" {
		t.Errorf("health not loaded: %+v", cfg.Health)
	}
	if len(cfg.Services) != 4 {
		t.Errorf("expected default services, got %d", len(cfg.Services))
	}
}

func TestLoadFileJSONC(t *testing.T) {
	path := writeConfig(t, "deploy.jsonc", `{
  // Staging box with a single service.
  "target": {"host": "10.0.0.5", "port": 2222},
  "services": [
    {"name": "translation", "port": 8002, "path": "/languages"},
  ],
  /* Slow GPU start. */
  "warmup": {"deadline": "2m"},
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Target.Host != "10.0.0.5" || cfg.Target.Port != 2222 {
		t.Errorf("target not loaded: %+v", cfg.Target)
	}
	if len(cfg.Services) != 1 || cfg.Services[0].Name != "translation" {
		t.Errorf("expected services to be replaced, got %+v", cfg.Services)
	}
	if cfg.Warmup.Deadline != 2*time.Minute {
		t.Errorf("expected deadline=2m, got %s", cfg.Warmup.Deadline)
	}
}

func TestLoadFileUnknownKey(t *testing.T) {
	path := writeConfig(t, "deploy.yaml", "target:\n  hots: typo.lan\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
}

func TestLoadFileEmpty(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "deploy.yaml", ""))
	if err != nil {
		t.Fatalf("LoadFile of empty file failed: %v", err)
	}
	if cfg.Target.Host != "192.168.1.89" {
		t.Errorf("expected defaults, got host %s", cfg.Target.Host)
	}
}

func TestLoadPrecedence(t *testing.T) {
	fromEnvironment := writeConfig(t, "env.yaml", "target:\n  host: from-env\n")
	fromFlag := writeConfig(t, "flag.yaml", "target:\n  host: from-flag\n")

	t.Setenv(EnvironmentVariable, "")
	cfg, source, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if source != "" || cfg.Target.Host != "192.168.1.89" {
		t.Errorf("without flag or env: source=%q host=%s", source, cfg.Target.Host)
	}

	t.Setenv(EnvironmentVariable, fromEnvironment)
	cfg, source, err = Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if source != fromEnvironment || cfg.Target.Host != "from-env" {
		t.Errorf("with env: source=%q host=%s", source, cfg.Target.Host)
	}

	cfg, source, err = Load(fromFlag)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if source != fromFlag || cfg.Target.Host != "from-flag" {
		t.Errorf("with flag: source=%q host=%s", source, cfg.Target.Host)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestExpandPaths(t *testing.T) {
	t.Setenv("HOME", "/home/operator")
	t.Setenv("DEPLOY_KEYS", "/etc/keys")
	path := writeConfig(t, "deploy.yaml", `
target:
  directory: ~/turbo-translate
artifacts:
  directory: ~/src/turbo-translate/docker
ssh:
  identity: ${DEPLOY_KEYS}/id_ed25519
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Artifacts.Directory != "/home/operator/src/turbo-translate/docker" {
		t.Errorf("artifacts.directory = %s", cfg.Artifacts.Directory)
	}
	if cfg.SSH.Identity != "/etc/keys/id_ed25519" {
		t.Errorf("ssh.identity = %s", cfg.SSH.Identity)
	}
	if cfg.SSH.KnownHosts != "/home/operator/.ssh/known_hosts" {
		t.Errorf("ssh.known_hosts = %s", cfg.SSH.KnownHosts)
	}
	if cfg.Target.Directory != "~/turbo-translate" {
		t.Errorf("remote directory must not be expanded locally, got %s", cfg.Target.Directory)
	}
}

func TestSSHPasswordFromEnvironment(t *testing.T) {
	t.Setenv("TURBO_SSH_PASSWORD", "hunter2")
	path := writeConfig(t, "deploy.yaml", `
ssh:
  password: ${TURBO_SSH_PASSWORD}
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.SSH.Password != "hunter2" {
		t.Errorf("ssh.password = %q, want the environment value", cfg.SSH.Password)
	}
	if Default().SSH.Password != "" {
		t.Error("default config carries a password")
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input string
		vars  map[string]string
		want  string
	}{
		{input: "${HOME}/x", vars: map[string]string{"HOME": "/h"}, want: "/h/x"},
		{input: "${UNSET_TURBO_VAR:-fallback}", vars: nil, want: "fallback"},
		{input: "plain", vars: nil, want: "plain"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, test.vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
		want   string
	}{
		{name: "missing host", mutate: func(cfg *Config) { cfg.Target.Host = "" }, want: "target.host"},
		{name: "bad port", mutate: func(cfg *Config) { cfg.Target.Port = 70000 }, want: "target.port"},
		{name: "no services", mutate: func(cfg *Config) { cfg.Services = nil }, want: "at least one service"},
		{name: "duplicate service", mutate: func(cfg *Config) { cfg.Services[1].Name = cfg.Services[0].Name }, want: "duplicate name"},
		{name: "shared port", mutate: func(cfg *Config) { cfg.Services[1].Port = 8000 }, want: "already used"},
		{name: "relative path", mutate: func(cfg *Config) { cfg.Services[0].Path = "health" }, want: "must start with /"},
		{name: "probe method", mutate: func(cfg *Config) { cfg.Probe.Method = "udp" }, want: "probe.method"},
		{name: "warmup mode", mutate: func(cfg *Config) { cfg.Warmup.Mode = "eventually" }, want: "warmup.mode"},
		{name: "negative deadline", mutate: func(cfg *Config) { cfg.Warmup.Deadline = -time.Second }, want: "negative"},
		{name: "same config and template", mutate: func(cfg *Config) { cfg.Bootstrap.Template = ".env" }, want: "must differ"},
		{name: "empty launch", mutate: func(cfg *Config) { cfg.Launch.Command = " " }, want: "launch.command"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("expected error containing %q, got %q", test.want, err)
			}
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Target.Host = ""
	cfg.Probe.Method = "udp"
	cfg.Health.Timeout = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	for _, want := range []string{"target.host", "probe.method", "health.timeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %q", want, err)
		}
	}
}

func TestWarmupZeroDeadlineValid(t *testing.T) {
	cfg := Default()
	cfg.Warmup.Deadline = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero deadline should disable warm-up, got %v", err)
	}
}
