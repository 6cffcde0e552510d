// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/turbo-translate/turbo-deploy/lib/artifact"
	"github.com/turbo-translate/turbo-deploy/lib/deploy"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "TURBO_DEPLOY_CONFIG"

// Config is the complete deployment configuration.
type Config struct {
	// Target is the remote host and working directory.
	Target deploy.Target `yaml:"target"`

	// Services replaces the whole registry when set.
	Services []deploy.ServiceSpec `yaml:"services"`

	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Launch    LaunchConfig    `yaml:"launch"`
	Probe     ProbeConfig     `yaml:"probe"`
	Warmup    WarmupConfig    `yaml:"warmup"`
	Health    HealthConfig    `yaml:"health"`
	SSH       SSHConfig       `yaml:"ssh"`
}

// ArtifactsConfig locates the local tree that is synchronized.
type ArtifactsConfig struct {
	Directory string   `yaml:"directory"`
	Exclude   []string `yaml:"exclude"`
}

// BootstrapConfig names the runtime config file and its template,
// both relative to the remote directory.
type BootstrapConfig struct {
	ConfigFile string `yaml:"config_file"`
	Template   string `yaml:"template"`
}

// LaunchConfig holds the remote command that starts the services.
type LaunchConfig struct {
	Command string `yaml:"command"`
}

// ProbeConfig configures the preflight reachability check.
type ProbeConfig struct {
	// Method is "icmp" or "tcp".
	Method  string        `yaml:"method"`
	Timeout time.Duration `yaml:"timeout"`
}

// WarmupConfig configures the wait between launch and verification.
type WarmupConfig struct {
	// Mode is "poll" or "fixed".
	Mode           string        `yaml:"mode"`
	Deadline       time.Duration `yaml:"deadline"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// HealthConfig configures verification.
type HealthConfig struct {
	Timeout time.Duration `yaml:"timeout"`

	// Token is sent as a bearer credential when non-empty.
	Token string `yaml:"token"`

	// FailOnDegraded turns a degraded deployment into exit status 2.
	FailOnDegraded bool `yaml:"fail_on_degraded"`
}

// SSHConfig configures the remote transport.
type SSHConfig struct {
	Identity string `yaml:"identity"`

	// Password enables password authentication. Write it as ${VAR} so
	// the secret comes from the environment instead of the file.
	Password string `yaml:"password"`

	KnownHosts      string        `yaml:"known_hosts"`
	InsecureHostKey bool          `yaml:"insecure_host_key"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// Default returns the standard deployment configuration.
func Default() *Config {
	return &Config{
		Target: deploy.Target{
			Host:      "192.168.1.89",
			Port:      22,
			User:      "deploy",
			Directory: "~/turbo-translate",
		},
		Services: deploy.DefaultServices(),
		Artifacts: ArtifactsConfig{
			Directory: "docker",
			Exclude:   append([]string(nil), artifact.DefaultExcludes...),
		},
		Bootstrap: BootstrapConfig{
			ConfigFile: deploy.DefaultConfigFile,
			Template:   deploy.DefaultTemplateFile,
		},
		Launch: LaunchConfig{
			Command: deploy.DefaultLaunchCommand,
		},
		Probe: ProbeConfig{
			Method:  "icmp",
			Timeout: 2 * time.Second,
		},
		Warmup: WarmupConfig{
			Mode:           "poll",
			Deadline:       60 * time.Second,
			InitialBackoff: time.Second,
			MaxBackoff:     8 * time.Second,
		},
		Health: HealthConfig{
			Timeout: 5 * time.Second,
		},
		SSH: SSHConfig{
			KnownHosts:  "${HOME}/.ssh/known_hosts",
			DialTimeout: 10 * time.Second,
		},
	}
}

// Load returns the configuration named by path, or by
// TURBO_DEPLOY_CONFIG when path is empty, or the defaults when neither
// is set. The second return value is the file that was read, if any.
func Load(path string) (*Config, string, error) {
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, "", nil
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// LoadFile reads path over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// JSON is a subset of YAML, so stripped JSONC goes through the
		// same decoder and the same duration handling.
		data = jsonc.ToJSON(data)
	}
	return c.decode(data)
}

func (c *Config) decode(data []byte) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// expandVariables expands ${VAR} and ~ in local path fields, and
// ${VAR} in the SSH password.
func (c *Config) expandVariables() {
	home, _ := os.UserHomeDir()
	vars := map[string]string{"HOME": home}

	c.Artifacts.Directory = expandPath(c.Artifacts.Directory, vars)
	c.SSH.Identity = expandPath(c.SSH.Identity, vars)
	c.SSH.KnownHosts = expandPath(c.SSH.KnownHosts, vars)
	c.SSH.Password = expandVars(c.SSH.Password, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

func expandPath(path string, vars map[string]string) string {
	path = expandVars(path, vars)
	if home := vars["HOME"]; home != "" {
		if path == "~" {
			return home
		}
		if strings.HasPrefix(path, "~/") {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Validate reports every problem with the configuration at once. It
// checks structure only; the remote config file's contents are the
// operator's business.
func (c *Config) Validate() error {
	var errs []error

	if c.Target.Host == "" {
		errs = append(errs, errors.New("target.host is required"))
	}
	if c.Target.Port < 1 || c.Target.Port > 65535 {
		errs = append(errs, fmt.Errorf("target.port must be 1-65535, got %d", c.Target.Port))
	}
	if c.Target.Directory == "" {
		errs = append(errs, errors.New("target.directory is required"))
	}

	if len(c.Services) == 0 {
		errs = append(errs, errors.New("services must list at least one service"))
	}
	names := make(map[string]bool)
	ports := make(map[int]string)
	for index, service := range c.Services {
		if service.Name == "" {
			errs = append(errs, fmt.Errorf("services[%d].name is required", index))
		} else if names[service.Name] {
			errs = append(errs, fmt.Errorf("services[%d]: duplicate name %q", index, service.Name))
		}
		names[service.Name] = true
		if service.Port < 1 || service.Port > 65535 {
			errs = append(errs, fmt.Errorf("services[%d].port must be 1-65535, got %d", index, service.Port))
		} else if other, taken := ports[service.Port]; taken {
			errs = append(errs, fmt.Errorf("services[%d]: port %d already used by %s", index, service.Port, other))
		}
		ports[service.Port] = service.Name
		if !strings.HasPrefix(service.Path, "/") {
			errs = append(errs, fmt.Errorf("services[%d].path must start with /, got %q", index, service.Path))
		}
	}

	if c.Artifacts.Directory == "" {
		errs = append(errs, errors.New("artifacts.directory is required"))
	}
	if c.Bootstrap.ConfigFile == "" || c.Bootstrap.Template == "" {
		errs = append(errs, errors.New("bootstrap.config_file and bootstrap.template are required"))
	} else if c.Bootstrap.ConfigFile == c.Bootstrap.Template {
		errs = append(errs, errors.New("bootstrap.config_file and bootstrap.template must differ"))
	}
	if strings.TrimSpace(c.Launch.Command) == "" {
		errs = append(errs, errors.New("launch.command is required"))
	}

	if !contains([]string{"icmp", "tcp"}, c.Probe.Method) {
		errs = append(errs, fmt.Errorf("probe.method must be one of: icmp, tcp (got %q)", c.Probe.Method))
	}
	if c.Probe.Timeout <= 0 {
		errs = append(errs, errors.New("probe.timeout must be positive"))
	}

	if !contains([]string{"poll", "fixed"}, c.Warmup.Mode) {
		errs = append(errs, fmt.Errorf("warmup.mode must be one of: poll, fixed (got %q)", c.Warmup.Mode))
	}
	if c.Warmup.Deadline < 0 || c.Warmup.InitialBackoff < 0 || c.Warmup.MaxBackoff < 0 {
		errs = append(errs, errors.New("warmup durations must not be negative"))
	}

	if c.Health.Timeout <= 0 {
		errs = append(errs, errors.New("health.timeout must be positive"))
	}
	if c.SSH.DialTimeout <= 0 {
		errs = append(errs, errors.New("ssh.dial_timeout must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}
