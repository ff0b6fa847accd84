// Package config defines the pipeline configuration and its loading rules.
package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/a8m/envsubst"
	"github.com/goccy/go-yaml"
)

// Defaults for optional command fields.
const (
	DefaultCommandName    = "unnamed"
	DefaultTimeoutSeconds = 300
)

type Config struct {
	ProjectName          string            `yaml:"project_name"`
	WorkingDirectory     string            `yaml:"working_directory"`
	EnvironmentVariables map[string]string `yaml:"environment_variables"`
	BuildCommands        []Command         `yaml:"build_commands" validate:"dive"`
	TestCommands         []Command         `yaml:"test_commands" validate:"dive"`
	DeploymentCommands   []Command         `yaml:"deployment_commands" validate:"dive"`
	Notifications        Notifications     `yaml:"notifications"`
}

// Command is one entry in a stage's command list. Immutable once loaded.
type Command struct {
	Name    string `yaml:"name"`
	Command string `yaml:"command" validate:"required"`
	Timeout int    `yaml:"timeout" validate:"gt=0"` // seconds
}

type Notifications struct {
	Services map[string]Service `yaml:"services" validate:"dive"`
	Template string             `yaml:"template"`
	// OnSuccess also notifies on successful runs; failures always notify.
	OnSuccess bool `yaml:"on_success"`
}

// Service is a Shoutrrr delivery target.
type Service struct {
	URL    string            `yaml:"url" validate:"required"`
	Params map[string]string `yaml:"params"`
}

// Load reads a config file, expands ${VAR} references from the environment,
// and applies field defaults. The format is YAML; JSON configs parse too.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	data, err = envsubst.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("expanding env vars: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	for _, list := range [][]Command{c.BuildCommands, c.TestCommands, c.DeploymentCommands} {
		for i := range list {
			if list[i].Name == "" {
				list[i].Name = DefaultCommandName
			}
			if list[i].Timeout == 0 {
				list[i].Timeout = DefaultTimeoutSeconds
			}
		}
	}
}

// EnvList returns the configured environment variables as KEY=VALUE entries
// in deterministic order.
func (c *Config) EnvList() []string {
	if len(c.EnvironmentVariables) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.EnvironmentVariables))
	for k := range c.EnvironmentVariables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+c.EnvironmentVariables[k])
	}
	return env
}
