// Package config loads agent settings from a YAML file, the environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel        = "gpt-5-nano"
	DefaultMaxRounds    = 5
	DefaultArtifactsDir = ".agent"
	DefaultSessionFile  = ".agent/session.json"
)

// ErrMissingAPIKey is returned by Validate when no OpenAI key is configured.
var ErrMissingAPIKey = errors.New("config: OpenAI API key is not set (AGT_OPENAI_API_KEY or OPENAI_API_KEY)")

// Config represents the agent configuration
type Config struct {
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Agent     AgentConfig     `yaml:"agent"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	// SessionFile stores the conversation handle between CLI runs.
	SessionFile string `yaml:"session_file"`
}

// OpenAIConfig holds provider settings
type OpenAIConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 disables pacing
}

// AgentConfig holds conversation settings
type AgentConfig struct {
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"` // empty uses the session default
	MaxRounds    int    `yaml:"max_rounds"`
}

// TelemetryConfig holds JSONL event settings
type TelemetryConfig struct {
	Observe      bool   `yaml:"observe"`
	ArtifactsDir string `yaml:"artifacts_dir"`
}

// Load reads config from path, then applies environment overrides and defaults.
// A missing file yields defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg, nil
}

// Validate reports configuration that would fail before any provider call.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.OpenAI.RequestsPerSecond < 0 {
		return fmt.Errorf("config: requests_per_second must not be negative, got %v", c.OpenAI.RequestsPerSecond)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AGT_OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("AGT_OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv("AGT_PROVIDER_RPS"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			c.OpenAI.RequestsPerSecond = rps
		}
	}
	if v := os.Getenv("AGT_MODEL"); v != "" {
		c.Agent.Model = v
	}
	if v := os.Getenv("AGT_SYSTEM_PROMPT"); v != "" {
		c.Agent.SystemPrompt = v
	}
	if v := os.Getenv("AGT_MAX_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Agent.MaxRounds = n
		}
	}
	if v, ok := os.LookupEnv("AGT_OBSERVE_JSON"); ok {
		c.Telemetry.Observe = v == "1"
	}
	if v := os.Getenv("AGT_ARTIFACTS_DIR"); v != "" {
		c.Telemetry.ArtifactsDir = v
	}
	if v := os.Getenv("AGT_SESSION_FILE"); v != "" {
		c.SessionFile = v
	}
}

func (c *Config) applyDefaults() {
	if c.Agent.Model == "" {
		c.Agent.Model = DefaultModel
	}
	if c.Agent.MaxRounds <= 0 {
		c.Agent.MaxRounds = DefaultMaxRounds
	}
	if c.Telemetry.ArtifactsDir == "" {
		c.Telemetry.ArtifactsDir = DefaultArtifactsDir
	}
	if c.SessionFile == "" {
		c.SessionFile = DefaultSessionFile
	}
}
