// Package config loads the application configuration from YAML, with
// defaults applied for anything not set.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port        int `yaml:"port"`
	MetricsPort int `yaml:"metrics_port"`
}

// DatabaseConfig holds the sqlite database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SemanticConfig selects and tunes the semantic search backend.
type SemanticConfig struct {
	// Backend is "tfidf" (local, default) or "openai" (hosted embeddings).
	Backend string `yaml:"backend"`
	// Threshold is the minimum relevance score for accepting a semantic
	// match during extraction.
	Threshold float64 `yaml:"threshold"`
	// TimeoutSecs bounds each remote embedding call.
	TimeoutSecs int `yaml:"timeout_secs"`
	// EmbeddingModel names the hosted embedding model.
	EmbeddingModel string `yaml:"embedding_model"`
	// APIKeyEnv names the environment variable carrying the API key.
	APIKeyEnv string `yaml:"api_key_env"`
}

// AgentConfig selects the conversational model. Provider "none" runs the
// assistant with deterministic tool output only.
type AgentConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Semantic SemanticConfig `yaml:"semantic"`
	Agent    AgentConfig    `yaml:"agent"`
}

// Load reads a config from the given path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 9090
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "maitred.db"
	}
	if cfg.Semantic.Backend == "" {
		cfg.Semantic.Backend = "tfidf"
	}
	if cfg.Semantic.Threshold == 0 {
		cfg.Semantic.Threshold = 0.30
	}
	if cfg.Semantic.TimeoutSecs == 0 {
		cfg.Semantic.TimeoutSecs = 10
	}
	if cfg.Semantic.EmbeddingModel == "" {
		cfg.Semantic.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.Semantic.APIKeyEnv == "" {
		cfg.Semantic.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Agent.Provider == "" {
		cfg.Agent.Provider = "none"
	}
	if cfg.Agent.Model == "" {
		cfg.Agent.Model = "gpt-4o-mini"
	}
	if cfg.Agent.APIKeyEnv == "" {
		cfg.Agent.APIKeyEnv = "OPENAI_API_KEY"
	}
}
