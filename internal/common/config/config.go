// internal/common/config/config.go
package config

import (
	"time"

	"lead-magnet-workers/internal/perplexity"
)

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	Perplexity PerplexityConfig        `mapstructure:"perplexity"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	Logging    LoggingConfig           `mapstructure:"logging"`
	Server     ServerConfig            `mapstructure:"server"`
	Registry   RegistryConfig          `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// CamundaConfig holds the gateway connection. Job activation limits are per worker.
type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	Plaintext      bool   `mapstructure:"plaintext"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

// PerplexityConfig configures the content generation client.
type PerplexityConfig struct {
	APIKey     string       `mapstructure:"api_key"`
	BaseURL    string       `mapstructure:"base_url"`
	Timeout    int          `mapstructure:"timeout"` // milliseconds
	Structured PresetConfig `mapstructure:"structured"`
	Freeform   PresetConfig `mapstructure:"freeform"`
}

type PresetConfig struct {
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// ClientConfig converts the section into the generation client's config.
func (p PerplexityConfig) ClientConfig() *perplexity.Config {
	cfg := perplexity.LoadConfig(p.APIKey)
	if p.BaseURL != "" {
		cfg.BaseURL = p.BaseURL
	}
	if p.Timeout > 0 {
		cfg.Timeout = GetDuration(p.Timeout)
	}
	if p.Structured.MaxTokens > 0 {
		cfg.Structured.MaxTokens = p.Structured.MaxTokens
		cfg.Structured.Temperature = p.Structured.Temperature
	}
	if p.Freeform.MaxTokens > 0 {
		cfg.Freeform.MaxTokens = p.Freeform.MaxTokens
		cfg.Freeform.Temperature = p.Freeform.Temperature
	}
	return cfg
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds the health and metrics listener.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
