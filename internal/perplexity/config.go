// internal/perplexity/config.go
package perplexity

import "time"

const (
	// DefaultBaseURL is the only upstream endpoint the client talks to.
	DefaultBaseURL = "https://api.perplexity.ai/chat/completions"

	// Model is fixed: a small model keeps latency and cost bounded on small hosts.
	Model = "sonar"

	DefaultTimeout = 12 * time.Second
)

const (
	structuredSystemPrompt = "You are a professional content strategist. " +
		"Return VALID JSON ONLY. No markdown. No commentary."
	freeformSystemPrompt = "You are a professional content strategist. " +
		"Write structured, concise, high-quality content."
)

// Preset holds the per-mode request parameters.
type Preset struct {
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
}

// Config is read once at construction and never mutated afterwards.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	Structured Preset
	Freeform   Preset
}

// DefaultStructuredPreset caps tokens higher than freeform because lead magnet
// documents are returned as a single JSON object.
func DefaultStructuredPreset() Preset {
	return Preset{
		MaxTokens:    3000,
		Temperature:  0.7,
		SystemPrompt: structuredSystemPrompt,
	}
}

func DefaultFreeformPreset() Preset {
	return Preset{
		MaxTokens:    1200,
		Temperature:  0.3,
		SystemPrompt: freeformSystemPrompt,
	}
}

func LoadConfig(apiKey string) *Config {
	return &Config{
		APIKey:     apiKey,
		BaseURL:    DefaultBaseURL,
		Timeout:    DefaultTimeout,
		Structured: DefaultStructuredPreset(),
		Freeform:   DefaultFreeformPreset(),
	}
}

// withDefaults returns a copy with unset fields filled in. A preset counts as
// unset when MaxTokens is zero, so an explicit temperature of 0 is kept.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	c.Structured = fillPreset(c.Structured, DefaultStructuredPreset())
	c.Freeform = fillPreset(c.Freeform, DefaultFreeformPreset())
	return c
}

func fillPreset(p, def Preset) Preset {
	if p.MaxTokens <= 0 {
		p.MaxTokens = def.MaxTokens
		p.Temperature = def.Temperature
	}
	if p.SystemPrompt == "" {
		p.SystemPrompt = def.SystemPrompt
	}
	return p
}
