// internal/workers/content/generate-text/config.go
package generatetext

import "time"

type Config struct {
	Timeout     time.Duration
	InputSchema map[string]interface{}
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
