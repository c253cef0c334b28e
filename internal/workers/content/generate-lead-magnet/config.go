// internal/workers/content/generate-lead-magnet/config.go
package generateleadmagnet

import "time"

type Config struct {
	// Timeout bounds one job, including the generation call.
	Timeout time.Duration
	// InputSchema overrides the built-in job variable schema, usually with
	// the registry entry for TaskType.
	InputSchema map[string]interface{}
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
