// internal/perplexity/prompt.go
package perplexity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type contentRules struct {
	Format         string `json:"format"`
	Tone           string `json:"tone"`
	Length         string `json:"length"`
	NoPlaceholders bool   `json:"no_placeholders"`
}

type contentPrompt struct {
	FirmProfile map[string]interface{} `json:"firm_profile"`
	UserAnswers map[string]interface{} `json:"user_answers"`
	Rules       contentRules           `json:"rules"`
}

var defaultRules = contentRules{
	Format:         "JSON only",
	Tone:           "professional",
	Length:         "concise but complete",
	NoPlaceholders: true,
}

// buildMessages returns the chat messages and preset for req. Inputs are not
// validated beyond what is needed to serialize them.
func buildMessages(req GenerationRequest, cfg *Config) ([]message, Preset, error) {
	switch req.Mode {
	case ModeStructured:
		userContent, err := buildContentPrompt(req.UserAnswers, req.FirmProfile)
		if err != nil {
			return nil, Preset{}, err
		}
		return []message{
			{Role: "system", Content: cfg.Structured.SystemPrompt},
			{Role: "user", Content: userContent},
		}, cfg.Structured, nil

	case ModeFreeform:
		if strings.TrimSpace(req.Prompt) == "" {
			return nil, Preset{}, fmt.Errorf("%w: prompt is empty", ErrInvalidRequest)
		}
		return []message{
			{Role: "system", Content: cfg.Freeform.SystemPrompt},
			{Role: "user", Content: req.Prompt},
		}, cfg.Freeform, nil

	default:
		return nil, Preset{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, req.Mode)
	}
}

// buildContentPrompt encodes the structured payload without HTML escaping so
// non-ASCII and markup characters reach the model as written.
func buildContentPrompt(userAnswers, firmProfile map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	err := enc.Encode(contentPrompt{
		FirmProfile: firmProfile,
		UserAnswers: userAnswers,
		Rules:       defaultRules,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode prompt: %v", ErrInvalidRequest, err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
