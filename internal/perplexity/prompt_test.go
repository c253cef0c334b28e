package perplexity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages_Structured(t *testing.T) {
	cfg := LoadConfig("k")
	answers := map[string]interface{}{"lead_magnet_type": "checklist", "pain_points": []interface{}{"cash flow"}}
	profile := map[string]interface{}{"firm_name": "Acme CPA", "industry": "accounting"}

	messages, preset, err := buildMessages(NewStructuredRequest(answers, profile), cfg)

	require.NoError(t, err)
	assert.Equal(t, cfg.Structured, preset)
	require.Len(t, messages, 2)
	assert.Equal(t, message{Role: "system", Content: structuredSystemPrompt}, messages[0])

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(messages[1].Content), &decoded))
	assert.Equal(t, profile, decoded["firm_profile"])
	assert.Equal(t, answers, decoded["user_answers"])
	assert.Contains(t, decoded, "rules")
}

func TestBuildMessages_StructuredSerializesAsIs(t *testing.T) {
	messages, _, err := buildMessages(NewStructuredRequest(nil, map[string]interface{}{"nested": map[string]interface{}{"x": nil}}), LoadConfig("k"))

	require.NoError(t, err)
	assert.Contains(t, messages[1].Content, `"user_answers":null`)
	assert.Contains(t, messages[1].Content, `"nested":{"x":null}`)
}

func TestBuildMessages_StructuredUnencodable(t *testing.T) {
	answers := map[string]interface{}{"callback": func() {}}

	_, _, err := buildMessages(NewStructuredRequest(answers, nil), LoadConfig("k"))

	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBuildMessages_Freeform(t *testing.T) {
	cfg := LoadConfig("k")

	messages, preset, err := buildMessages(NewFreeformRequest("Write a tagline"), cfg)

	require.NoError(t, err)
	assert.Equal(t, cfg.Freeform, preset)
	assert.Equal(t, []message{
		{Role: "system", Content: freeformSystemPrompt},
		{Role: "user", Content: "Write a tagline"},
	}, messages)
}

func TestConfig_WithDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		APIKey:   "k",
		BaseURL:  "http://localhost:9000/chat/completions",
		Freeform: Preset{MaxTokens: 200, Temperature: 0},
	}

	resolved := cfg.withDefaults()

	assert.Equal(t, "http://localhost:9000/chat/completions", resolved.BaseURL)
	assert.Equal(t, 200, resolved.Freeform.MaxTokens)
	assert.Equal(t, 0.0, resolved.Freeform.Temperature)
	assert.Equal(t, freeformSystemPrompt, resolved.Freeform.SystemPrompt)
	assert.Equal(t, DefaultStructuredPreset(), resolved.Structured)
}
