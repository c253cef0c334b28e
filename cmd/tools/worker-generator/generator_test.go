package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-magnet-workers/pkg/registry"
)

func structuredActivity() *registry.Activity {
	return &registry.Activity{
		ID:             "generate-faq",
		DisplayName:    "Generate FAQ",
		Description:    "Generates a FAQ section",
		TaskType:       "generate-faq",
		GenerationMode: "structured",
		Timeout:        "20s",
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"user_answers", "firm_profile"},
			"properties": map[string]interface{}{
				"user_answers":   map[string]interface{}{"type": "object"},
				"firm_profile":   map[string]interface{}{"type": "object", "description": "Firm facts"},
				"lead_magnet_id": map[string]interface{}{"type": "string"},
				"max_questions":  map[string]interface{}{"type": "integer"},
			},
		},
	}
}

func TestRender_Structured(t *testing.T) {
	data, err := newWorkerData(structuredActivity(), `{"type": "object"}`)
	require.NoError(t, err)
	assert.Equal(t, "generatefaq", data.PackageName)
	assert.Equal(t, "20 * time.Second", data.Timeout)
	assert.True(t, data.HasLeadMagnetID)

	files, err := render(data)
	require.NoError(t, err)
	require.Len(t, files, 4)

	models := string(files["models.go"])
	assert.Contains(t, models, "package generatefaq")
	assert.Contains(t, models, "FirmProfile")
	assert.Contains(t, models, "// Firm facts")
	assert.Contains(t, models, "MaxQuestions")
	assert.Contains(t, models, "LeadMagnetID")
	assert.Contains(t, models, "Content")

	handler := string(files["handler.go"])
	assert.Contains(t, handler, `const TaskType = "generate-faq"`)
	assert.Contains(t, handler, "GenerateStructured(ctx, input.UserAnswers, input.FirmProfile)")
	assert.Contains(t, handler, "LeadMagnetID: input.LeadMagnetID")
	assert.Contains(t, string(files["config.go"]), "20 * time.Second")
}

func TestRender_Freeform(t *testing.T) {
	activity := &registry.Activity{
		ID:             "generate-headline",
		TaskType:       "generate-headline",
		GenerationMode: "freeform",
		Timeout:        "1500ms",
		InputSchema: map[string]interface{}{
			"properties": map[string]interface{}{"prompt": map[string]interface{}{"type": "string"}},
		},
	}

	data, err := newWorkerData(activity, `{}`)
	require.NoError(t, err)
	assert.False(t, data.HasLeadMagnetID)

	files, err := render(data)
	require.NoError(t, err)

	handler := string(files["handler.go"])
	assert.Contains(t, handler, "GenerateText(ctx, input.Prompt)")
	assert.NotContains(t, handler, "input.LeadMagnetID")
	assert.Contains(t, string(files["models.go"]), "Text")
	assert.Contains(t, string(files["config.go"]), "1500 * time.Millisecond")
}

func TestNewWorkerData_Rejects(t *testing.T) {
	badMode := structuredActivity()
	badMode.GenerationMode = "poetry"
	_, err := newWorkerData(badMode, `{}`)
	assert.ErrorContains(t, err, "generationMode")

	missingProp := structuredActivity()
	delete(missingProp.InputSchema["properties"].(map[string]interface{}), "firm_profile")
	_, err = newWorkerData(missingProp, `{}`)
	assert.ErrorContains(t, err, "firm_profile")

	badTimeout := structuredActivity()
	badTimeout.Timeout = "later"
	_, err = newWorkerData(badTimeout, `{}`)
	assert.ErrorContains(t, err, "invalid timeout")
}

func TestGenerate_WritesPackage(t *testing.T) {
	out := t.TempDir()

	written, err := generate(structuredActivity(), out, false)
	require.NoError(t, err)
	assert.Len(t, written, 4)

	_, err = os.Stat(filepath.Join(out, "generate-faq", "handler_test.go"))
	assert.NoError(t, err)

	_, err = generate(structuredActivity(), out, false)
	assert.ErrorContains(t, err, "already exists")

	_, err = generate(structuredActivity(), out, true)
	assert.NoError(t, err)
}

func TestGoName(t *testing.T) {
	assert.Equal(t, "LeadMagnetID", goName("lead_magnet_id"))
	assert.Equal(t, "CallbackURL", goName("callback-url"))
	assert.Equal(t, "Prompt", goName("prompt"))
}
