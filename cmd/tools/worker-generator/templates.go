// cmd/tools/worker-generator/templates.go
package main

const configTemplate = `// internal/workers/content/{{ .TaskType }}/config.go
package {{ .PackageName }}

import "time"

type Config struct {
	Timeout     time.Duration
	InputSchema map[string]interface{}
}

func LoadConfig() *Config {
	return &Config{
		Timeout: {{ .Timeout }},
	}
}
`

const modelsTemplate = `// internal/workers/content/{{ .TaskType }}/models.go
package {{ .PackageName }}

type Input struct {
{{- range .InputFields }}
	{{ .GoName }} {{ .GoType }} {{ .JSONTag }}{{ if .Comment }} // {{ .Comment }}{{ end }}
{{- end }}
}

type Output struct {
	LeadMagnetID string ` + "`" + `json:"lead_magnet_id,omitempty"` + "`" + `
{{- if eq .Mode "structured" }}
	Content map[string]interface{} ` + "`" + `json:"content"` + "`" + `
{{- else }}
	Text string ` + "`" + `json:"text"` + "`" + `
{{- end }}
	RequestID   string ` + "`" + `json:"request_id"` + "`" + `
	GeneratedAt string ` + "`" + `json:"generated_at"` + "`" + `
}
`

const handlerTemplate = `// internal/workers/content/{{ .TaskType }}/handler.go
package {{ .PackageName }}

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"` + modulePath + `/internal/common/errors"
	"` + modulePath + `/internal/common/logger"
	"` + modulePath + `/internal/common/metrics"
	"` + modulePath + `/internal/common/observability"
	"` + modulePath + `/internal/common/validation"
)

{{ if .Description }}// {{ .Description }}
{{ end -}}
const TaskType = "{{ .TaskType }}"

const commandTimeout = 10 * time.Second

const defaultInputSchema = ` + "`" + `{{ .InputSchemaJSON }}` + "`" + `

type Generator interface {
{{- if eq .Mode "structured" }}
	GenerateStructured(ctx context.Context, userAnswers, firmProfile map[string]interface{}) (map[string]interface{}, error)
{{- else }}
	GenerateText(ctx context.Context, prompt string) (string, error)
{{- end }}
}

type Handler struct {
	config       *Config
	generator    Generator
	schema       *validation.Schema
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
	now          func() time.Time
	newID        func() string
}

func NewHandler(config *Config, generator Generator, obs *observability.Observability, log logger.Logger) (*Handler, error) {
	var source interface{} = defaultInputSchema
	if len(config.InputSchema) > 0 {
		source = config.InputSchema
	}
	schema, err := validation.CompileSchema(source)
	if err != nil {
		return nil, fmt.Errorf("%s input schema: %w", TaskType, err)
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		generator:    generator,
		schema:       schema,
		errorHandler: errors.NewErrorHandler(log),
		obs:          obs,
		logger:       log,
		now:          time.Now,
		newID:        uuid.NewString,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := h.obs.StartSpan(ctx, TaskType, attribute.Int64("job.key", job.Key))
	defer span.End()

	cmdCtx, cmdCancel := context.WithTimeout(context.WithoutCancel(ctx), commandTimeout)
	defer cmdCancel()

	output, err := h.process(ctx, job.Variables)
	if err != nil {
		stdErr := h.errorHandler.HandleJobError(cmdCtx, client, job, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(stdErr.Code))
		h.record(ctx, start, string(stdErr.Code))
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err == nil {
		_, err = cmd.Send(cmdCtx)
	}
	if err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err.Error()})
		h.record(ctx, start, "COMPLETE_FAILED")
		return
	}
	h.record(ctx, start, "")
}

func (h *Handler) process(ctx context.Context, variables string) (*Output, error) {
	if result := h.schema.ValidateJSON([]byte(variables)); !result.Valid {
		return nil, errors.NewInvalidInputError(result.Summary())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return h.Execute(ctx, &input)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
{{- if eq .Mode "structured" }}
	content, err := h.generator.GenerateStructured(ctx, input.UserAnswers, input.FirmProfile)
{{- else }}
	text, err := h.generator.GenerateText(ctx, input.Prompt)
{{- end }}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", TaskType, err)
	}

	return &Output{
{{- if .HasLeadMagnetID }}
		LeadMagnetID: input.LeadMagnetID,
{{- end }}
{{- if eq .Mode "structured" }}
		Content:      content,
{{- else }}
		Text:         text,
{{- end }}
		RequestID:    h.newID(),
		GeneratedAt:  h.now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) record(ctx context.Context, start time.Time, errorCode string) {
	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())

	status := "success"
	if errorCode != "" {
		status = "failed"
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	}
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, elapsed, status)
}
`

const testTemplate = `package {{ .PackageName }}

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"` + modulePath + `/internal/common/logger"
)

type fakeGenerator struct{}
{{ if eq .Mode "structured" }}
func (fakeGenerator) GenerateStructured(context.Context, map[string]interface{}, map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"title": "generated"}, nil
}
{{ else }}
func (fakeGenerator) GenerateText(context.Context, string) (string, error) {
	return "generated", nil
}
{{ end }}
func TestHandler_Execute(t *testing.T) {
	h, err := NewHandler(LoadConfig(), fakeGenerator{}, nil, logger.NewTestLogger(t))
	require.NoError(t, err)

	output, err := h.process(context.Background(), ` + "`" + `{{ if eq .Mode "structured" }}{"user_answers":{},"firm_profile":{}}{{ else }}{"prompt":"hello"}{{ end }}` + "`" + `)

	require.NoError(t, err)
	assert.NotEmpty(t, output.RequestID)
{{- if eq .Mode "structured" }}
	assert.Equal(t, "generated", output.Content["title"])
{{- else }}
	assert.Equal(t, "generated", output.Text)
{{- end }}
}
`
