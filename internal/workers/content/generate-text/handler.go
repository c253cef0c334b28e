// internal/workers/content/generate-text/handler.go
package generatetext

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

	"lead-magnet-workers/internal/common/errors"
	"lead-magnet-workers/internal/common/logger"
	"lead-magnet-workers/internal/common/metrics"
	"lead-magnet-workers/internal/common/observability"
	"lead-magnet-workers/internal/common/validation"
)

const TaskType = "generate-text"

const commandTimeout = 10 * time.Second

const defaultInputSchema = `{
  "type": "object",
  "required": ["prompt"],
  "properties": {
    "prompt": {"type": "string", "minLength": 1},
    "lead_magnet_id": {"type": "string"}
  }
}`

type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
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

	ctx, span := h.obs.StartSpan(ctx, TaskType,
		attribute.Int64("job.key", job.Key),
		attribute.Int64("process.instance.key", job.ProcessInstanceKey),
	)
	defer span.End()

	log := h.logger.With(map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	log.Info("processing job", nil)

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

	span.SetAttributes(attribute.String("request.id", output.RequestID))
	if err := h.completeJob(cmdCtx, client, job, output); err != nil {
		log.Error("Failed to complete job", map[string]interface{}{
			"requestId": output.RequestID,
			"error":     err.Error(),
		})
		span.RecordError(err)
		span.SetStatus(codes.Error, "complete job failed")
		h.record(ctx, start, "COMPLETE_FAILED")
		return
	}

	log.Info("job completed", map[string]interface{}{
		"requestId":  output.RequestID,
		"textLength": len(output.Text),
		"durationMs": time.Since(start).Milliseconds(),
	})
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

// Execute generates text for input.Prompt. A blank prompt is rejected by
// the generator before any network call.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	text, err := h.generator.GenerateText(ctx, input.Prompt)
	if err != nil {
		return nil, fmt.Errorf("generate text: %w", err)
	}

	return &Output{
		LeadMagnetID: input.LeadMagnetID,
		Text:         text,
		RequestID:    h.newID(),
		GeneratedAt:  h.now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("create complete job command: %w", err)
	}

	if _, err := cmd.Send(ctx); err != nil {
		return fmt.Errorf("send complete job command: %w", err)
	}
	return nil
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
