// Package runner executes registered workflows. It owns the execution
// lifecycle: input validation, execution records, statistics and
// lifecycle events. Handlers only compute outputs.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/dailygate/pkg/eventbus"
	"github.com/dukex/dailygate/pkg/events"
	"github.com/dukex/dailygate/pkg/models"
	"github.com/dukex/dailygate/pkg/otelhelper"
	"github.com/dukex/dailygate/pkg/persistence"
	"github.com/dukex/dailygate/pkg/protocol"
	"github.com/dukex/dailygate/pkg/registry"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Runner coordinates workflow executions against the registry.
type Runner struct {
	registry    *registry.Registry
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer

	mu    sync.Mutex
	stats map[string]models.WorkflowStats
}

func NewRunner(reg *registry.Registry, store persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Runner {
	return &Runner{
		registry:    reg,
		persistence: store,
		publisher:   publisher,
		logger:      logger.With("module", "runner"),
		stats:       make(map[string]models.WorkflowStats),
	}
}

// WithTracer enables span creation around executions.
func (r *Runner) WithTracer(tracer trace.Tracer) *Runner {
	r.tracer = tracer

	return r
}

// Stats returns a snapshot of the accumulated statistics for one
// workflow. It satisfies registry.StatsProvider.
func (r *Runner) Stats(name string) models.WorkflowStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stats[name]
}

// Run executes the named workflow for the given identity.
//
// Validation failures are rejected before any execution record is
// written; only executions that passed validation appear in history
// and statistics.
func (r *Runner) Run(ctx context.Context, name string, inputs map[string]any, identity string) (*models.ExecutionResult, error) {
	handler, err := r.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	if inputs == nil {
		inputs = make(map[string]any)
	}

	inputs = applyDefaults(handler.InputSchema(), inputs)

	if err := validateInputs(handler.InputSchema(), inputs); err != nil {
		return nil, err
	}

	startedAt := time.Now().UTC()
	executionID := fmt.Sprintf("%s_%s_%d", name, identity, startedAt.Unix())

	var span trace.Span

	if r.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, r.tracer, "workflow.execute",
			attribute.String(otelhelper.WorkflowNameKey, name),
			attribute.String(otelhelper.IdentityKey, identity),
			attribute.String(otelhelper.ExecutionIDKey, executionID),
		)
		defer span.End()
	}

	record := &models.ExecutionRecord{
		ID:           executionID,
		Identity:     identity,
		WorkflowName: name,
		Inputs:       inputs,
		Status:       models.ExecutionStatusPending,
		StartedAt:    startedAt,
	}

	if err := r.persistence.Executions().Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record execution %s: %w", executionID, err)
	}

	r.publish(ctx, identity, events.ExecutionStarted{
		BaseEvent:    events.NewBaseEvent(events.ExecutionStartedEvent),
		ExecutionID:  executionID,
		WorkflowName: name,
		Identity:     identity,
	})

	r.logger.Info("Execution started",
		"execution_id", executionID, "workflow", name, "identity", identity)

	outputs, execErr := r.execute(ctx, handler, inputs, identity)
	duration := time.Since(startedAt)

	record.Duration = duration

	if execErr != nil {
		record.Status = models.ExecutionStatusFailed
		record.ErrorMessage = execErr.Error()
	} else {
		record.Status = models.ExecutionStatusSuccess
		record.Outputs = outputs

		switch tokens := outputs["tokens_used"].(type) {
		case int:
			record.TokensUsed = tokens
		case float64:
			record.TokensUsed = int(tokens)
		}
	}

	if err := r.persistence.Executions().Save(ctx, record); err != nil {
		r.logger.Error("Failed to finalize execution record",
			"execution_id", executionID, "error", err)
	}

	r.recordStats(name, duration, execErr == nil)

	if execErr != nil {
		if span != nil {
			otelhelper.SetError(span, execErr,
				attribute.String(otelhelper.WorkflowNameKey, name),
				attribute.String(otelhelper.ExecutionIDKey, executionID),
			)
		}

		r.publish(ctx, identity, events.ExecutionFailed{
			BaseEvent:    events.NewBaseEvent(events.ExecutionFailedEvent),
			ExecutionID:  executionID,
			WorkflowName: name,
			Identity:     identity,
			Duration:     duration,
			Error:        execErr.Error(),
		})

		r.logger.Error("Execution failed",
			"execution_id", executionID, "workflow", name, "duration", duration, "error", execErr)

		return nil, &ExecutionError{ExecutionID: executionID, Workflow: name, Err: execErr}
	}

	r.publish(ctx, identity, events.ExecutionCompleted{
		BaseEvent:    events.NewBaseEvent(events.ExecutionCompletedEvent),
		ExecutionID:  executionID,
		WorkflowName: name,
		Identity:     identity,
		Duration:     duration,
	})

	r.logger.Info("Execution completed",
		"execution_id", executionID, "workflow", name, "duration", duration)

	return &models.ExecutionResult{
		ExecutionID:  executionID,
		WorkflowName: name,
		Duration:     duration,
		Timestamp:    startedAt,
		Outputs:      outputs,
	}, nil
}

// execute runs the handler hooks in order. The handler may bound its
// own execution time via protocol.TimeoutProvider.
func (r *Runner) execute(ctx context.Context, handler protocol.Handler, inputs map[string]any, identity string) (map[string]any, error) {
	if tp, ok := handler.(protocol.TimeoutProvider); ok {
		if timeout := tp.ExecutionTimeout(); timeout > 0 {
			var cancel context.CancelFunc

			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
	}

	if pre, ok := handler.(protocol.Preprocessor); ok {
		processed, err := pre.Preprocess(inputs)
		if err != nil {
			return nil, fmt.Errorf("preprocess: %w", err)
		}

		inputs = processed
	}

	outputs, err := handler.Execute(ctx, inputs, identity)
	if err != nil {
		return nil, err
	}

	if post, ok := handler.(protocol.Postprocessor); ok {
		outputs, err = post.Postprocess(outputs)
		if err != nil {
			return nil, fmt.Errorf("postprocess: %w", err)
		}
	}

	return outputs, nil
}

func (r *Runner) recordStats(name string, duration time.Duration, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := r.stats[name]
	stats.TotalExecutions++
	stats.TotalDuration += duration

	if success {
		stats.SuccessfulExecutions++
	}

	r.stats[name] = stats
}

func (r *Runner) publish(ctx context.Context, key string, event eventbus.Event) {
	if r.publisher == nil {
		return
	}

	if err := r.publisher.Publish(ctx, key, event); err != nil {
		r.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

// applyDefaults fills missing input fields from schema defaults. The
// input map is not mutated.
func applyDefaults(schema *models.JSONSchema, inputs map[string]any) map[string]any {
	merged := make(map[string]any, len(inputs))
	for k, v := range inputs {
		merged[k] = v
	}

	for name, prop := range schema.Properties {
		if _, present := merged[name]; !present && prop.Default != nil {
			merged[name] = prop.Default
		}
	}

	return merged
}

func validateInputs(schema *models.JSONSchema, inputs map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(schema.AsGoType())
	documentLoader := gojsonschema.NewGoLoader(inputs)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	first := result.Errors()[0]

	return &ValidationError{
		Field:   first.Field(),
		Message: first.Description(),
	}
}
