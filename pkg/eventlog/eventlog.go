// Package eventlog mirrors the lifecycle event stream into the
// structured log, giving single-process deployments an event trail
// without an external consumer.
package eventlog

import (
	"context"
	"log/slog"

	"github.com/dukex/dailygate/pkg/eventbus"
	"github.com/dukex/dailygate/pkg/events"
)

// Register attaches a logging handler for every lifecycle event type.
// The caller starts delivery with Subscribe.
func Register(bus eventbus.EventSubscriber, logger *slog.Logger) error {
	eventLogger := logger.With("module", "eventlog")

	handler := func(ctx context.Context, event any) error {
		switch e := event.(type) {
		case *events.CodeIssued:
			eventLogger.InfoContext(ctx, "Daily code issued",
				"identity", e.Identity, "date", e.Date)
		case *events.LoginSucceeded:
			eventLogger.InfoContext(ctx, "Login succeeded",
				"identity", e.Identity, "client_ip", e.ClientIP)
		case *events.LoginFailed:
			eventLogger.WarnContext(ctx, "Login failed",
				"identity", e.Identity, "client_ip", e.ClientIP, "reason", e.Reason)
		case *events.ExecutionStarted:
			eventLogger.InfoContext(ctx, "Execution started",
				"execution_id", e.ExecutionID, "workflow", e.WorkflowName, "identity", e.Identity)
		case *events.ExecutionCompleted:
			eventLogger.InfoContext(ctx, "Execution completed",
				"execution_id", e.ExecutionID, "workflow", e.WorkflowName, "duration", e.Duration)
		case *events.ExecutionFailed:
			eventLogger.ErrorContext(ctx, "Execution failed",
				"execution_id", e.ExecutionID, "workflow", e.WorkflowName, "error", e.Error)
		}

		return nil
	}

	for _, eventType := range []events.EventType{
		events.CodeIssuedEvent,
		events.LoginSucceededEvent,
		events.LoginFailedEvent,
		events.ExecutionStartedEvent,
		events.ExecutionCompletedEvent,
		events.ExecutionFailedEvent,
	} {
		if err := bus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return nil
}
