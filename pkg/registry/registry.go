// Package registry maps workflow names to their handlers and exposes
// the descriptor list that drives dynamic client-side forms.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukex/dailygate/pkg/models"
	"github.com/dukex/dailygate/pkg/protocol"
)

var (
	// ErrWorkflowNotFound indicates a lookup for an unregistered workflow name.
	ErrWorkflowNotFound = errors.New("workflow not registered")

	// ErrAlreadyRegistered indicates a duplicate registration attempt.
	ErrAlreadyRegistered = errors.New("workflow already registered")

	// ErrMissingSchema indicates a handler that does not declare both schemas.
	ErrMissingSchema = errors.New("handler must declare input and output schemas")
)

// StatsProvider supplies live execution statistics per workflow name.
// The runner implements it; the registry itself never mutates stats.
type StatsProvider interface {
	Stats(name string) models.WorkflowStats
}

// Registry holds registered handlers in registration order.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]protocol.Handler
	order    []string
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger.With("module", "registry"),
		handlers: make(map[string]protocol.Handler),
	}
}

// Register adds a handler under its declared name. Registration is a
// startup-time operation; failures here are configuration errors and
// should be fatal.
func (r *Registry) Register(handler protocol.Handler) error {
	name := handler.Name()

	if handler.InputSchema() == nil || handler.OutputSchema() == nil {
		return fmt.Errorf("workflow %q: %w", name, ErrMissingSchema)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("workflow %q: %w", name, ErrAlreadyRegistered)
	}

	r.handlers[name] = handler
	r.order = append(r.order, name)

	r.logger.Info("Workflow registered", "workflow", name, "version", handler.Version())

	return nil
}

// Lookup returns the handler for a name.
func (r *Registry) Lookup(name string) (protocol.Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("workflow %q: %w", name, ErrWorkflowNotFound)
	}

	return handler, nil
}

// List returns descriptors in registration order, with current stats
// snapshots when a provider is given.
func (r *Registry) List(stats StatsProvider) []models.RegisteredWorkflow {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workflows := make([]models.RegisteredWorkflow, 0, len(r.order))

	for _, name := range r.order {
		handler := r.handlers[name]

		descriptor := models.RegisteredWorkflow{
			Name:         name,
			Description:  handler.Description(),
			Version:      handler.Version(),
			InputSchema:  handler.InputSchema(),
			OutputSchema: handler.OutputSchema(),
		}

		if stats != nil {
			descriptor.Stats = stats.Stats(name)
		}

		workflows = append(workflows, descriptor)
	}

	return workflows
}

// HealthCheck reports the registry state for the health endpoint.
func (r *Registry) HealthCheck() (map[string]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]any{
		"total_workflows": len(r.order),
		"workflow_names":  append([]string(nil), r.order...),
	}, len(r.order) > 0
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}
