// Package protocol defines the contract every workflow handler
// implements. Handlers declare their schemas and compute domain
// outputs only; execution records and statistics are owned by the
// runner.
package protocol

import (
	"context"
	"time"

	"github.com/dukex/dailygate/pkg/models"
)

// Handler is a named, schema-described unit of work invocable through
// the runner.
type Handler interface {
	Name() string
	Description() string
	Version() string
	InputSchema() *models.JSONSchema
	OutputSchema() *models.JSONSchema

	Execute(ctx context.Context, inputs map[string]any, identity string) (map[string]any, error)
}

// Preprocessor is optionally implemented by handlers that normalize
// inputs before execution. The default is the identity transform.
type Preprocessor interface {
	Preprocess(inputs map[string]any) (map[string]any, error)
}

// Postprocessor is optionally implemented by handlers that reshape
// outputs after execution. The default is the identity transform.
type Postprocessor interface {
	Postprocess(outputs map[string]any) (map[string]any, error)
}

// TimeoutProvider is optionally implemented by handlers whose
// execution must be bounded (e.g. external API calls). The runner
// applies the returned timeout to the execution context.
type TimeoutProvider interface {
	ExecutionTimeout() time.Duration
}
