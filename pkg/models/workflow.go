package models

// RegisteredWorkflow is the descriptor exposed for one registered
// handler, used by clients to render input forms dynamically.
type RegisteredWorkflow struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Version      string        `json:"version"`
	InputSchema  *JSONSchema   `json:"input_schema"`
	OutputSchema *JSONSchema   `json:"output_schema"`
	Stats        WorkflowStats `json:"stats"`
}
