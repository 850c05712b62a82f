package models

import "time"

type ExecutionStatus string

const (
	ExecutionStatusPending ExecutionStatus = "pending"
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

// ExecutionRecord is the append-only audit entry for one workflow
// invocation. It is created in pending state before the handler runs
// and finalized exactly once; finalized records are never mutated.
type ExecutionRecord struct {
	ID           string          `json:"id"`
	Identity     string          `json:"identity"`
	WorkflowName string          `json:"workflow_name"`
	Inputs       map[string]any  `json:"inputs"`
	Outputs      map[string]any  `json:"outputs,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Status       ExecutionStatus `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	Duration     time.Duration   `json:"duration"`
	TokensUsed   int             `json:"tokens_used,omitempty"`
}

// ExecutionResult is what the runner returns to the caller on success.
type ExecutionResult struct {
	ExecutionID  string         `json:"execution_id"`
	WorkflowName string         `json:"workflow_name"`
	Duration     time.Duration  `json:"execution_time"`
	Timestamp    time.Time      `json:"timestamp"`
	Outputs      map[string]any `json:"outputs"`
}
