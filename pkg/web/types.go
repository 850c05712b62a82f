// Package web provides the HTTP handlers and request types for the
// authentication and workflow API.
package web

import (
	"time"

	"github.com/dukex/dailygate/pkg/models"
)

// LoginRequest is the body for exchanging a daily code for a token.
type LoginRequest struct {
	Identity string `json:"identity" validate:"required,min=1,max=64"`
	Code     string `json:"code"     validate:"required,min=1,max=32"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Identity    string `json:"identity"`
}

// ExecuteRequest is the body for running a workflow. Inputs are
// validated against the workflow's declared input schema, not here.
type ExecuteRequest struct {
	Inputs map[string]any `json:"inputs"`
}

// ExecuteResponse wraps a successful execution result.
type ExecuteResponse struct {
	ExecutionID  string         `json:"execution_id"`
	WorkflowName string         `json:"workflow_name"`
	DurationMS   int64          `json:"duration_ms"`
	Timestamp    time.Time      `json:"timestamp"`
	Outputs      map[string]any `json:"outputs"`
}

// IssueCodeRequest is the admin body for issuing a daily code.
type IssueCodeRequest struct {
	Identity string `json:"identity" validate:"required,min=1,max=64"`
}

// IssueCodeResponse reports the issued code.
type IssueCodeResponse struct {
	Identity string `json:"identity"`
	Code     string `json:"code"`
	Date     string `json:"date"`
	Created  bool   `json:"created"`
}

// MeResponse describes the authenticated identity.
type MeResponse struct {
	Identity string `json:"identity"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

// TransformExecuteResponse converts a runner result to the API shape.
func TransformExecuteResponse(result *models.ExecutionResult) ExecuteResponse {
	return ExecuteResponse{
		ExecutionID:  result.ExecutionID,
		WorkflowName: result.WorkflowName,
		DurationMS:   result.Duration.Milliseconds(),
		Timestamp:    result.Timestamp,
		Outputs:      result.Outputs,
	}
}
