// Package events defines the lifecycle notifications published by the
// authenticator and the workflow runner.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the single event stream for the service.
const Topic = "dailygate.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Authentication lifecycle events.
	CodeIssuedEvent     EventType = "auth.code.issued"
	LoginSucceededEvent EventType = "auth.login.succeeded"
	LoginFailedEvent    EventType = "auth.login.failed"

	// Workflow execution lifecycle events.
	ExecutionStartedEvent   EventType = "workflow.execution.started"
	ExecutionCompletedEvent EventType = "workflow.execution.completed"
	ExecutionFailedEvent    EventType = "workflow.execution.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

type CodeIssued struct {
	BaseEvent

	Identity string `json:"identity"`
	Date     string `json:"date"`
}

func (e CodeIssued) GetType() EventType {
	return CodeIssuedEvent
}

type LoginSucceeded struct {
	BaseEvent

	Identity string `json:"identity"`
	ClientIP string `json:"client_ip,omitempty"`
}

func (e LoginSucceeded) GetType() EventType {
	return LoginSucceededEvent
}

type LoginFailed struct {
	BaseEvent

	Identity string `json:"identity"`
	ClientIP string `json:"client_ip,omitempty"`
	Reason   string `json:"reason"`
}

func (e LoginFailed) GetType() EventType {
	return LoginFailedEvent
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID  string `json:"execution_id"`
	WorkflowName string `json:"workflow_name"`
	Identity     string `json:"identity"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID  string        `json:"execution_id"`
	WorkflowName string        `json:"workflow_name"`
	Identity     string        `json:"identity"`
	Duration     time.Duration `json:"duration"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID  string        `json:"execution_id"`
	WorkflowName string        `json:"workflow_name"`
	Identity     string        `json:"identity"`
	Duration     time.Duration `json:"duration"`
	Error        string        `json:"error"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}
