package models

import "time"

// AuditEntry records one authentication attempt or administrative
// action, including the outcome detail that is never surfaced to the
// caller.
type AuditEntry struct {
	Identity  string         `json:"identity"`
	Action    string         `json:"action"`
	Success   bool           `json:"success"`
	Detail    string         `json:"detail,omitempty"`
	ClientIP  string         `json:"client_ip,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
