package models

import "time"

// WorkflowStats accumulates per-workflow execution counters for the
// process lifetime. The average is always derived from the totals so
// it cannot drift.
type WorkflowStats struct {
	TotalExecutions      int64         `json:"total_executions"`
	SuccessfulExecutions int64         `json:"successful_executions"`
	TotalDuration        time.Duration `json:"total_execution_time"`
}

// AverageDuration returns TotalDuration / TotalExecutions, or zero when
// nothing has run yet.
func (s WorkflowStats) AverageDuration() time.Duration {
	if s.TotalExecutions == 0 {
		return 0
	}

	return s.TotalDuration / time.Duration(s.TotalExecutions)
}
