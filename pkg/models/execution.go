package models

import "time"

// ExecutionStatus values for execution audit records.
type ExecutionStatus string

const (
	ExecutionStatusStarted ExecutionStatus = "STARTED"
	ExecutionStatusSuccess ExecutionStatus = "SUCCESS"
	ExecutionStatusFailure ExecutionStatus = "FAILURE"
	ExecutionStatusSkipped ExecutionStatus = "SKIPPED"
)

// ExecutionRecord is the per-invocation audit entry at
// users/{uid}/executions/{id}.
type ExecutionRecord struct {
	ExecutionID string          `firestore:"execution_id" json:"execution_id"`
	Service     string          `firestore:"service" json:"service"`
	UserID      string          `firestore:"user_id,omitempty" json:"user_id,omitempty"`
	Status      ExecutionStatus `firestore:"status" json:"status"`
	TriggerType string          `firestore:"trigger_type,omitempty" json:"trigger_type,omitempty"`
	TestRunID   string          `firestore:"test_run_id,omitempty" json:"test_run_id,omitempty"`

	Error   string                 `firestore:"error,omitempty" json:"error,omitempty"`
	Outputs map[string]interface{} `firestore:"outputs,omitempty" json:"outputs,omitempty"`

	StartedAt   time.Time `firestore:"started_at" json:"started_at"`
	CompletedAt time.Time `firestore:"completed_at,omitempty" json:"completed_at,omitempty"`
}
