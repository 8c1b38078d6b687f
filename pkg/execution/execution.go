// Package execution writes per-invocation audit records so every pipeline
// run is traceable to a user, trigger, and outcome.
package execution

import (
	"context"
	"time"

	"github.com/google/uuid"

	shared "github.com/launchloom/server/pkg"
	"github.com/launchloom/server/pkg/models"
)

// ExecutionOptions carries optional metadata for a new execution record.
type ExecutionOptions struct {
	UserID      string
	TestRunID   string
	TriggerType string
}

// LogStart creates a STARTED execution record and returns its id.
func LogStart(ctx context.Context, db shared.Database, service string, opts ExecutionOptions) (string, error) {
	execID := uuid.NewString()
	record := &models.ExecutionRecord{
		ExecutionID: execID,
		Service:     service,
		UserID:      opts.UserID,
		Status:      models.ExecutionStatusStarted,
		TriggerType: opts.TriggerType,
		TestRunID:   opts.TestRunID,
		StartedAt:   time.Now().UTC(),
	}
	if err := db.SetExecution(ctx, record); err != nil {
		return execID, err
	}
	return execID, nil
}

// LogSuccess marks the execution SUCCESS with its outputs.
func LogSuccess(ctx context.Context, db shared.Database, userID, execID string, outputs interface{}) error {
	return LogExecutionStatus(ctx, db, userID, execID, models.ExecutionStatusSuccess, outputs)
}

// LogFailure marks the execution FAILURE, recording the error.
func LogFailure(ctx context.Context, db shared.Database, userID, execID string, handlerErr error, outputs interface{}) error {
	data := map[string]interface{}{
		"status":       models.ExecutionStatusFailure,
		"error":        handlerErr.Error(),
		"completed_at": time.Now().UTC(),
	}
	if outputs != nil {
		data["outputs"] = outputs
	}
	return db.UpdateExecution(ctx, userID, execID, data)
}

// LogExecutionStatus marks the execution with an explicit terminal status.
func LogExecutionStatus(ctx context.Context, db shared.Database, userID, execID string, status models.ExecutionStatus, outputs interface{}) error {
	data := map[string]interface{}{
		"status":       status,
		"completed_at": time.Now().UTC(),
	}
	if outputs != nil {
		data["outputs"] = outputs
	}
	return db.UpdateExecution(ctx, userID, execID, data)
}
