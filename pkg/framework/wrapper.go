package framework

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/launchloom/server/pkg/bootstrap"
	"github.com/launchloom/server/pkg/execution"
	"github.com/launchloom/server/pkg/infrastructure/sentry"
	"github.com/launchloom/server/pkg/models"
	"github.com/launchloom/server/pkg/types"
)

// FrameworkContext contains dependencies injected by the framework.
type FrameworkContext struct {
	Service     *bootstrap.Service
	Logger      *slog.Logger
	ExecutionID string
}

// HandlerFunc is the signature for a cloud function handler.
type HandlerFunc func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error)

// WrapCloudEvent wraps a handler with automatic execution logging and error
// reporting. Handles both HTTP and Pub/Sub triggers.
func WrapCloudEvent(serviceName string, svc *bootstrap.Service, handler HandlerFunc) func(context.Context, event.Event) error {
	return func(ctx context.Context, e event.Event) error {
		userID, testRunID := extractEventMetadata(e)

		triggerType := "pubsub"
		if e.Type() == "google.cloud.functions.http" {
			triggerType = "http"
		}

		logger := bootstrap.NewLogger(serviceName)
		if userID != "" {
			logger = logger.With("user_id", userID)
		}

		execID, err := execution.LogStart(ctx, svc.DB, serviceName, execution.ExecutionOptions{
			UserID:      userID,
			TestRunID:   testRunID,
			TriggerType: triggerType,
		})
		if err != nil {
			// Don't fail the function just because audit logging failed.
			logger.Error("Failed to log execution start", "error", err)
		}

		logger = logger.With("execution_id", execID)
		logger.Info("Function started")

		fwCtx := &FrameworkContext{
			Service:     svc,
			Logger:      logger,
			ExecutionID: execID,
		}

		outputs, handlerErr := handler(ctx, e, fwCtx)

		if handlerErr != nil {
			logger.Error("Function failed", "error", handlerErr)
			sentry.CaptureException(handlerErr, map[string]interface{}{
				"service":      serviceName,
				"execution_id": execID,
			}, logger)
			if logErr := execution.LogFailure(ctx, svc.DB, userID, execID, handlerErr, outputs); logErr != nil {
				logger.Warn("Failed to log execution failure", "error", logErr)
			}
			return handlerErr
		}

		logger.Info("Function completed successfully")

		// Handlers may return an explicit status (e.g. SKIPPED for a claim
		// conflict) in their outputs map.
		status := models.ExecutionStatusSuccess
		if outputsMap, ok := outputs.(map[string]interface{}); ok {
			if s, ok := outputsMap["status"].(string); ok && s != "" {
				switch models.ExecutionStatus(strings.ToUpper(s)) {
				case models.ExecutionStatusSuccess, models.ExecutionStatusFailure, models.ExecutionStatusSkipped:
					status = models.ExecutionStatus(strings.ToUpper(s))
				default:
					logger.Warn("Unknown custom status returned", "status", s)
				}
			}
		}

		if logErr := execution.LogExecutionStatus(ctx, svc.DB, userID, execID, status, outputs); logErr != nil {
			logger.Warn("Failed to log execution status", "error", logErr)
		}

		return nil
	}
}

// extractEventMetadata extracts user_id and test_run_id from the event.
// Handles both Pub/Sub messages and HTTP requests.
func extractEventMetadata(e event.Event) (userID string, testRunID string) {
	var msg types.PubSubMessage
	if err := e.DataAs(&msg); err == nil {
		var payload map[string]interface{}
		if err := json.Unmarshal(msg.Message.Data, &payload); err == nil {
			if uid, ok := payload["user_id"].(string); ok {
				userID = uid
			}
			if uid, ok := payload["userId"].(string); ok {
				userID = uid
			}
		}

		if msg.Message.Attributes != nil {
			if trid, ok := msg.Message.Attributes["test_run_id"]; ok {
				testRunID = trid
			}
		}
	}

	// HTTP headers are mapped to extensions by the Functions Framework.
	if testRunID == "" {
		extensions := e.Extensions()
		if trid, ok := extensions["test_run_id"].(string); ok {
			testRunID = trid
		}
		if trid, ok := extensions["testrunid"].(string); ok {
			testRunID = trid
		}
	}

	return userID, testRunID
}
