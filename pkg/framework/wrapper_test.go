package framework

import (
	"context"
	"errors"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/launchloom/server/pkg/bootstrap"
	"github.com/launchloom/server/pkg/models"
	"github.com/launchloom/server/pkg/testing/mocks"
)

func pubsubEvent(t *testing.T, payload string) event.Event {
	t.Helper()
	e := cloudevents.NewEvent()
	e.SetType("google.cloud.pubsub.topic.v1.messagePublished")
	e.SetSource("//pubsub.googleapis.com/test")
	if err := e.SetData(cloudevents.ApplicationJSON, map[string]interface{}{
		"message": map[string]interface{}{
			"data":       []byte(payload),
			"attributes": map[string]string{"test_run_id": "tr-1"},
		},
	}); err != nil {
		t.Fatalf("failed to build event: %v", err)
	}
	return e
}

func TestWrapCloudEventLogsSuccess(t *testing.T) {
	var started *models.ExecutionRecord
	var finalStatus models.ExecutionStatus
	db := &mocks.MockDatabase{
		SetExecutionFunc: func(ctx context.Context, record *models.ExecutionRecord) error {
			started = record
			return nil
		},
		UpdateExecutionFunc: func(ctx context.Context, userID, id string, data map[string]interface{}) error {
			finalStatus = data["status"].(models.ExecutionStatus)
			return nil
		},
	}
	svc := &bootstrap.Service{DB: db}

	fn := WrapCloudEvent("test-service", svc, func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error) {
		if fwCtx.ExecutionID == "" {
			t.Error("execution id must be injected")
		}
		return map[string]interface{}{"handled": true}, nil
	})

	if err := fn(context.Background(), pubsubEvent(t, `{"user_id": "user-1"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if started == nil || started.Service != "test-service" {
		t.Fatalf("start record not written: %+v", started)
	}
	if started.UserID != "user-1" {
		t.Errorf("user id not extracted from payload, got %q", started.UserID)
	}
	if started.TestRunID != "tr-1" {
		t.Errorf("test run id not extracted from attributes, got %q", started.TestRunID)
	}
	if finalStatus != models.ExecutionStatusSuccess {
		t.Errorf("expected SUCCESS, got %s", finalStatus)
	}
}

func TestWrapCloudEventLogsFailure(t *testing.T) {
	var failureData map[string]interface{}
	db := &mocks.MockDatabase{
		UpdateExecutionFunc: func(ctx context.Context, userID, id string, data map[string]interface{}) error {
			failureData = data
			return nil
		},
	}
	svc := &bootstrap.Service{DB: db}

	boom := errors.New("handler exploded")
	fn := WrapCloudEvent("test-service", svc, func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error) {
		return nil, boom
	})

	if err := fn(context.Background(), pubsubEvent(t, `{"user_id": "user-1"}`)); !errors.Is(err, boom) {
		t.Fatalf("handler error must propagate, got %v", err)
	}
	if failureData["status"] != models.ExecutionStatusFailure {
		t.Errorf("expected FAILURE record, got %v", failureData)
	}
	if failureData["error"] != "handler exploded" {
		t.Errorf("error message not recorded: %v", failureData)
	}
}

func TestWrapCloudEventCustomSkippedStatus(t *testing.T) {
	var finalStatus models.ExecutionStatus
	db := &mocks.MockDatabase{
		UpdateExecutionFunc: func(ctx context.Context, userID, id string, data map[string]interface{}) error {
			finalStatus = data["status"].(models.ExecutionStatus)
			return nil
		},
	}
	svc := &bootstrap.Service{DB: db}

	fn := WrapCloudEvent("test-service", svc, func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error) {
		return map[string]interface{}{"status": "skipped"}, nil
	})

	if err := fn(context.Background(), pubsubEvent(t, `{}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finalStatus != models.ExecutionStatusSkipped {
		t.Errorf("expected SKIPPED, got %s", finalStatus)
	}
}
