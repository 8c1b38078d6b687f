// Package channelpublisher is the Cloud Function that pushes one rendered
// channel to its connected platform. It serves user-triggered re-publishes;
// first-run publishing happens inline in the generation pipeline.
package channelpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/launchloom/server/pkg/bootstrap"
	"github.com/launchloom/server/pkg/campaign/publisher"
	"github.com/launchloom/server/pkg/framework"
	"github.com/launchloom/server/pkg/models"
	"github.com/launchloom/server/pkg/types"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.CloudEvent("PublishChannel", PublishChannel)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		svc, svcErr = bootstrap.NewService(ctx)
		if svcErr != nil {
			slog.Error("Failed to initialize service", "error", svcErr)
		}
	})
	return svc, svcErr
}

// PublishChannel is the entry point
func PublishChannel(ctx context.Context, e event.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %v", err)
	}
	return framework.WrapCloudEvent("channel-publisher", svc, publishHandler)(ctx, e)
}

func publishHandler(ctx context.Context, e event.Event, fwCtx *framework.FrameworkContext) (interface{}, error) {
	var msg types.PubSubMessage
	if err := e.DataAs(&msg); err != nil {
		return nil, fmt.Errorf("event.DataAs: %v", err)
	}

	var job models.PublishJob
	if err := json.Unmarshal(msg.Message.Data, &job); err != nil {
		return nil, fmt.Errorf("job unmarshal: %v", err)
	}
	if job.UserID == "" || job.CampaignID == "" || job.Channel == "" {
		return nil, fmt.Errorf("missing user_id, campaign_id or channel in job")
	}

	conn := publisher.New(fwCtx.Service.DB, fwCtx.Logger)
	confirmationID, err := conn.Publish(ctx, &job)
	if err != nil {
		// No connector or no linked account is a terminal skip, not a retry.
		if errors.Is(err, publisher.ErrNotConnected) || errors.Is(err, publisher.ErrUnsupportedChannel) {
			fwCtx.Logger.Info("Channel cannot be auto-published", "channel", job.Channel, "reason", err.Error())
			return map[string]interface{}{
				"status": "SKIPPED",
				"reason": err.Error(),
			}, nil
		}
		return nil, err
	}

	updates := map[string]interface{}{
		"channel_results." + job.Channel + ".status":                  models.ChannelStatusPublished,
		"channel_results." + job.Channel + ".publish_confirmation_id": confirmationID,
		"channel_results." + job.Channel + ".completed_at":            time.Now().UTC(),
		"updated_at": time.Now().UTC(),
	}
	if err := fwCtx.Service.DB.UpdateCampaign(ctx, job.UserID, job.CampaignID, updates); err != nil {
		fwCtx.Logger.Error("Published but failed to record confirmation",
			"campaign_id", job.CampaignID, "channel", job.Channel, "error", err)
	}

	return map[string]interface{}{
		"status":          "SUCCESS",
		"channel":         job.Channel,
		"confirmation_id": confirmationID,
	}, nil
}
