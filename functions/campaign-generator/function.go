// Package campaigngenerator is the Cloud Function entry point for the
// campaign generation pipeline. It unwraps the Pub/Sub job and hands it to
// the orchestrator.
package campaigngenerator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/launchloom/server/pkg/bootstrap"
	"github.com/launchloom/server/pkg/campaign/fabricator"
	"github.com/launchloom/server/pkg/campaign/ledger"
	"github.com/launchloom/server/pkg/campaign/orchestrator"
	"github.com/launchloom/server/pkg/campaign/planner"
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
	functions.CloudEvent("GenerateCampaign", GenerateCampaign)
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

// GenerateCampaign is the entry point
func GenerateCampaign(ctx context.Context, e event.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %v", err)
	}
	return framework.WrapCloudEvent("campaign-generator", svc, generateHandler)(ctx, e)
}

// generateHandler contains the business logic
func generateHandler(ctx context.Context, e event.Event, fwCtx *framework.FrameworkContext) (interface{}, error) {
	var msg types.PubSubMessage
	if err := e.DataAs(&msg); err != nil {
		return nil, fmt.Errorf("event.DataAs: %v", err)
	}

	var job models.GenerationJob
	if err := json.Unmarshal(msg.Message.Data, &job); err != nil {
		return nil, fmt.Errorf("job unmarshal: %v", err)
	}
	if job.CampaignID == "" || job.UserID == "" {
		return nil, fmt.Errorf("missing campaign_id or user_id in job")
	}

	fwCtx.Logger.Info("Starting campaign generation",
		"campaign_id", job.CampaignID,
		"only_channels", job.OnlyChannels,
		"resume", job.Resume)

	o := buildOrchestrator(fwCtx.Service, fwCtx.Logger)
	if err := o.Run(ctx, &job); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"status":      "SUCCESS",
		"campaign_id": job.CampaignID,
	}, nil
}

func buildOrchestrator(svc *bootstrap.Service, logger *slog.Logger) *orchestrator.Orchestrator {
	bucket := svc.Config.AssetsBucket
	if bucket == "" {
		bucket = "launchloom-assets"
	}

	o := orchestrator.New(
		svc.DB,
		planner.New(svc.Text, logger),
		fabricator.New(svc.Media, svc.Store, bucket, svc.Config.SignedURLTTL, logger),
		publisher.New(svc.DB, logger),
		ledger.New(svc.DB, logger),
		svc.Pub,
		workerIdentity(),
		logger,
	)
	o.Notifications = svc.Notifications
	return o
}

// workerIdentity names this instance for checkpoint claims.
func workerIdentity() string {
	if id := os.Getenv("K_REVISION"); id != "" {
		return id + "-" + os.Getenv("HOSTNAME")
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "campaign-generator"
}
