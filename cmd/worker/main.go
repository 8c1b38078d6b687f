// The worker consumes campaign generation jobs from Pub/Sub and runs the
// orchestration pipeline. A periodic recovery sweep resumes checkpoints
// abandoned by crashed instances.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"

	shared "github.com/launchloom/server/pkg"
	"github.com/launchloom/server/pkg/bootstrap"
	"github.com/launchloom/server/pkg/campaign/fabricator"
	"github.com/launchloom/server/pkg/campaign/ledger"
	"github.com/launchloom/server/pkg/campaign/orchestrator"
	"github.com/launchloom/server/pkg/campaign/planner"
	"github.com/launchloom/server/pkg/campaign/publisher"
	"github.com/launchloom/server/pkg/execution"
	"github.com/launchloom/server/pkg/infrastructure/sentry"
	"github.com/launchloom/server/pkg/models"
)

const sweepInterval = 5 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.NewLogger("campaign-worker")

	if err := sentry.Init(sentry.ConfigFromEnv("campaign-worker"), logger); err != nil {
		logger.Warn("Sentry init failed", "error", err)
	}
	defer sentry.Flush(2 * time.Second)

	svc, err := bootstrap.NewService(ctx)
	if err != nil {
		logger.Error("Service init failed", "error", err)
		os.Exit(1)
	}

	psClient, err := pubsub.NewClient(ctx, svc.Config.ProjectID)
	if err != nil {
		logger.Error("Pub/Sub client init failed", "error", err)
		os.Exit(1)
	}
	defer psClient.Close()

	owner, _ := os.Hostname()
	if owner == "" {
		owner = "campaign-worker"
	}

	bucket := svc.Config.AssetsBucket
	if bucket == "" {
		bucket = "launchloom-assets"
	}

	led := ledger.New(svc.DB, logger)
	orch := orchestrator.New(
		svc.DB,
		planner.New(svc.Text, logger),
		fabricator.New(svc.Media, svc.Store, bucket, svc.Config.SignedURLTTL, logger),
		publisher.New(svc.DB, logger),
		led,
		svc.Pub,
		owner,
		logger,
	)
	orch.Notifications = svc.Notifications

	go recoverySweep(ctx, logger, led, orch)

	sub := psClient.Subscription(shared.SubscriptionCampaignGeneration)
	sub.ReceiveSettings.MaxOutstandingMessages = 4

	logger.Info("Worker listening", "subscription", shared.SubscriptionCampaignGeneration, "owner", owner)
	err = sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		handleMessage(ctx, logger, svc, orch, m)
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("Receive failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shut down")
}

func handleMessage(ctx context.Context, logger *slog.Logger, svc *bootstrap.Service, orch *orchestrator.Orchestrator, m *pubsub.Message) {
	defer sentry.RecoverAndCapture(logger)

	var job models.GenerationJob
	if err := json.Unmarshal(m.Data, &job); err != nil {
		logger.Error("Undecodable job, dropping", "message_id", m.ID, "error", err)
		m.Ack()
		return
	}

	execID, err := execution.LogStart(ctx, svc.DB, "campaign-worker", execution.ExecutionOptions{
		UserID:      job.UserID,
		TriggerType: "pubsub",
		TestRunID:   m.Attributes["test_run_id"],
	})
	if err != nil {
		logger.Error("Failed to log execution start", "error", err)
	}

	if err := orch.Run(ctx, &job); err != nil {
		logger.Error("Generation failed, nacking for retry",
			"campaign_id", job.CampaignID, "error", err)
		sentry.CaptureException(err, map[string]interface{}{"campaign_id": job.CampaignID}, logger)
		if logErr := execution.LogFailure(ctx, svc.DB, job.UserID, execID, err, nil); logErr != nil {
			logger.Warn("Failed to log execution failure", "error", logErr)
		}
		m.Nack()
		return
	}

	if logErr := execution.LogSuccess(ctx, svc.DB, job.UserID, execID, map[string]interface{}{
		"campaign_id": job.CampaignID,
	}); logErr != nil {
		logger.Warn("Failed to log execution success", "error", logErr)
	}
	m.Ack()
}

// recoverySweep resumes generation for checkpoints whose owner stopped
// reporting. Claims held by live workers are skipped.
func recoverySweep(ctx context.Context, logger *slog.Logger, led *ledger.Ledger, orch *orchestrator.Orchestrator) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		stale, err := led.Stale(ctx)
		if err != nil {
			logger.Error("Recovery sweep failed to list checkpoints", "error", err)
		}
		for _, cp := range stale {
			logger.Info("Resuming abandoned checkpoint",
				"campaign_id", cp.CampaignID,
				"completed", len(cp.CompletedChannels),
				"total", len(cp.Channels))
			job := &models.GenerationJob{
				CampaignID: cp.CampaignID,
				UserID:     cp.UserID,
				Resume:     true,
			}
			if err := orch.Run(ctx, job); err != nil {
				logger.Error("Recovery run failed", "campaign_id", cp.CampaignID, "error", err)
				sentry.CaptureException(err, map[string]interface{}{"campaign_id": cp.CampaignID}, logger)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
