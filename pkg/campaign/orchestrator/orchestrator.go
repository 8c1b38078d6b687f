// Package orchestrator drives a campaign through planning, fabrication,
// governance and publishing. Channels are processed as independent tasks:
// one channel failing never aborts the others, and every channel ends in a
// terminal published or failed state before the campaign completes.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/launchloom/server/pkg"
	"github.com/launchloom/server/pkg/campaign/fabricator"
	"github.com/launchloom/server/pkg/campaign/governance"
	"github.com/launchloom/server/pkg/campaign/ledger"
	"github.com/launchloom/server/pkg/campaign/planner"
	"github.com/launchloom/server/pkg/campaign/publisher"
	infrapubsub "github.com/launchloom/server/pkg/infrastructure/pubsub"
	"github.com/launchloom/server/pkg/models"
)

var titleCaser = cases.Title(language.English)

// Orchestrator runs the campaign generation pipeline.
type Orchestrator struct {
	DB            shared.Database
	Planner       *planner.Planner
	Fabricator    *fabricator.Fabricator
	Connector     *publisher.Connector
	Ledger        *ledger.Ledger
	Pub           shared.Publisher
	Notifications shared.NotificationService
	Logger        *slog.Logger

	// Owner identifies this worker instance for checkpoint claims.
	Owner string
}

func New(db shared.Database, p *planner.Planner, f *fabricator.Fabricator, c *publisher.Connector, l *ledger.Ledger, pub shared.Publisher, owner string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		DB:         db,
		Planner:    p,
		Fabricator: f,
		Connector:  c,
		Ledger:     l,
		Pub:        pub,
		Owner:      owner,
		Logger:     logger.With("component", "orchestrator"),
	}
}

// Run processes one generation job to completion. Returning nil acks the
// message; an error lets the queue redeliver, which resumes from the
// checkpoint instead of repeating finished channels.
func (o *Orchestrator) Run(ctx context.Context, job *models.GenerationJob) error {
	logger := o.Logger.With("campaign_id", job.CampaignID, "user_id", job.UserID)

	campaign, err := o.DB.GetCampaign(ctx, job.UserID, job.CampaignID)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return o.cleanupOrphan(ctx, logger, job.CampaignID)
		}
		return fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		return o.cleanupOrphan(ctx, logger, job.CampaignID)
	}

	requested := campaign.Channels
	if len(job.OnlyChannels) > 0 {
		requested = job.OnlyChannels
	}

	remaining, err := o.Ledger.Start(ctx, job.UserID, job.CampaignID, requested, job.Resume)
	if err != nil {
		return fmt.Errorf("failed to start checkpoint: %w", err)
	}

	if err := o.Ledger.Claim(ctx, job.CampaignID, o.Owner); err != nil {
		if ledger.IsClaimConflict(err) {
			logger.Info("Checkpoint owned by another worker, skipping")
			return nil
		}
		return fmt.Errorf("failed to claim checkpoint: %w", err)
	}

	if len(remaining) == 0 {
		logger.Info("No channels remaining, finalizing")
		return o.finalize(ctx, logger, campaign, requested)
	}

	blueprints, err := o.ensurePlanned(ctx, logger, campaign, remaining)
	if err != nil {
		return err
	}

	// Channel tasks write disjoint channel_results keys, so they run in
	// parallel and merge safely.
	var wg sync.WaitGroup
	for _, channel := range remaining {
		wg.Add(1)
		go func(channel string) {
			defer wg.Done()
			result := o.processChannel(ctx, logger, campaign, channel, blueprints[channel])
			o.recordChannel(ctx, logger, campaign, channel, result)
		}(channel)
	}
	wg.Wait()

	return o.finalize(ctx, logger, campaign, requested)
}

// ensurePlanned returns the campaign's blueprints, invoking the planner on
// first run. Stored blueprints from an interrupted run are reused so a resume
// never re-plans; channels whose stored blueprint is a manual-action
// placeholder get a fresh plan so a user-triggered re-run can recover.
func (o *Orchestrator) ensurePlanned(ctx context.Context, logger *slog.Logger, campaign *models.Campaign, remaining []string) (map[string]*models.ChannelBlueprint, error) {
	needed := unplannedChannels(campaign, remaining)
	if len(campaign.Blueprints) > 0 {
		if len(needed) == 0 {
			logger.Info("Reusing stored blueprints", "count", len(campaign.Blueprints))
			return campaign.Blueprints, nil
		}
		logger.Info("Re-planning channels without a usable blueprint", "channels", needed)
	}

	if err := o.updateCampaign(ctx, campaign, map[string]interface{}{
		"status": models.CampaignStatusPlanning,
	}); err != nil {
		return nil, fmt.Errorf("failed to mark campaign planning: %w", err)
	}

	if campaign.Brand == nil {
		brand, err := o.DB.GetBrandProfile(ctx, campaign.UserID)
		if err != nil {
			logger.Warn("Brand profile unavailable, planning without it", "error", err)
		} else {
			campaign.Brand = brand
		}
	}

	plans, _, err := o.Planner.Plan(ctx, campaign)
	if err != nil {
		// Planning failure is campaign-level: nothing downstream can run.
		// Failed is terminal, so the checkpoint goes too; a retry takes an
		// explicit user action, never the recovery sweep.
		if uerr := o.updateCampaign(ctx, campaign, map[string]interface{}{
			"status":         models.CampaignStatusFailed,
			"status_message": "planning failed",
		}); uerr != nil {
			logger.Error("Failed to record planning failure", "error", uerr)
		}
		if cerr := o.Ledger.Cleanup(ctx, campaign.ID); cerr != nil {
			logger.Error("Failed to clean up checkpoint after planning failure", "error", cerr)
		}
		return nil, fmt.Errorf("planning: %w", err)
	}

	merged := plans
	if len(campaign.Blueprints) > 0 {
		merged = make(map[string]*models.ChannelBlueprint, len(campaign.Blueprints))
		for channel, bp := range campaign.Blueprints {
			merged[channel] = bp
		}
		for _, channel := range needed {
			if bp, ok := plans[channel]; ok {
				merged[channel] = bp
			}
		}
	}
	degraded := false
	for _, bp := range merged {
		if bp.ManualAction {
			degraded = true
		}
	}

	campaign.Blueprints = merged
	campaign.DegradedPlan = degraded

	updates := map[string]interface{}{
		"blueprints":     merged,
		"degraded_plan":  degraded,
		"status":         models.CampaignStatusGenerating,
		"status_message": "",
	}
	if campaign.Brand != nil {
		updates["brand"] = campaign.Brand
	}
	if err := o.updateCampaign(ctx, campaign, updates); err != nil {
		return nil, fmt.Errorf("failed to persist blueprints: %w", err)
	}

	if err := o.DB.IncrementGenerationCount(ctx, campaign.UserID); err != nil {
		logger.Warn("Failed to increment generation count", "error", err)
	}
	return merged, nil
}

// unplannedChannels returns the channels still to process whose stored
// blueprint is missing or a manual-action placeholder from a degraded plan.
func unplannedChannels(campaign *models.Campaign, remaining []string) []string {
	if len(campaign.Blueprints) == 0 {
		return remaining
	}
	var needed []string
	for _, channel := range remaining {
		bp := campaign.Blueprints[channel]
		if bp == nil || bp.ManualAction {
			needed = append(needed, channel)
		}
	}
	return needed
}

// cleanupOrphan removes the checkpoint of a campaign that no longer exists so
// the recovery sweep stops resuming it. Returning nil acks the message.
func (o *Orchestrator) cleanupOrphan(ctx context.Context, logger *slog.Logger, campaignID string) error {
	logger.Warn("Campaign no longer exists, removing orphan checkpoint")
	if err := o.Ledger.Cleanup(ctx, campaignID); err != nil {
		return fmt.Errorf("failed to clean up orphan checkpoint: %w", err)
	}
	return nil
}

// processChannel takes one channel from blueprint to a terminal state.
func (o *Orchestrator) processChannel(ctx context.Context, logger *slog.Logger, campaign *models.Campaign, channel string, bp *models.ChannelBlueprint) *models.ChannelResult {
	logger = logger.With("channel", channel)
	result := &models.ChannelResult{Channel: channel, Status: models.ChannelStatusGenerating}
	o.writeChannelResult(ctx, logger, campaign, channel, result, nil)

	if bp == nil {
		return failed(channel, "no blueprint for channel")
	}
	if bp.ManualAction {
		logger.Info("Channel requires manual action, skipping automation")
		return failed(channel, "plan unusable, manual action required")
	}

	asset := o.Fabricator.Fabricate(ctx, campaign.UserID, campaign.ID, bp, campaign.Brand.StyleString())
	if asset.FailureReason != "" {
		r := failed(channel, asset.FailureReason)
		r.Asset = asset
		return r
	}

	adjusted, report := governance.Verify(bp, campaign.Brand)
	rubric := governance.EvaluateCopy(adjusted, 0)
	if report.ChangesMade {
		logger.Info("Governance adjusted copy", "adjustments", len(report.Flags))
	}

	result = &models.ChannelResult{
		Channel:    channel,
		Status:     models.ChannelStatusGoverned,
		Asset:      asset,
		Governance: report.Summary(rubric.RequiresReview),
	}
	o.writeChannelResult(ctx, logger, campaign, channel, result, adjusted)

	confirmationID, err := o.publish(ctx, logger, campaign, channel, adjusted, asset)
	if err != nil {
		r := failed(channel, fmt.Sprintf("publish failed: %v", err))
		r.Asset = asset
		r.Governance = result.Governance
		return r
	}

	result.Status = models.ChannelStatusPublished
	result.PublishConfirmationID = confirmationID
	result.CompletedAt = time.Now().UTC()
	return result
}

// publish pushes the channel content to its connected platform. Channels with
// no connector or no linked account still succeed: the content is ready for
// the user to post manually.
func (o *Orchestrator) publish(ctx context.Context, logger *slog.Logger, campaign *models.Campaign, channel string, bp *models.ChannelBlueprint, asset *models.GeneratedAsset) (string, error) {
	platform := publisher.PlatformFor(channel)
	if platform == "" {
		logger.Info("No publishing connector for channel, leaving for manual posting")
		return "", nil
	}

	id, err := o.Connector.Publish(ctx, &models.PublishJob{
		UserID:     campaign.UserID,
		CampaignID: campaign.ID,
		Channel:    channel,
		Platform:   platform,
		AssetURL:   asset.URL,
		Caption:    primaryCopy(bp),
	})
	if err != nil {
		if errors.Is(err, publisher.ErrNotConnected) || errors.Is(err, publisher.ErrUnsupportedChannel) {
			logger.Info("Platform not linked, leaving for manual posting", "platform", platform)
			return "", nil
		}
		return "", err
	}
	return id, nil
}

// recordChannel persists the terminal result and marks the checkpoint. The
// checkpoint write comes after the result write so a crash in between
// replays the channel rather than losing its outcome.
func (o *Orchestrator) recordChannel(ctx context.Context, logger *slog.Logger, campaign *models.Campaign, channel string, result *models.ChannelResult) {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now().UTC()
	}
	o.writeChannelResult(ctx, logger, campaign, channel, result, nil)

	if err := o.Ledger.MarkChannelComplete(ctx, campaign.ID, channel); err != nil {
		logger.Error("Failed to checkpoint channel", "channel", channel, "error", err)
	}
}

// writeChannelResult merges one channel's result (and optionally its governed
// blueprint) into the campaign document.
func (o *Orchestrator) writeChannelResult(ctx context.Context, logger *slog.Logger, campaign *models.Campaign, channel string, result *models.ChannelResult, adjusted *models.ChannelBlueprint) {
	updates := map[string]interface{}{
		"channel_results." + channel: result,
	}
	if adjusted != nil {
		updates["blueprints."+channel] = adjusted
	}
	if err := o.updateCampaign(ctx, campaign, updates); err != nil {
		logger.Error("Failed to write channel result", "channel", channel, "error", err)
	}
}

// finalize moves the campaign to its terminal state once every channel has a
// recorded outcome, then cleans up the checkpoint. Partial and even total
// channel failure still completes the campaign; the per-channel results carry
// the failures.
func (o *Orchestrator) finalize(ctx context.Context, logger *slog.Logger, campaign *models.Campaign, requested []string) error {
	complete, err := o.Ledger.IsComplete(ctx, campaign.ID)
	if err != nil {
		return fmt.Errorf("failed to check completion: %w", err)
	}
	if !complete {
		// A parallel task failed to checkpoint; let redelivery finish the rest.
		return fmt.Errorf("campaign %s has unfinished channels", campaign.ID)
	}

	fresh, err := o.DB.GetCampaign(ctx, campaign.UserID, campaign.ID)
	if err != nil {
		return fmt.Errorf("failed to reload campaign: %w", err)
	}
	if fresh != nil {
		campaign = fresh
	}

	published, failedCount := 0, 0
	var publishedNames []string
	for _, channel := range requested {
		r := campaign.ChannelResults[channel]
		if r == nil {
			continue
		}
		switch r.Status {
		case models.ChannelStatusPublished:
			published++
			publishedNames = append(publishedNames, titleCaser.String(channel))
		case models.ChannelStatusFailed:
			failedCount++
		}
	}

	message := fmt.Sprintf("%d of %d channels published", published, len(requested))
	if err := o.updateCampaign(ctx, campaign, map[string]interface{}{
		"status":         models.CampaignStatusCompleted,
		"status_message": message,
	}); err != nil {
		return fmt.Errorf("failed to complete campaign: %w", err)
	}

	if err := o.Ledger.Cleanup(ctx, campaign.ID); err != nil {
		logger.Error("Failed to clean up checkpoint", "error", err)
	}

	o.announce(ctx, logger, campaign, published, failedCount, publishedNames)

	logger.Info("Campaign completed", "published", published, "failed", failedCount)
	return nil
}

// announce emits the completion event and pushes a notification. Both are
// best-effort; the campaign is already complete.
func (o *Orchestrator) announce(ctx context.Context, logger *slog.Logger, campaign *models.Campaign, published, failedCount int, publishedNames []string) {
	if o.Pub != nil {
		e, err := infrapubsub.NewCloudEvent("orchestrator", infrapubsub.EventTypeCampaignCompleted, map[string]interface{}{
			"campaign_id": campaign.ID,
			"user_id":     campaign.UserID,
			"published":   published,
			"failed":      failedCount,
		})
		if err == nil {
			if _, err = o.Pub.PublishCloudEvent(ctx, shared.TopicCampaignEvents, e); err != nil {
				logger.Warn("Failed to publish completion event", "error", err)
			}
		}
	}

	if o.Notifications == nil {
		return
	}
	user, err := o.DB.GetUser(ctx, campaign.UserID)
	if err != nil || len(user.FCMTokens) == 0 {
		return
	}
	body := "Your campaign is ready to review."
	if len(publishedNames) > 0 {
		body = fmt.Sprintf("Published to %s.", joinNames(publishedNames))
	}
	err = o.Notifications.SendPushNotification(ctx, campaign.UserID, "Campaign ready", body, user.FCMTokens, map[string]string{
		"campaign_id": campaign.ID,
	})
	if err != nil {
		logger.Warn("Failed to send push notification", "error", err)
	}
}

func (o *Orchestrator) updateCampaign(ctx context.Context, campaign *models.Campaign, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	return o.DB.UpdateCampaign(ctx, campaign.UserID, campaign.ID, updates)
}

func failed(channel, reason string) *models.ChannelResult {
	return &models.ChannelResult{
		Channel:       channel,
		Status:        models.ChannelStatusFailed,
		FailureReason: reason,
		CompletedAt:   time.Now().UTC(),
	}
}

func primaryCopy(bp *models.ChannelBlueprint) string {
	if bp.Caption != "" {
		return bp.Caption
	}
	if bp.Body != "" {
		return bp.Body
	}
	return bp.Script
}

func joinNames(names []string) string {
	switch len(names) {
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		out := ""
		for i, n := range names[:len(names)-1] {
			if i > 0 {
				out += ", "
			}
			out += n
		}
		return out + " and " + names[len(names)-1]
	}
}
