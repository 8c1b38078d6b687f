// Package ledger tracks durable per-campaign generation progress so a killed
// worker can resume without repeating finished channels. The checkpoint
// document is the source of truth for what remains; the campaign document is
// the user-facing view.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/launchloom/server/pkg"
	"github.com/launchloom/server/pkg/models"
)

// StaleClaimAfter is how long a worker's claim on a checkpoint stays valid.
// A claim older than this is treated as abandoned and can be taken over.
const StaleClaimAfter = 15 * time.Minute

// Ledger manages generation checkpoints.
type Ledger struct {
	DB     shared.Database
	Logger *slog.Logger
}

func New(db shared.Database, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{DB: db, Logger: logger.With("component", "ledger")}
}

// Start returns the channels still to process for a campaign. An existing
// checkpoint is always resumed, whether the run was flagged as a resume or is
// a redelivered message; finished channels are skipped either way. Without a
// checkpoint a fresh one covering every requested channel is written.
func (l *Ledger) Start(ctx context.Context, userID, campaignID string, channels []string, resume bool) ([]string, error) {
	existing, err := l.DB.GetCheckpoint(ctx, campaignID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if existing != nil {
		missing := existing.MissingChannels()
		l.Logger.Info("Resuming from checkpoint",
			"campaign_id", campaignID,
			"resume_flag", resume,
			"completed", len(existing.CompletedChannels),
			"remaining", len(missing))
		return missing, nil
	}
	if resume {
		l.Logger.Info("Resume requested but no checkpoint found, starting fresh",
			"campaign_id", campaignID)
	}

	checkpoint := &models.Checkpoint{
		CampaignID: campaignID,
		UserID:     userID,
		Channels:   channels,
		CreatedAt:  time.Now().UTC(),
	}
	if err := l.DB.SetCheckpoint(ctx, checkpoint); err != nil {
		return nil, err
	}
	return channels, nil
}

// Claim marks this worker as the checkpoint's owner. Returns
// shared.ErrCheckpointClaimed when another worker holds a fresh claim.
func (l *Ledger) Claim(ctx context.Context, campaignID, owner string) error {
	return l.DB.ClaimCheckpoint(ctx, campaignID, owner, StaleClaimAfter)
}

// MarkChannelComplete records a channel as done. The underlying write is an
// array-union merge, so repeated calls are harmless.
func (l *Ledger) MarkChannelComplete(ctx context.Context, campaignID, channel string) error {
	return l.DB.AddCompletedChannel(ctx, campaignID, channel)
}

// IsComplete reports whether every requested channel has been recorded done.
func (l *Ledger) IsComplete(ctx context.Context, campaignID string) (bool, error) {
	checkpoint, err := l.DB.GetCheckpoint(ctx, campaignID)
	if err != nil {
		if isNotFound(err) {
			// No checkpoint means cleanup already ran.
			return true, nil
		}
		return false, err
	}
	if checkpoint == nil {
		return true, nil
	}
	return len(checkpoint.MissingChannels()) == 0, nil
}

// Cleanup deletes the checkpoint. Idempotent: deleting an already-removed
// checkpoint is not an error.
func (l *Ledger) Cleanup(ctx context.Context, campaignID string) error {
	err := l.DB.DeleteCheckpoint(ctx, campaignID)
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// Stale returns checkpoints whose claim has lapsed, for the recovery sweep.
// Checkpoints with a fresh owner are skipped so two workers never process
// the same campaign at once.
func (l *Ledger) Stale(ctx context.Context) ([]*models.Checkpoint, error) {
	open, err := l.DB.ListOpenCheckpoints(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-StaleClaimAfter)
	var stale []*models.Checkpoint
	for _, cp := range open {
		if cp.Owner != "" && cp.ClaimedAt.After(cutoff) {
			continue
		}
		stale = append(stale, cp)
	}
	return stale, nil
}

// IsClaimConflict reports whether err means another worker owns the
// checkpoint.
func IsClaimConflict(err error) bool {
	return errors.Is(err, shared.ErrCheckpointClaimed)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
