package database

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	shared "github.com/launchloom/server/pkg"
	"github.com/launchloom/server/pkg/models"
	storage "github.com/launchloom/server/pkg/storage/firestore"
)

// FirestoreAdapter provides database operations using Firestore. It wraps the
// typed storage client.
type FirestoreAdapter struct {
	storage *storage.Client
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{storage: storage.NewClient(client)}
}

// --- Executions ---

func (a *FirestoreAdapter) SetExecution(ctx context.Context, record *models.ExecutionRecord) error {
	if record.UserID == "" {
		return a.storage.OrphanedExecutions().Doc(record.ExecutionID).Set(ctx, record)
	}
	return a.storage.UserExecutions(record.UserID).Doc(record.ExecutionID).Set(ctx, record)
}

func (a *FirestoreAdapter) UpdateExecution(ctx context.Context, userID, id string, data map[string]interface{}) error {
	if userID == "" {
		return a.storage.OrphanedExecutions().Doc(id).Update(ctx, data)
	}
	return a.storage.UserExecutions(userID).Doc(id).Update(ctx, data)
}

// --- Users ---

func (a *FirestoreAdapter) GetUser(ctx context.Context, id string) (*models.UserRecord, error) {
	return a.storage.Users().Doc(id).Get(ctx)
}

func (a *FirestoreAdapter) UpdateUser(ctx context.Context, id string, data map[string]interface{}) error {
	return a.storage.Users().Doc(id).Update(ctx, data)
}

// RemoveFCMTokens drops dead push tokens via array-remove, so concurrent
// sends pruning different tokens never clobber each other.
func (a *FirestoreAdapter) RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error {
	values := make([]interface{}, len(tokens))
	for i, token := range tokens {
		values[i] = token
	}
	return a.storage.Users().Doc(userID).Apply(ctx, []firestore.Update{
		{Path: "fcm_tokens", Value: firestore.ArrayRemove(values...)},
	})
}

func (a *FirestoreAdapter) IncrementGenerationCount(ctx context.Context, userID string) error {
	return a.storage.Users().Doc(userID).Apply(ctx, []firestore.Update{
		{Path: "generation_count_this_month", Value: firestore.Increment(1)},
	})
}

func (a *FirestoreAdapter) IncrementBlockedGenerationCount(ctx context.Context, userID string) error {
	return a.storage.Users().Doc(userID).Apply(ctx, []firestore.Update{
		{Path: "blocked_generation_count", Value: firestore.Increment(1)},
	})
}

func (a *FirestoreAdapter) ResetGenerationCount(ctx context.Context, userID string) error {
	return a.storage.Users().Doc(userID).Update(ctx, map[string]interface{}{
		"generation_count_this_month": 0,
		"generation_count_reset_at":   time.Now(),
	})
}

// --- Brand profile ---

func (a *FirestoreAdapter) GetBrandProfile(ctx context.Context, userID string) (*models.BrandProfile, error) {
	return a.storage.BrandProfile(userID).Get(ctx)
}

func (a *FirestoreAdapter) SetBrandProfile(ctx context.Context, userID string, profile *models.BrandProfile) error {
	return a.storage.BrandProfile(userID).Set(ctx, profile)
}

// --- Campaigns ---

func (a *FirestoreAdapter) GetCampaign(ctx context.Context, userID, id string) (*models.Campaign, error) {
	return a.storage.UserCampaigns(userID).Doc(id).Get(ctx)
}

func (a *FirestoreAdapter) SetCampaign(ctx context.Context, userID string, campaign *models.Campaign) error {
	return a.storage.UserCampaigns(userID).Doc(campaign.ID).Set(ctx, campaign)
}

func (a *FirestoreAdapter) UpdateCampaign(ctx context.Context, userID, id string, data map[string]interface{}) error {
	return a.storage.UserCampaigns(userID).Doc(id).Update(ctx, data)
}

func (a *FirestoreAdapter) DeleteCampaign(ctx context.Context, userID, id string) error {
	return a.storage.UserCampaigns(userID).Doc(id).Delete(ctx)
}

func (a *FirestoreAdapter) ListCampaigns(ctx context.Context, userID string) ([]*models.Campaign, error) {
	return a.storage.UserCampaigns(userID).All(ctx)
}

// --- Checkpoints ---

func (a *FirestoreAdapter) GetCheckpoint(ctx context.Context, campaignID string) (*models.Checkpoint, error) {
	return a.storage.Checkpoints().Doc(campaignID).Get(ctx)
}

func (a *FirestoreAdapter) SetCheckpoint(ctx context.Context, checkpoint *models.Checkpoint) error {
	return a.storage.Checkpoints().Doc(checkpoint.CampaignID).Set(ctx, checkpoint)
}

// AddCompletedChannel records one finished channel via array-union so a
// channel never appears twice even under concurrent or replayed writes.
func (a *FirestoreAdapter) AddCompletedChannel(ctx context.Context, campaignID, channel string) error {
	return a.storage.Checkpoints().Doc(campaignID).Apply(ctx, []firestore.Update{
		{Path: "completed_channels", Value: firestore.ArrayUnion(channel)},
	})
}

// ClaimCheckpoint takes single-owner possession of a checkpoint inside a
// single-document transaction. A claim held by another worker is honored
// until staleAfter has elapsed, after which it is treated as abandoned.
func (a *FirestoreAdapter) ClaimCheckpoint(ctx context.Context, campaignID, owner string, staleAfter time.Duration) error {
	ref := a.storage.Checkpoints().Doc(campaignID).Ref
	return a.storage.Raw().RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var cp models.Checkpoint
		if err := snap.DataTo(&cp); err != nil {
			return err
		}
		if cp.Owner != "" && cp.Owner != owner && time.Since(cp.ClaimedAt) < staleAfter {
			return shared.ErrCheckpointClaimed
		}
		return tx.Set(ref, map[string]interface{}{
			"owner":      owner,
			"claimed_at": time.Now(),
		}, firestore.MergeAll)
	})
}

// DeleteCheckpoint is idempotent: deleting an already-cleaned-up checkpoint
// succeeds.
func (a *FirestoreAdapter) DeleteCheckpoint(ctx context.Context, campaignID string) error {
	return a.storage.Checkpoints().Doc(campaignID).Delete(ctx)
}

func (a *FirestoreAdapter) ListOpenCheckpoints(ctx context.Context) ([]*models.Checkpoint, error) {
	return a.storage.Checkpoints().All(ctx)
}
