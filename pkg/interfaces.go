package shared

import (
	"context"
	"errors"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/launchloom/server/pkg/models"
)

// ErrCheckpointClaimed is returned by ClaimCheckpoint when another worker
// holds a fresh claim on the checkpoint.
var ErrCheckpointClaimed = errors.New("checkpoint claimed by another worker")

// --- Persistence Interfaces ---

type Database interface {
	SetExecution(ctx context.Context, record *models.ExecutionRecord) error
	UpdateExecution(ctx context.Context, userID, id string, data map[string]interface{}) error

	GetUser(ctx context.Context, id string) (*models.UserRecord, error)
	UpdateUser(ctx context.Context, id string, data map[string]interface{}) error
	RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error

	// Generation counters (for plan limits)
	IncrementGenerationCount(ctx context.Context, userID string) error
	IncrementBlockedGenerationCount(ctx context.Context, userID string) error
	ResetGenerationCount(ctx context.Context, userID string) error

	// Brand profile: users/{uid}/brand_profile/current
	GetBrandProfile(ctx context.Context, userID string) (*models.BrandProfile, error)
	SetBrandProfile(ctx context.Context, userID string, profile *models.BrandProfile) error

	// Campaigns: users/{uid}/campaigns/{id}
	GetCampaign(ctx context.Context, userID, id string) (*models.Campaign, error)
	SetCampaign(ctx context.Context, userID string, campaign *models.Campaign) error
	UpdateCampaign(ctx context.Context, userID, id string, data map[string]interface{}) error
	DeleteCampaign(ctx context.Context, userID, id string) error
	ListCampaigns(ctx context.Context, userID string) ([]*models.Campaign, error)

	// Generation checkpoints: generation_checkpoints/{campaignId}
	GetCheckpoint(ctx context.Context, campaignID string) (*models.Checkpoint, error)
	SetCheckpoint(ctx context.Context, checkpoint *models.Checkpoint) error
	AddCompletedChannel(ctx context.Context, campaignID, channel string) error
	ClaimCheckpoint(ctx context.Context, campaignID, owner string, staleAfter time.Duration) error
	DeleteCheckpoint(ctx context.Context, campaignID string) error
	ListOpenCheckpoints(ctx context.Context) ([]*models.Checkpoint, error)
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte, contentType string) error
	Read(ctx context.Context, bucket, object string) ([]byte, error)
	SignedURL(bucket, object string, ttl time.Duration) (string, error)
}

// --- Generative Model Interfaces ---

// TextGenerator produces free text from a prompt. Output is expected to
// contain JSON, possibly wrapped in markdown fences.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// MediaGenerator renders campaign assets. Calls can take tens of seconds and
// raise on quota or model errors.
type MediaGenerator interface {
	GenerateImage(ctx context.Context, prompt, style string) ([]byte, error)
	GenerateVideo(ctx context.Context, prompt, style string) ([]byte, error)
}

// --- Notification Interfaces ---

type NotificationService interface {
	SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error
}
