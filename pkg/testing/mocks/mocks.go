// Package mocks provides function-field test doubles for the shared
// interfaces. Tests set only the functions they care about; unset functions
// return zero values.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"

	shared "github.com/launchloom/server/pkg"
	"github.com/launchloom/server/pkg/models"
)

// MockDatabase implements shared.Database with overridable function fields.
type MockDatabase struct {
	SetExecutionFunc               func(ctx context.Context, record *models.ExecutionRecord) error
	UpdateExecutionFunc            func(ctx context.Context, userID, id string, data map[string]interface{}) error
	GetUserFunc                    func(ctx context.Context, id string) (*models.UserRecord, error)
	UpdateUserFunc                 func(ctx context.Context, id string, data map[string]interface{}) error
	RemoveFCMTokensFunc            func(ctx context.Context, userID string, tokens []string) error
	IncrementGenerationCountFunc   func(ctx context.Context, userID string) error
	IncrementBlockedGenerationFunc func(ctx context.Context, userID string) error
	ResetGenerationCountFunc       func(ctx context.Context, userID string) error
	GetBrandProfileFunc            func(ctx context.Context, userID string) (*models.BrandProfile, error)
	SetBrandProfileFunc            func(ctx context.Context, userID string, profile *models.BrandProfile) error
	GetCampaignFunc                func(ctx context.Context, userID, id string) (*models.Campaign, error)
	SetCampaignFunc                func(ctx context.Context, userID string, campaign *models.Campaign) error
	UpdateCampaignFunc             func(ctx context.Context, userID, id string, data map[string]interface{}) error
	DeleteCampaignFunc             func(ctx context.Context, userID, id string) error
	ListCampaignsFunc              func(ctx context.Context, userID string) ([]*models.Campaign, error)
	GetCheckpointFunc              func(ctx context.Context, campaignID string) (*models.Checkpoint, error)
	SetCheckpointFunc              func(ctx context.Context, checkpoint *models.Checkpoint) error
	AddCompletedChannelFunc        func(ctx context.Context, campaignID, channel string) error
	ClaimCheckpointFunc            func(ctx context.Context, campaignID, owner string, staleAfter time.Duration) error
	DeleteCheckpointFunc           func(ctx context.Context, campaignID string) error
	ListOpenCheckpointsFunc        func(ctx context.Context) ([]*models.Checkpoint, error)
}

func (m *MockDatabase) SetExecution(ctx context.Context, record *models.ExecutionRecord) error {
	if m.SetExecutionFunc != nil {
		return m.SetExecutionFunc(ctx, record)
	}
	return nil
}

func (m *MockDatabase) UpdateExecution(ctx context.Context, userID, id string, data map[string]interface{}) error {
	if m.UpdateExecutionFunc != nil {
		return m.UpdateExecutionFunc(ctx, userID, id, data)
	}
	return nil
}

func (m *MockDatabase) GetUser(ctx context.Context, id string) (*models.UserRecord, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return &models.UserRecord{}, nil
}

func (m *MockDatabase) UpdateUser(ctx context.Context, id string, data map[string]interface{}) error {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, id, data)
	}
	return nil
}

func (m *MockDatabase) RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error {
	if m.RemoveFCMTokensFunc != nil {
		return m.RemoveFCMTokensFunc(ctx, userID, tokens)
	}
	return nil
}

func (m *MockDatabase) IncrementGenerationCount(ctx context.Context, userID string) error {
	if m.IncrementGenerationCountFunc != nil {
		return m.IncrementGenerationCountFunc(ctx, userID)
	}
	return nil
}

func (m *MockDatabase) IncrementBlockedGenerationCount(ctx context.Context, userID string) error {
	if m.IncrementBlockedGenerationFunc != nil {
		return m.IncrementBlockedGenerationFunc(ctx, userID)
	}
	return nil
}

func (m *MockDatabase) ResetGenerationCount(ctx context.Context, userID string) error {
	if m.ResetGenerationCountFunc != nil {
		return m.ResetGenerationCountFunc(ctx, userID)
	}
	return nil
}

func (m *MockDatabase) GetBrandProfile(ctx context.Context, userID string) (*models.BrandProfile, error) {
	if m.GetBrandProfileFunc != nil {
		return m.GetBrandProfileFunc(ctx, userID)
	}
	return &models.BrandProfile{}, nil
}

func (m *MockDatabase) SetBrandProfile(ctx context.Context, userID string, profile *models.BrandProfile) error {
	if m.SetBrandProfileFunc != nil {
		return m.SetBrandProfileFunc(ctx, userID, profile)
	}
	return nil
}

func (m *MockDatabase) GetCampaign(ctx context.Context, userID, id string) (*models.Campaign, error) {
	if m.GetCampaignFunc != nil {
		return m.GetCampaignFunc(ctx, userID, id)
	}
	return nil, nil
}

func (m *MockDatabase) SetCampaign(ctx context.Context, userID string, campaign *models.Campaign) error {
	if m.SetCampaignFunc != nil {
		return m.SetCampaignFunc(ctx, userID, campaign)
	}
	return nil
}

func (m *MockDatabase) UpdateCampaign(ctx context.Context, userID, id string, data map[string]interface{}) error {
	if m.UpdateCampaignFunc != nil {
		return m.UpdateCampaignFunc(ctx, userID, id, data)
	}
	return nil
}

func (m *MockDatabase) DeleteCampaign(ctx context.Context, userID, id string) error {
	if m.DeleteCampaignFunc != nil {
		return m.DeleteCampaignFunc(ctx, userID, id)
	}
	return nil
}

func (m *MockDatabase) ListCampaigns(ctx context.Context, userID string) ([]*models.Campaign, error) {
	if m.ListCampaignsFunc != nil {
		return m.ListCampaignsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockDatabase) GetCheckpoint(ctx context.Context, campaignID string) (*models.Checkpoint, error) {
	if m.GetCheckpointFunc != nil {
		return m.GetCheckpointFunc(ctx, campaignID)
	}
	return nil, nil
}

func (m *MockDatabase) SetCheckpoint(ctx context.Context, checkpoint *models.Checkpoint) error {
	if m.SetCheckpointFunc != nil {
		return m.SetCheckpointFunc(ctx, checkpoint)
	}
	return nil
}

func (m *MockDatabase) AddCompletedChannel(ctx context.Context, campaignID, channel string) error {
	if m.AddCompletedChannelFunc != nil {
		return m.AddCompletedChannelFunc(ctx, campaignID, channel)
	}
	return nil
}

func (m *MockDatabase) ClaimCheckpoint(ctx context.Context, campaignID, owner string, staleAfter time.Duration) error {
	if m.ClaimCheckpointFunc != nil {
		return m.ClaimCheckpointFunc(ctx, campaignID, owner, staleAfter)
	}
	return nil
}

func (m *MockDatabase) DeleteCheckpoint(ctx context.Context, campaignID string) error {
	if m.DeleteCheckpointFunc != nil {
		return m.DeleteCheckpointFunc(ctx, campaignID)
	}
	return nil
}

func (m *MockDatabase) ListOpenCheckpoints(ctx context.Context) ([]*models.Checkpoint, error) {
	if m.ListOpenCheckpointsFunc != nil {
		return m.ListOpenCheckpointsFunc(ctx)
	}
	return nil, nil
}

// MockPublisher implements shared.Publisher and records published events.
type MockPublisher struct {
	PublishCloudEventFunc func(ctx context.Context, topic string, e event.Event) (string, error)
	Published             []event.Event
	Topics                []string
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	m.Published = append(m.Published, e)
	m.Topics = append(m.Topics, topic)
	if m.PublishCloudEventFunc != nil {
		return m.PublishCloudEventFunc(ctx, topic, e)
	}
	return "mock-message-id", nil
}

// MockBlobStore implements shared.BlobStore backed by an in-memory map.
type MockBlobStore struct {
	WriteFunc     func(ctx context.Context, bucket, object string, data []byte, contentType string) error
	ReadFunc      func(ctx context.Context, bucket, object string) ([]byte, error)
	SignedURLFunc func(bucket, object string, ttl time.Duration) (string, error)
	Objects       map[string][]byte
}

func (m *MockBlobStore) Write(ctx context.Context, bucket, object string, data []byte, contentType string) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, bucket, object, data, contentType)
	}
	if m.Objects == nil {
		m.Objects = make(map[string][]byte)
	}
	m.Objects[bucket+"/"+object] = data
	return nil
}

func (m *MockBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, bucket, object)
	}
	return m.Objects[bucket+"/"+object], nil
}

func (m *MockBlobStore) SignedURL(bucket, object string, ttl time.Duration) (string, error) {
	if m.SignedURLFunc != nil {
		return m.SignedURLFunc(bucket, object, ttl)
	}
	return "https://storage.example.com/" + bucket + "/" + object + "?signed=1", nil
}

// MockTextGenerator implements shared.TextGenerator.
type MockTextGenerator struct {
	GenerateTextFunc func(ctx context.Context, prompt string) (string, error)
	Prompts          []string
}

func (m *MockTextGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, prompt)
	}
	return "", nil
}

// MockMediaGenerator implements shared.MediaGenerator. Channel tasks render
// concurrently, so the call counters are mutex-guarded.
type MockMediaGenerator struct {
	GenerateImageFunc func(ctx context.Context, prompt, style string) ([]byte, error)
	GenerateVideoFunc func(ctx context.Context, prompt, style string) ([]byte, error)

	mu         sync.Mutex
	ImageCalls int
	VideoCalls int
}

func (m *MockMediaGenerator) GenerateImage(ctx context.Context, prompt, style string) ([]byte, error) {
	m.mu.Lock()
	m.ImageCalls++
	m.mu.Unlock()
	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, prompt, style)
	}
	return []byte("png-bytes"), nil
}

func (m *MockMediaGenerator) GenerateVideo(ctx context.Context, prompt, style string) ([]byte, error) {
	m.mu.Lock()
	m.VideoCalls++
	m.mu.Unlock()
	if m.GenerateVideoFunc != nil {
		return m.GenerateVideoFunc(ctx, prompt, style)
	}
	return []byte("mp4-bytes"), nil
}

// MockNotificationService implements shared.NotificationService.
type MockNotificationService struct {
	SendPushNotificationFunc func(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error
	Sent                     []string
}

func (m *MockNotificationService) SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error {
	m.Sent = append(m.Sent, title)
	if m.SendPushNotificationFunc != nil {
		return m.SendPushNotificationFunc(ctx, userID, title, body, tokens, data)
	}
	return nil
}

var (
	_ shared.Database            = (*MockDatabase)(nil)
	_ shared.Publisher           = (*MockPublisher)(nil)
	_ shared.BlobStore           = (*MockBlobStore)(nil)
	_ shared.TextGenerator       = (*MockTextGenerator)(nil)
	_ shared.MediaGenerator      = (*MockMediaGenerator)(nil)
	_ shared.NotificationService = (*MockNotificationService)(nil)
)
