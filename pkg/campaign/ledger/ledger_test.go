package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/launchloom/server/pkg"
	"github.com/launchloom/server/pkg/models"
	"github.com/launchloom/server/pkg/testing/mocks"
)

func TestStartFreshWritesCheckpoint(t *testing.T) {
	var written *models.Checkpoint
	db := &mocks.MockDatabase{
		SetCheckpointFunc: func(ctx context.Context, cp *models.Checkpoint) error {
			written = cp
			return nil
		},
	}
	l := New(db, nil)

	remaining, err := l.Start(context.Background(), "user-1", "camp-1", []string{"instagram", "linkedin"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(remaining) != 2 {
		t.Errorf("fresh start should return all channels, got %v", remaining)
	}
	if written == nil || written.CampaignID != "camp-1" || written.UserID != "user-1" {
		t.Errorf("checkpoint not written correctly: %+v", written)
	}
	if written.CreatedAt.IsZero() {
		t.Error("checkpoint must carry a creation time")
	}
}

func TestStartResumeSkipsCompleted(t *testing.T) {
	db := &mocks.MockDatabase{
		GetCheckpointFunc: func(ctx context.Context, campaignID string) (*models.Checkpoint, error) {
			return &models.Checkpoint{
				CampaignID:        campaignID,
				Channels:          []string{"instagram", "linkedin"},
				CompletedChannels: []string{"instagram"},
			}, nil
		},
		SetCheckpointFunc: func(ctx context.Context, cp *models.Checkpoint) error {
			t.Error("resume must not rewrite the checkpoint")
			return nil
		},
	}
	l := New(db, nil)

	remaining, err := l.Start(context.Background(), "user-1", "camp-1", []string{"instagram", "linkedin"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(remaining) != 1 || remaining[0] != "linkedin" {
		t.Errorf("expected only linkedin remaining, got %v", remaining)
	}
}

func TestStartRedeliveredMessageResumesWithoutFlag(t *testing.T) {
	db := &mocks.MockDatabase{
		GetCheckpointFunc: func(ctx context.Context, campaignID string) (*models.Checkpoint, error) {
			return &models.Checkpoint{
				CampaignID:        campaignID,
				Channels:          []string{"instagram", "linkedin"},
				CompletedChannels: []string{"instagram", "linkedin"},
			}, nil
		},
	}
	l := New(db, nil)

	remaining, err := l.Start(context.Background(), "user-1", "camp-1", []string{"instagram", "linkedin"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("redelivered message must not repeat finished channels, got %v", remaining)
	}
}

func TestStartResumeWithoutCheckpointStartsFresh(t *testing.T) {
	wrote := false
	db := &mocks.MockDatabase{
		GetCheckpointFunc: func(ctx context.Context, campaignID string) (*models.Checkpoint, error) {
			return nil, status.Error(codes.NotFound, "no checkpoint")
		},
		SetCheckpointFunc: func(ctx context.Context, cp *models.Checkpoint) error {
			wrote = true
			return nil
		},
	}
	l := New(db, nil)

	remaining, err := l.Start(context.Background(), "user-1", "camp-1", []string{"instagram"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !wrote {
		t.Error("missing checkpoint on resume should write a fresh one")
	}
	if len(remaining) != 1 {
		t.Errorf("expected full channel list, got %v", remaining)
	}
}

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name       string
		checkpoint *models.Checkpoint
		err        error
		want       bool
	}{
		{
			name: "all done",
			checkpoint: &models.Checkpoint{
				Channels:          []string{"a", "b"},
				CompletedChannels: []string{"b", "a"},
			},
			want: true,
		},
		{
			name: "partial",
			checkpoint: &models.Checkpoint{
				Channels:          []string{"a", "b"},
				CompletedChannels: []string{"a"},
			},
			want: false,
		},
		{
			name: "already cleaned up",
			err:  status.Error(codes.NotFound, "gone"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &mocks.MockDatabase{
				GetCheckpointFunc: func(ctx context.Context, campaignID string) (*models.Checkpoint, error) {
					return tt.checkpoint, tt.err
				},
			}
			got, err := New(db, nil).IsComplete(context.Background(), "camp-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsComplete = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCleanupIdempotent(t *testing.T) {
	db := &mocks.MockDatabase{
		DeleteCheckpointFunc: func(ctx context.Context, campaignID string) error {
			return status.Error(codes.NotFound, "already deleted")
		},
	}
	if err := New(db, nil).Cleanup(context.Background(), "camp-1"); err != nil {
		t.Errorf("cleanup of a missing checkpoint must succeed, got %v", err)
	}
}

func TestCleanupPropagatesRealErrors(t *testing.T) {
	db := &mocks.MockDatabase{
		DeleteCheckpointFunc: func(ctx context.Context, campaignID string) error {
			return status.Error(codes.Unavailable, "firestore down")
		},
	}
	if err := New(db, nil).Cleanup(context.Background(), "camp-1"); err == nil {
		t.Error("transient errors must surface")
	}
}

func TestStaleFiltersFreshClaims(t *testing.T) {
	db := &mocks.MockDatabase{
		ListOpenCheckpointsFunc: func(ctx context.Context) ([]*models.Checkpoint, error) {
			return []*models.Checkpoint{
				{CampaignID: "fresh", Owner: "worker-a", ClaimedAt: time.Now()},
				{CampaignID: "lapsed", Owner: "worker-b", ClaimedAt: time.Now().Add(-time.Hour)},
				{CampaignID: "unclaimed"},
			}, nil
		},
	}

	stale, err := New(db, nil).Stale(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("expected 2 stale checkpoints, got %d", len(stale))
	}
	for _, cp := range stale {
		if cp.CampaignID == "fresh" {
			t.Error("freshly claimed checkpoint must not be swept")
		}
	}
}

func TestIsClaimConflict(t *testing.T) {
	if !IsClaimConflict(shared.ErrCheckpointClaimed) {
		t.Error("sentinel must be recognized")
	}
	if IsClaimConflict(errors.New("other")) {
		t.Error("unrelated errors are not claim conflicts")
	}
}
