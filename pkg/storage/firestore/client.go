package firestore

import (
	"cloud.google.com/go/firestore"

	shared "github.com/launchloom/server/pkg"
	"github.com/launchloom/server/pkg/models"
)

// Client wraps the raw Firestore client with typed collection accessors.
type Client struct {
	fs *firestore.Client
}

func NewClient(client *firestore.Client) *Client {
	return &Client{fs: client}
}

func (c *Client) Close() error {
	return c.fs.Close()
}

// Raw exposes the underlying client for transactions and field transforms.
func (c *Client) Raw() *firestore.Client {
	return c.fs
}

func (c *Client) Users() *Collection[models.UserRecord] {
	return &Collection[models.UserRecord]{
		Ref: c.fs.Collection(shared.CollectionUsers),
	}
}

// UserCampaigns are sub-collections of Users: users/{uid}/campaigns/{id}
func (c *Client) UserCampaigns(userID string) *Collection[models.Campaign] {
	return &Collection[models.Campaign]{
		Ref: c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionCampaigns),
	}
}

// BrandProfile is the singleton document users/{uid}/brand_profile/current
func (c *Client) BrandProfile(userID string) *DocumentRef[models.BrandProfile] {
	col := &Collection[models.BrandProfile]{
		Ref: c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection("brand_profile"),
	}
	return col.Doc(shared.DocBrandProfileCurrent)
}

// Checkpoints is the top-level collection generation_checkpoints/{campaignId}.
// Global (not per-user) so the recovery sweep can enumerate open checkpoints
// without scanning every user.
func (c *Client) Checkpoints() *Collection[models.Checkpoint] {
	return &Collection[models.Checkpoint]{
		Ref: c.fs.Collection(shared.CollectionCheckpoints),
	}
}

// UserExecutions are sub-collections of Users: users/{uid}/executions/{id}
func (c *Client) UserExecutions(userID string) *Collection[models.ExecutionRecord] {
	return &Collection[models.ExecutionRecord]{
		Ref: c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionExecutions),
	}
}

// OrphanedExecutions stores executions without a userId. These are code
// smells and should be investigated.
func (c *Client) OrphanedExecutions() *Collection[models.ExecutionRecord] {
	return &Collection[models.ExecutionRecord]{
		Ref: c.fs.Collection("orphaned_executions"),
	}
}
