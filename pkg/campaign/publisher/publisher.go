// Package publisher pushes governed campaign content to the user's connected
// social platforms. Requests are authenticated with the stored OAuth
// connection; a channel whose platform is not linked fails soft so the rest
// of the campaign can still go out.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	shared "github.com/launchloom/server/pkg"
	httputil "github.com/launchloom/server/pkg/infrastructure/http"
	"github.com/launchloom/server/pkg/infrastructure/oauth"
	"github.com/launchloom/server/pkg/models"
)

// ErrNotConnected means the user has no enabled connection for the platform.
var ErrNotConnected = errors.New("platform not connected")

// ErrUnsupportedChannel means the channel has no automated publishing path
// and must be posted manually.
var ErrUnsupportedChannel = errors.New("channel has no publishing connector")

// channelPlatforms maps campaign channels to connector platforms.
var channelPlatforms = map[string]string{
	"instagram": "meta",
	"facebook":  "meta",
	"linkedin":  "linkedin",
	"tiktok":    "tiktok",
}

// defaultEndpoints are the platform content-publish endpoints.
var defaultEndpoints = map[string]string{
	"meta":     "https://graph.facebook.com/v19.0/me/media",
	"linkedin": "https://api.linkedin.com/rest/posts",
	"tiktok":   "https://open.tiktokapis.com/v2/post/publish/content/init/",
}

// PlatformFor returns the connector platform for a channel, or "" when the
// channel is manual-only.
func PlatformFor(channel string) string {
	return channelPlatforms[channel]
}

// Connector publishes content through platform APIs.
type Connector struct {
	DB        shared.Database
	Logger    *slog.Logger
	Endpoints map[string]string

	// NewClient builds the authenticated HTTP client; replaceable in tests.
	NewClient func(source oauth.TokenSource) *http.Client
}

func New(db shared.Database, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{
		DB:        db,
		Logger:    logger.With("component", "publisher"),
		Endpoints: defaultEndpoints,
		NewClient: oauth.NewHTTPClient,
	}
}

type publishRequest struct {
	Caption  string `json:"caption,omitempty"`
	AssetURL string `json:"asset_url,omitempty"`
}

type publishResponse struct {
	ID string `json:"id"`
}

// Publish posts one channel's content and returns the platform confirmation
// id.
func (c *Connector) Publish(ctx context.Context, job *models.PublishJob) (string, error) {
	platform := job.Platform
	if platform == "" {
		platform = PlatformFor(job.Channel)
	}
	if platform == "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedChannel, job.Channel)
	}

	endpoint, ok := c.Endpoints[platform]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedChannel, platform)
	}

	user, err := c.DB.GetUser(ctx, job.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	conn := user.Connections[platform]
	if conn == nil || !conn.Enabled {
		return "", fmt.Errorf("%w: %s", ErrNotConnected, platform)
	}

	body, err := json.Marshal(publishRequest{Caption: job.Caption, AssetURL: job.AssetURL})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.NewClient(oauth.NewFirestoreTokenSource(c.DB, job.UserID, platform))
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("publish request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return "", fmt.Errorf("publish rejected by %s: %w", platform, err)
	}

	var out publishResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode publish response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("publish response from %s missing confirmation id", platform)
	}

	c.Logger.Info("Published channel content",
		"user_id", job.UserID,
		"campaign_id", job.CampaignID,
		"channel", job.Channel,
		"platform", platform,
		"confirmation_id", out.ID)
	return out.ID, nil
}
