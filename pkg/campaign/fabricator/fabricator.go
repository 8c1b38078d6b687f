// Package fabricator renders channel blueprints into stored assets. Video
// blueprints degrade to a still image when the video model fails; when every
// rung of the ladder fails the channel gets a failed asset record instead of
// an error, so one channel never takes down the campaign.
package fabricator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	shared "github.com/launchloom/server/pkg"
	"github.com/launchloom/server/pkg/models"
)

// ErrExhaustedFallbacks is the failure reason recorded when no rung of the
// generation ladder produced an asset.
const ErrExhaustedFallbacks = "asset generation exhausted fallbacks"

// Fabricator turns blueprints into signed asset URLs.
type Fabricator struct {
	Media        shared.MediaGenerator
	Store        shared.BlobStore
	Bucket       string
	SignedURLTTL time.Duration
	Logger       *slog.Logger
}

func New(media shared.MediaGenerator, store shared.BlobStore, bucket string, ttl time.Duration, logger *slog.Logger) *Fabricator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fabricator{
		Media:        media,
		Store:        store,
		Bucket:       bucket,
		SignedURLTTL: ttl,
		Logger:       logger.With("component", "fabricator"),
	}
}

// Fabricate renders one channel's asset. It never returns an error for
// generation failures; the returned asset carries the failure instead.
func (f *Fabricator) Fabricate(ctx context.Context, userID, campaignID string, bp *models.ChannelBlueprint, style string) *models.GeneratedAsset {
	asset := &models.GeneratedAsset{Channel: bp.Channel}

	if bp.Format == models.FormatText {
		// Text-only channels carry no visual asset.
		asset.Method = models.AssetMethodText
		return asset
	}

	if bp.Format == models.FormatVideo {
		url, err := f.render(ctx, userID, campaignID, bp.Channel, bp.VisualPrompt, style, models.AssetMethodVideo)
		if err == nil {
			asset.Method = models.AssetMethodVideo
			asset.URL = url
			return asset
		}
		f.Logger.Warn("Video generation failed, falling back to image",
			"campaign_id", campaignID, "channel", bp.Channel, "error", err)
		asset.Fallback = true
	}

	url, err := f.render(ctx, userID, campaignID, bp.Channel, bp.VisualPrompt, style, models.AssetMethodImage)
	if err == nil {
		asset.Method = models.AssetMethodImage
		asset.URL = url
		return asset
	}
	f.Logger.Error("Image generation failed",
		"campaign_id", campaignID, "channel", bp.Channel, "error", err)

	asset.Method = models.AssetMethodNone
	asset.URL = ""
	asset.FailureReason = ErrExhaustedFallbacks
	return asset
}

// render runs one rung of the ladder: generate, store, sign.
func (f *Fabricator) render(ctx context.Context, userID, campaignID, channel, prompt, style, method string) (string, error) {
	var (
		data        []byte
		err         error
		ext         string
		contentType string
	)

	switch method {
	case models.AssetMethodVideo:
		data, err = f.Media.GenerateVideo(ctx, prompt, style)
		ext, contentType = "mp4", "video/mp4"
	case models.AssetMethodImage:
		data, err = f.Media.GenerateImage(ctx, prompt, style)
		ext, contentType = "png", "image/png"
	default:
		return "", fmt.Errorf("unknown asset method %q", method)
	}
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", method, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("generate %s: empty output", method)
	}

	object := ObjectPath(userID, campaignID, channel, ext)
	if err := f.Store.Write(ctx, f.Bucket, object, data, contentType); err != nil {
		return "", fmt.Errorf("store %s: %w", method, err)
	}

	url, err := f.Store.SignedURL(f.Bucket, object, f.SignedURLTTL)
	if err != nil {
		return "", fmt.Errorf("sign %s url: %w", method, err)
	}
	return url, nil
}

// ObjectPath is the canonical storage layout for campaign assets.
func ObjectPath(userID, campaignID, channel, ext string) string {
	return fmt.Sprintf("campaigns/%s/%s/%s.%s", userID, campaignID, channel, ext)
}
