package fabricator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/launchloom/server/pkg/models"
	"github.com/launchloom/server/pkg/testing/mocks"
)

func newTestFabricator(media *mocks.MockMediaGenerator, store *mocks.MockBlobStore) *Fabricator {
	return New(media, store, "test-assets", time.Hour, nil)
}

func TestFabricateImageSuccess(t *testing.T) {
	media := &mocks.MockMediaGenerator{}
	store := &mocks.MockBlobStore{}
	f := newTestFabricator(media, store)

	bp := &models.ChannelBlueprint{
		Channel:      "instagram",
		Format:       models.FormatImage,
		VisualPrompt: "A cozy cafe interior",
	}

	asset := f.Fabricate(context.Background(), "user-1", "camp-1", bp, "warm, minimal")

	if asset.Method != models.AssetMethodImage {
		t.Errorf("expected image method, got %s", asset.Method)
	}
	if asset.URL == "" || asset.FailureReason != "" || asset.Fallback {
		t.Errorf("unexpected asset: %+v", asset)
	}
	if media.ImageCalls != 1 || media.VideoCalls != 0 {
		t.Errorf("expected exactly one image call, got image=%d video=%d", media.ImageCalls, media.VideoCalls)
	}
	if _, ok := store.Objects["test-assets/campaigns/user-1/camp-1/instagram.png"]; !ok {
		t.Errorf("asset not stored at canonical path, got %v", keys(store.Objects))
	}
}

func TestFabricateVideoFallsBackToImage(t *testing.T) {
	media := &mocks.MockMediaGenerator{
		GenerateVideoFunc: func(ctx context.Context, prompt, style string) ([]byte, error) {
			return nil, errors.New("model overloaded")
		},
	}
	store := &mocks.MockBlobStore{}
	f := newTestFabricator(media, store)

	bp := &models.ChannelBlueprint{
		Channel:      "tiktok",
		Format:       models.FormatVideo,
		VisualPrompt: "Fast-cut product montage",
	}

	asset := f.Fabricate(context.Background(), "user-1", "camp-1", bp, "")

	if asset.Method != models.AssetMethodImage {
		t.Errorf("expected image fallback, got %s", asset.Method)
	}
	if !asset.Fallback {
		t.Error("fallback flag must be set when video degrades to image")
	}
	if asset.URL == "" || asset.FailureReason != "" {
		t.Errorf("fallback should still succeed: %+v", asset)
	}
	if media.VideoCalls != 1 || media.ImageCalls != 1 {
		t.Errorf("expected one video then one image call, got video=%d image=%d", media.VideoCalls, media.ImageCalls)
	}
	if !strings.HasSuffix(keys(store.Objects)[0], "tiktok.png") {
		t.Errorf("fallback asset should be stored as png, got %v", keys(store.Objects))
	}
}

func TestFabricateExhaustedFallbacks(t *testing.T) {
	media := &mocks.MockMediaGenerator{
		GenerateVideoFunc: func(ctx context.Context, prompt, style string) ([]byte, error) {
			return nil, errors.New("quota exceeded")
		},
		GenerateImageFunc: func(ctx context.Context, prompt, style string) ([]byte, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	store := &mocks.MockBlobStore{}
	f := newTestFabricator(media, store)

	bp := &models.ChannelBlueprint{Channel: "tiktok", Format: models.FormatVideo, VisualPrompt: "x"}

	asset := f.Fabricate(context.Background(), "user-1", "camp-1", bp, "")

	if asset.Method != models.AssetMethodNone {
		t.Errorf("expected method none, got %s", asset.Method)
	}
	if asset.URL != "" {
		t.Errorf("failed asset must have empty URL, got %q", asset.URL)
	}
	if asset.FailureReason != "asset generation exhausted fallbacks" {
		t.Errorf("wrong failure reason: %q", asset.FailureReason)
	}
	if len(store.Objects) != 0 {
		t.Errorf("nothing should be stored on total failure, got %v", keys(store.Objects))
	}
}

func TestFabricateStoreFailureFallsThrough(t *testing.T) {
	media := &mocks.MockMediaGenerator{}
	store := &mocks.MockBlobStore{
		WriteFunc: func(ctx context.Context, bucket, object string, data []byte, contentType string) error {
			return errors.New("bucket unavailable")
		},
	}
	f := newTestFabricator(media, store)

	bp := &models.ChannelBlueprint{Channel: "instagram", Format: models.FormatImage, VisualPrompt: "x"}

	asset := f.Fabricate(context.Background(), "user-1", "camp-1", bp, "")

	if asset.FailureReason != ErrExhaustedFallbacks {
		t.Errorf("store failure must exhaust the ladder, got %+v", asset)
	}
}

func TestFabricateTextChannelHasNoAsset(t *testing.T) {
	media := &mocks.MockMediaGenerator{}
	store := &mocks.MockBlobStore{}
	f := newTestFabricator(media, store)

	bp := &models.ChannelBlueprint{Channel: "email", Format: models.FormatText, Body: "Newsletter body"}

	asset := f.Fabricate(context.Background(), "user-1", "camp-1", bp, "")

	if asset.Method != models.AssetMethodText || asset.URL != "" || asset.FailureReason != "" {
		t.Errorf("text channel should yield an empty text asset, got %+v", asset)
	}
	if media.ImageCalls+media.VideoCalls != 0 {
		t.Error("text channels must not call the media generator")
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
