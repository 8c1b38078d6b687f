package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/launchloom/server/pkg/infrastructure/oauth"
	"github.com/launchloom/server/pkg/models"
	"github.com/launchloom/server/pkg/testing/mocks"
)

type staticTokenSource struct{ token string }

func (s *staticTokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: s.token, Expiry: time.Now().Add(time.Hour)}, nil
}

func (s *staticTokenSource) ForceRefresh(ctx context.Context) (*oauth2.Token, error) {
	return s.Token(ctx)
}

func connectedUser(platform string) *models.UserRecord {
	return &models.UserRecord{
		Connections: map[string]*models.PlatformConnection{
			platform: {Enabled: true, AccessToken: "tok"},
		},
	}
}

func newTestConnector(db *mocks.MockDatabase, endpoint string) *Connector {
	c := New(db, nil)
	c.Endpoints = map[string]string{
		"meta":     endpoint,
		"linkedin": endpoint,
	}
	c.NewClient = func(source oauth.TokenSource) *http.Client {
		return oauth.NewHTTPClient(&staticTokenSource{token: "tok"})
	}
	return c
}

func TestPublishSuccess(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req publishRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotBody = req.Caption
		_ = json.NewEncoder(w).Encode(publishResponse{ID: "post-123"})
	}))
	defer srv.Close()

	db := &mocks.MockDatabase{
		GetUserFunc: func(ctx context.Context, id string) (*models.UserRecord, error) {
			return connectedUser("meta"), nil
		},
	}
	c := newTestConnector(db, srv.URL)

	id, err := c.Publish(context.Background(), &models.PublishJob{
		UserID:     "user-1",
		CampaignID: "camp-1",
		Channel:    "instagram",
		AssetURL:   "https://assets.example.com/a.png",
		Caption:    "Layer up for fall.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "post-123" {
		t.Errorf("expected confirmation id post-123, got %q", id)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("request not authenticated: %q", gotAuth)
	}
	if gotBody != "Layer up for fall." {
		t.Errorf("caption not forwarded: %q", gotBody)
	}
}

func TestPublishNotConnected(t *testing.T) {
	db := &mocks.MockDatabase{
		GetUserFunc: func(ctx context.Context, id string) (*models.UserRecord, error) {
			return &models.UserRecord{}, nil
		},
	}
	c := newTestConnector(db, "http://unused")

	_, err := c.Publish(context.Background(), &models.PublishJob{UserID: "user-1", Channel: "linkedin"})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestPublishUnsupportedChannel(t *testing.T) {
	c := newTestConnector(&mocks.MockDatabase{}, "http://unused")

	_, err := c.Publish(context.Background(), &models.PublishJob{UserID: "user-1", Channel: "email"})
	if !errors.Is(err, ErrUnsupportedChannel) {
		t.Errorf("expected ErrUnsupportedChannel, got %v", err)
	}
}

func TestPublishPlatformError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	db := &mocks.MockDatabase{
		GetUserFunc: func(ctx context.Context, id string) (*models.UserRecord, error) {
			return connectedUser("linkedin"), nil
		},
	}
	c := newTestConnector(db, srv.URL)

	_, err := c.Publish(context.Background(), &models.PublishJob{UserID: "user-1", Channel: "linkedin"})
	if err == nil {
		t.Fatal("expected error on 429 response")
	}
}

func TestPlatformFor(t *testing.T) {
	if PlatformFor("instagram") != "meta" || PlatformFor("facebook") != "meta" {
		t.Error("instagram/facebook should map to meta")
	}
	if PlatformFor("email") != "" {
		t.Error("email has no connector platform")
	}
}
