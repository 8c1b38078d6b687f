package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/launchloom/server/pkg/models"
	"github.com/launchloom/server/pkg/testing/mocks"
)

type fakeVerifier struct{ uid string }

func (f *fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	if idToken != "good-token" {
		return nil, fmt.Errorf("bad token")
	}
	return &fbauth.Token{UID: f.uid}, nil
}

const webhookSecret = "whsec_test"

func newTestServer(db *mocks.MockDatabase, pub *mocks.MockPublisher) *Server {
	return NewServer(db, pub, &fakeVerifier{uid: "user-1"}, webhookSecret, nil)
}

func authedRequest(method, path string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer good-token")
	return req
}

func TestCreateCampaignEnqueuesGeneration(t *testing.T) {
	var saved *models.Campaign
	db := &mocks.MockDatabase{
		SetCampaignFunc: func(ctx context.Context, userID string, campaign *models.Campaign) error {
			saved = campaign
			return nil
		},
	}
	pub := &mocks.MockPublisher{}
	srv := newTestServer(db, pub)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, authedRequest(http.MethodPost, "/campaigns",
		`{"goal": "Autumn launch", "channels": ["instagram", "linkedin"]}`))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if saved == nil || saved.UserID != "user-1" || saved.Status != models.CampaignStatusDraft {
		t.Errorf("campaign not persisted correctly: %+v", saved)
	}
	if len(pub.Published) != 1 {
		t.Fatalf("expected one generation event, got %d", len(pub.Published))
	}
	if pub.Topics[0] != "topic-campaign-generation" {
		t.Errorf("event on wrong topic: %s", pub.Topics[0])
	}
	var job models.GenerationJob
	if err := json.Unmarshal(pub.Published[0].Data(), &job); err != nil {
		t.Fatalf("event payload not a job: %v", err)
	}
	if job.CampaignID != saved.ID || job.UserID != "user-1" {
		t.Errorf("job payload wrong: %+v", job)
	}
}

func TestCreateCampaignBlockedByQuota(t *testing.T) {
	blockedCounted := false
	db := &mocks.MockDatabase{
		GetUserFunc: func(ctx context.Context, id string) (*models.UserRecord, error) {
			now := time.Now()
			return &models.UserRecord{
				GenerationCountThisMonth: 10,
				GenerationCountResetAt:   &now,
			}, nil
		},
		IncrementBlockedGenerationFunc: func(ctx context.Context, userID string) error {
			blockedCounted = true
			return nil
		},
		SetCampaignFunc: func(ctx context.Context, userID string, campaign *models.Campaign) error {
			t.Error("blocked request must not create a campaign")
			return nil
		},
	}
	pub := &mocks.MockPublisher{}
	srv := newTestServer(db, pub)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, authedRequest(http.MethodPost, "/campaigns",
		`{"goal": "Over quota", "channels": ["instagram"]}`))

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}
	if !blockedCounted {
		t.Error("blocked generation should be counted")
	}
	if len(pub.Published) != 0 {
		t.Error("blocked request must not enqueue a job")
	}
}

func TestCreateCampaignRequiresAuth(t *testing.T) {
	srv := newTestServer(&mocks.MockDatabase{}, &mocks.MockPublisher{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(`{}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRerunChannelOnlyForFailedChannels(t *testing.T) {
	campaign := &models.Campaign{
		ID:       "camp-1",
		UserID:   "user-1",
		Channels: []string{"instagram", "tiktok"},
		ChannelResults: map[string]*models.ChannelResult{
			"instagram": {Channel: "instagram", Status: models.ChannelStatusPublished},
			"tiktok":    {Channel: "tiktok", Status: models.ChannelStatusFailed, FailureReason: "asset generation exhausted fallbacks"},
		},
	}
	db := &mocks.MockDatabase{
		GetCampaignFunc: func(ctx context.Context, userID, id string) (*models.Campaign, error) {
			return campaign, nil
		},
	}
	pub := &mocks.MockPublisher{}
	srv := newTestServer(db, pub)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, authedRequest(http.MethodPost, "/campaigns/camp-1/channels/tiktok/rerun", ""))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 for failed channel, got %d: %s", rec.Code, rec.Body.String())
	}
	var job models.GenerationJob
	if err := json.Unmarshal(pub.Published[0].Data(), &job); err != nil {
		t.Fatalf("event payload not a job: %v", err)
	}
	if len(job.OnlyChannels) != 1 || job.OnlyChannels[0] != "tiktok" {
		t.Errorf("re-run should target only tiktok, got %v", job.OnlyChannels)
	}

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, authedRequest(http.MethodPost, "/campaigns/camp-1/channels/instagram/rerun", ""))
	if rec.Code != http.StatusConflict {
		t.Errorf("published channel re-run should 409, got %d", rec.Code)
	}
}

func TestBrandProfileRoundTrip(t *testing.T) {
	var stored *models.BrandProfile
	db := &mocks.MockDatabase{
		SetBrandProfileFunc: func(ctx context.Context, userID string, profile *models.BrandProfile) error {
			stored = profile
			return nil
		},
		GetBrandProfileFunc: func(ctx context.Context, userID string) (*models.BrandProfile, error) {
			return stored, nil
		},
	}
	srv := newTestServer(db, &mocks.MockPublisher{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, authedRequest(http.MethodPut, "/brand-profile",
		`{"name": "Loomworks", "tone": "warm", "blocked_terms": ["cheap"]}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stored == nil || stored.Name != "Loomworks" || len(stored.BlockedTerms) != 1 {
		t.Errorf("profile not stored: %+v", stored)
	}

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, authedRequest(http.MethodGet, "/brand-profile", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got models.BrandProfile
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil || got.Name != "Loomworks" {
		t.Errorf("round trip failed: %+v err=%v", got, err)
	}
}

func TestPutBrandProfileRequiresName(t *testing.T) {
	srv := newTestServer(&mocks.MockDatabase{}, &mocks.MockPublisher{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, authedRequest(http.MethodPut, "/brand-profile", `{"tone": "warm"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func signedStripeRequest(t *testing.T, payload string) *http.Request {
	t.Helper()
	now := time.Now()
	sig := webhook.ComputeSignature(now, []byte(payload), webhookSecret)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature",
		fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig)))
	return req
}

func TestStripeWebhookUpgradesPlan(t *testing.T) {
	var updates map[string]interface{}
	db := &mocks.MockDatabase{
		UpdateUserFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			if id != "user-1" {
				t.Errorf("wrong user updated: %s", id)
			}
			updates = data
			return nil
		},
	}
	srv := newTestServer(db, &mocks.MockPublisher{})

	payload := `{
		"id": "evt_1",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_1",
			"status": "active",
			"customer": {"id": "cus_1"},
			"metadata": {"user_id": "user-1"}
		}}
	}`

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, signedStripeRequest(t, payload))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if updates["plan"] != models.PlanGrowth {
		t.Errorf("active subscription should set growth plan, got %v", updates["plan"])
	}
	if updates["stripe_customer_id"] != "cus_1" {
		t.Errorf("customer id not stored: %v", updates)
	}
}

func TestStripeWebhookDowngradeOnCancel(t *testing.T) {
	var updates map[string]interface{}
	db := &mocks.MockDatabase{
		UpdateUserFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			updates = data
			return nil
		},
	}
	srv := newTestServer(db, &mocks.MockPublisher{})

	payload := `{
		"id": "evt_2",
		"type": "customer.subscription.deleted",
		"data": {"object": {
			"id": "sub_1",
			"status": "canceled",
			"metadata": {"user_id": "user-1"}
		}}
	}`

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, signedStripeRequest(t, payload))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if updates["plan"] != models.PlanStarter {
		t.Errorf("cancelled subscription should revert to starter, got %v", updates["plan"])
	}
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	srv := newTestServer(&mocks.MockDatabase{}, &mocks.MockPublisher{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
