package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
)

type fakeVerifier struct {
	uid string
	err error
}

func (f *fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fbauth.Token{UID: f.uid}, nil
}

func TestMiddlewareInjectsUserID(t *testing.T) {
	var gotUID string
	handler := Middleware(&fakeVerifier{uid: "user-1"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUID = UserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/campaigns", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUID != "user-1" {
		t.Errorf("user id not injected, got %q", gotUID)
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	handler := Middleware(&fakeVerifier{uid: "user-1"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a token")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/campaigns", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	handler := Middleware(&fakeVerifier{err: errors.New("expired")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with a bad token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/campaigns", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestUserIDUnauthenticated(t *testing.T) {
	if uid := UserID(context.Background()); uid != "" {
		t.Errorf("expected empty uid, got %q", uid)
	}
}
