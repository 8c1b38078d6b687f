package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	shared "github.com/launchloom/server/pkg"
)

// nonRefreshablePlatforms are publishing platforms whose credentials don't
// expire and don't use refresh tokens (e.g. Metricool API tokens). For these
// we skip the refresh-token requirement and never attempt a refresh.
var nonRefreshablePlatforms = map[string]bool{
	"metricool": true,
}

var platformTokenURLs = map[string]string{
	"linkedin": "https://www.linkedin.com/oauth/v2/accessToken",
	"meta":     "https://graph.facebook.com/v19.0/oauth/access_token",
	"tiktok":   "https://open.tiktokapis.com/v2/oauth/token/",
	"google":   "https://oauth2.googleapis.com/token",
}

// TokenSource returns a valid token for a connected publishing platform.
// It is safe for concurrent use by multiple goroutines.
type TokenSource interface {
	Token(context.Context) (*oauth2.Token, error)
	ForceRefresh(context.Context) (*oauth2.Token, error)
}

// FirestoreTokenSource reads platform credentials from the user document and
// refreshes them when necessary.
type FirestoreTokenSource struct {
	db       shared.Database
	userID   string
	platform string
	mu       sync.Mutex
}

func NewFirestoreTokenSource(db shared.Database, userID, platform string) *FirestoreTokenSource {
	return &FirestoreTokenSource{
		db:       db,
		userID:   userID,
		platform: platform,
	}
}

// connection fetches the user's connection for this platform.
func (s *FirestoreTokenSource) connection(ctx context.Context) (*sharedConnection, error) {
	user, err := s.db.GetUser(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	conn, ok := user.Connections[s.platform]
	if !ok || conn == nil || !conn.Enabled {
		return nil, fmt.Errorf("%s not linked/enabled", s.platform)
	}
	var expiry time.Time
	if conn.ExpiresAt != nil {
		expiry = *conn.ExpiresAt
	}
	return &sharedConnection{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		Expiry:       expiry,
	}, nil
}

type sharedConnection struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Token returns a token, refreshing it proactively if it expires within the
// next minute.
func (s *FirestoreTokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.connection(ctx)
	if err != nil {
		return nil, err
	}
	if conn.AccessToken == "" {
		return nil, fmt.Errorf("missing access token for %s", s.platform)
	}

	if nonRefreshablePlatforms[s.platform] {
		return &oauth2.Token{AccessToken: conn.AccessToken, Expiry: conn.Expiry}, nil
	}

	if conn.RefreshToken == "" {
		return nil, fmt.Errorf("missing refresh token for %s", s.platform)
	}

	if !conn.Expiry.IsZero() && time.Now().Add(1*time.Minute).After(conn.Expiry) {
		return s.refreshToken(ctx, conn.RefreshToken)
	}

	return &oauth2.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		Expiry:       conn.Expiry,
	}, nil
}

// ForceRefresh forcibly refreshes the token regardless of expiry.
func (s *FirestoreTokenSource) ForceRefresh(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if nonRefreshablePlatforms[s.platform] {
		return nil, fmt.Errorf("%s credentials cannot be refreshed; user must re-connect", s.platform)
	}

	conn, err := s.connection(ctx)
	if err != nil {
		return nil, err
	}
	if conn.RefreshToken == "" {
		return nil, fmt.Errorf("missing refresh token for %s", s.platform)
	}
	return s.refreshToken(ctx, conn.RefreshToken)
}

// refreshToken performs the HTTP exchange and persists the new credentials.
func (s *FirestoreTokenSource) refreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	tokenURL, ok := platformTokenURLs[s.platform]
	if !ok {
		return nil, fmt.Errorf("unsupported platform for refresh: %s", s.platform)
	}

	clientID, err := s.getSecret("client-id")
	if err != nil {
		return nil, err
	}
	clientSecret, err := s.getSecret("client-secret")
	if err != nil {
		return nil, err
	}

	data := url.Values{}
	data.Set("client_id", clientID)
	data.Set("client_secret", clientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("refresh failed with status: %d", resp.StatusCode)
	}

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	newExpiry := time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)

	// Dotted paths so the rest of the connection sub-object survives.
	prefix := "connections." + s.platform + "."
	updateData := map[string]interface{}{
		prefix + "access_token": result.AccessToken,
		prefix + "expires_at":   newExpiry,
		prefix + "last_used_at": time.Now(),
	}
	// Some platforms don't rotate refresh tokens on refresh; writing the
	// empty response value would wipe the stored token.
	if result.RefreshToken != "" {
		updateData[prefix+"refresh_token"] = result.RefreshToken
	}

	if err := s.db.UpdateUser(ctx, s.userID, updateData); err != nil {
		return nil, fmt.Errorf("failed to persist new tokens: %w", err)
	}

	newRefreshToken := result.RefreshToken
	if newRefreshToken == "" {
		newRefreshToken = refreshToken
	}

	return &oauth2.Token{
		AccessToken:  result.AccessToken,
		RefreshToken: newRefreshToken,
		Expiry:       newExpiry,
	}, nil
}

func (s *FirestoreTokenSource) getSecret(keyType string) (string, error) {
	// "linkedin" + "client-id" -> LINKEDIN_CLIENT_ID
	envVarName := strings.ToUpper(strings.ReplaceAll(s.platform, "-", "_")) + "_" + strings.ToUpper(strings.ReplaceAll(keyType, "-", "_"))

	value := os.Getenv(envVarName)
	if value == "" {
		return "", fmt.Errorf("environment variable %s not found", envVarName)
	}
	return value, nil
}
