package models

import "time"

// Plan identifiers stored on the user document.
const (
	PlanStarter = "starter"
	PlanGrowth  = "growth"
)

// UserRecord is the users/{uid} document.
type UserRecord struct {
	UserID      string `firestore:"user_id" json:"user_id"`
	Email       string `firestore:"email" json:"email"`
	DisplayName string `firestore:"display_name,omitempty" json:"display_name,omitempty"`

	Plan        string     `firestore:"plan,omitempty" json:"plan,omitempty"`
	IsAdmin     bool       `firestore:"is_admin,omitempty" json:"is_admin,omitempty"`
	TrialEndsAt *time.Time `firestore:"trial_ends_at,omitempty" json:"trial_ends_at,omitempty"`

	// StripeCustomerID links the user to their billing record.
	StripeCustomerID string `firestore:"stripe_customer_id,omitempty" json:"stripe_customer_id,omitempty"`

	// Monthly generation counters for plan limits.
	GenerationCountThisMonth int        `firestore:"generation_count_this_month" json:"generation_count_this_month"`
	BlockedGenerationCount   int        `firestore:"blocked_generation_count" json:"blocked_generation_count"`
	GenerationCountResetAt   *time.Time `firestore:"generation_count_reset_at,omitempty" json:"generation_count_reset_at,omitempty"`

	FCMTokens []string `firestore:"fcm_tokens,omitempty" json:"fcm_tokens,omitempty"`

	// Connections holds per-platform publishing credentials, keyed by
	// platform name ("metricool", "linkedin", "meta", "tiktok", "google").
	Connections map[string]*PlatformConnection `firestore:"connections,omitempty" json:"connections,omitempty"`

	CreatedAt time.Time `firestore:"created_at,omitempty" json:"created_at,omitempty"`
}

// PlatformConnection is one linked publishing platform on the user document.
type PlatformConnection struct {
	Enabled      bool       `firestore:"enabled" json:"enabled"`
	AccessToken  string     `firestore:"access_token,omitempty" json:"-"`
	RefreshToken string     `firestore:"refresh_token,omitempty" json:"-"`
	ExpiresAt    *time.Time `firestore:"expires_at,omitempty" json:"expires_at,omitempty"`
	AccountID    string     `firestore:"account_id,omitempty" json:"account_id,omitempty"`
	LastUsedAt   *time.Time `firestore:"last_used_at,omitempty" json:"last_used_at,omitempty"`
}
