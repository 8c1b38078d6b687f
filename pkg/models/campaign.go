package models

import "time"

// CampaignStatus is the overall lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusDraft      CampaignStatus = "draft"
	CampaignStatusPlanning   CampaignStatus = "planning"
	CampaignStatusGenerating CampaignStatus = "generating"
	CampaignStatusCompleted  CampaignStatus = "completed"
	CampaignStatusFailed     CampaignStatus = "failed"
)

// ChannelStatus tracks one channel's progress through the generation pipeline.
type ChannelStatus string

const (
	ChannelStatusPending    ChannelStatus = "pending"
	ChannelStatusGenerating ChannelStatus = "generating"
	ChannelStatusGoverned   ChannelStatus = "governed"
	ChannelStatusPublished  ChannelStatus = "published"
	ChannelStatusFailed     ChannelStatus = "failed"
)

// Terminal reports whether the status is a per-channel end state.
func (s ChannelStatus) Terminal() bool {
	return s == ChannelStatusPublished || s == ChannelStatusFailed
}

// Campaign is the user-owned campaign document at users/{uid}/campaigns/{id}.
// It survives process restarts; the orchestrator owns it for the campaign's
// lifetime and keeps the status map consistent with the checkpoint.
type Campaign struct {
	ID     string `firestore:"id" json:"id"`
	UserID string `firestore:"user_id" json:"user_id"`
	Goal   string `firestore:"goal" json:"goal"`

	// Brand is a snapshot taken when generation starts so later profile edits
	// don't change an in-flight campaign.
	Brand *BrandProfile `firestore:"brand" json:"brand,omitempty"`

	Channels []string `firestore:"channels" json:"channels"`

	// Answers holds the user's clarifying answers fed to the planner.
	Answers map[string]string `firestore:"answers,omitempty" json:"answers,omitempty"`

	Status        CampaignStatus `firestore:"status" json:"status"`
	StatusMessage string         `firestore:"status_message,omitempty" json:"status_message,omitempty"`

	// DegradedPlan is set when the planner output was unusable and the
	// campaign fell back to a single manual-action plan.
	DegradedPlan bool `firestore:"degraded_plan,omitempty" json:"degraded_plan,omitempty"`

	Blueprints     map[string]*ChannelBlueprint `firestore:"blueprints,omitempty" json:"blueprints,omitempty"`
	ChannelResults map[string]*ChannelResult    `firestore:"channel_results,omitempty" json:"channel_results,omitempty"`

	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at" json:"updated_at"`
}

// ChannelResult is the per-channel outcome written as generation progresses.
// Each channel task writes a disjoint key under channel_results, so parallel
// merge-upserts are safe.
type ChannelResult struct {
	Channel       string             `firestore:"channel" json:"channel"`
	Status        ChannelStatus      `firestore:"status" json:"status"`
	Asset         *GeneratedAsset    `firestore:"asset,omitempty" json:"asset,omitempty"`
	Governance    *GovernanceSummary `firestore:"governance,omitempty" json:"governance,omitempty"`
	FailureReason string             `firestore:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	// PublishConfirmationID is the platform's confirmation id once the asset
	// has been pushed to the connected publishing service.
	PublishConfirmationID string `firestore:"publish_confirmation_id,omitempty" json:"publish_confirmation_id,omitempty"`

	CompletedAt time.Time `firestore:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// GovernanceSummary is the compact, persisted view of a governance report.
type GovernanceSummary struct {
	ChangesMade     bool `firestore:"changes_made" json:"changes_made"`
	AdjustmentsMade int  `firestore:"adjustments_made" json:"adjustments_made"`
	RequiresReview  bool `firestore:"requires_review" json:"requires_review"`
}
