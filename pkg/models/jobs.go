package models

// GenerationJob is the Pub/Sub payload that kicks off (or resumes) campaign
// generation. Ownership of the work transfers to the queue; the API handler
// that enqueued it does not wait for completion.
type GenerationJob struct {
	CampaignID string `json:"campaign_id"`
	UserID     string `json:"user_id"`

	// OnlyChannels restricts the run to the named channels (user-triggered
	// re-run of a failed channel). Empty means all requested channels.
	OnlyChannels []string `json:"only_channels,omitempty"`

	// Resume marks a recovery-sweep re-invocation after a crash. Completed
	// channels recorded in the checkpoint are skipped either way; the flag is
	// carried for audit logging.
	Resume bool `json:"resume,omitempty"`
}

// PublishJob asks the channel publisher to push one rendered asset to a
// connected platform.
type PublishJob struct {
	UserID     string `json:"user_id"`
	CampaignID string `json:"campaign_id"`
	Channel    string `json:"channel"`
	Platform   string `json:"platform"`
	AssetURL   string `json:"asset_url,omitempty"`
	Caption    string `json:"caption,omitempty"`
}
