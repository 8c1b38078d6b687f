package models

import "time"

// Checkpoint is the durable record of which channels of a campaign have
// finished processing, at generation_checkpoints/{campaignId}. It is created
// when processing starts and deleted when the campaign reaches a terminal
// state, or by orphan cleanup when the owning campaign is gone.
type Checkpoint struct {
	CampaignID string   `firestore:"campaign_id" json:"campaign_id"`
	UserID     string   `firestore:"user_id" json:"user_id"`
	Channels   []string `firestore:"channels" json:"channels"`

	// CompletedChannels never contains a channel twice; writes go through a
	// Firestore array-union merge.
	CompletedChannels []string `firestore:"completed_channels" json:"completed_channels"`

	// Owner is the worker instance currently processing this checkpoint.
	// A checkpoint with a fresh claim is skipped by other workers' recovery
	// sweeps so two instances never double-generate the same channel.
	Owner     string    `firestore:"owner,omitempty" json:"owner,omitempty"`
	ClaimedAt time.Time `firestore:"claimed_at,omitempty" json:"claimed_at,omitempty"`

	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
}

// MissingChannels returns the requested channels not yet completed, in the
// original request order.
func (c *Checkpoint) MissingChannels() []string {
	done := make(map[string]bool, len(c.CompletedChannels))
	for _, ch := range c.CompletedChannels {
		done[ch] = true
	}
	var missing []string
	for _, ch := range c.Channels {
		if !done[ch] {
			missing = append(missing, ch)
		}
	}
	return missing
}
