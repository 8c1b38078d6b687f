package shared

const (
	ProjectID = "launchloom-project" // Can be overridden by env var in main if needed

	TopicCampaignGeneration = "topic-campaign-generation" // Worker pipeline entry point
	TopicCampaignPublish    = "topic-campaign-publish"
	TopicCampaignEvents     = "topic-campaign-events"

	SubscriptionCampaignGeneration = "sub-campaign-generation-worker"

	CollectionUsers       = "users"
	CollectionCampaigns   = "campaigns"
	CollectionExecutions  = "executions"
	CollectionCheckpoints = "generation_checkpoints"

	DocBrandProfileCurrent = "current"

	// DefaultSignedURLTTLSeconds bounds how long a generated asset URL stays valid.
	DefaultSignedURLTTLSeconds = 3600
)
