package models

// AssetFormat is the rendered form a channel's content takes.
type AssetFormat string

const (
	FormatImage AssetFormat = "image"
	FormatVideo AssetFormat = "video"
	FormatText  AssetFormat = "text"
)

// ChannelBlueprint is the planned, not-yet-rendered content for one channel.
// Produced once by the planner and immutable thereafter; governance rewrites
// copy fields only, never the record identity.
type ChannelBlueprint struct {
	Channel      string      `firestore:"channel" json:"channel"`
	Format       AssetFormat `firestore:"format" json:"format"`
	VisualPrompt string      `firestore:"visual_prompt,omitempty" json:"visual_prompt,omitempty"`

	Caption   string   `firestore:"caption,omitempty" json:"caption,omitempty"`
	Body      string   `firestore:"body,omitempty" json:"body,omitempty"`
	Headlines []string `firestore:"headlines,omitempty" json:"headlines,omitempty"`
	Script    string   `firestore:"script,omitempty" json:"script,omitempty"`

	// ManualAction marks a degraded plan entry the user must act on
	// themselves because the model output was unusable.
	ManualAction bool `firestore:"manual_action,omitempty" json:"manual_action,omitempty"`
}

// GeneratedAsset references a rendered asset in object storage. The campaign
// points at it but does not own its lifetime.
type GeneratedAsset struct {
	Channel string `firestore:"channel" json:"channel"`
	// URL is empty when fabrication exhausted all fallbacks.
	URL           string `firestore:"url,omitempty" json:"url,omitempty"`
	Method        string `firestore:"method" json:"method"`
	Fallback      bool   `firestore:"fallback,omitempty" json:"fallback,omitempty"`
	FailureReason string `firestore:"failure_reason,omitempty" json:"failure_reason,omitempty"`
}

// Generation methods recorded on GeneratedAsset.
const (
	AssetMethodVideo = "video"
	AssetMethodImage = "image"
	AssetMethodText  = "text"
	AssetMethodNone  = "none"
)
