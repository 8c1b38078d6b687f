// Package planner turns a campaign brief into per-channel content blueprints
// using the text model. Model output is treated as hostile: it is decoded
// tolerantly, validated per channel, and a campaign never fails outright
// because the model produced garbage. Unusable output degrades to a
// manual-action plan the user can finish by hand.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	shared "github.com/launchloom/server/pkg"
	"github.com/launchloom/server/pkg/jsonutil"
	"github.com/launchloom/server/pkg/models"
)

const defaultMaxAttempts = 2

// PlanningError means the text model itself could not be reached after
// retries. Unusable output is not a PlanningError; it degrades instead.
type PlanningError struct {
	Attempts int
	Err      error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *PlanningError) Unwrap() error {
	return e.Err
}

// defaultFormats are the rendered form each channel takes unless the model
// says otherwise.
var defaultFormats = map[string]models.AssetFormat{
	"instagram": models.FormatImage,
	"facebook":  models.FormatImage,
	"linkedin":  models.FormatImage,
	"tiktok":    models.FormatVideo,
	"x":         models.FormatText,
	"email":     models.FormatText,
}

// DefaultFormat returns the expected asset format for a channel.
func DefaultFormat(channel string) models.AssetFormat {
	if f, ok := defaultFormats[channel]; ok {
		return f
	}
	return models.FormatImage
}

// Planner produces blueprints from a campaign brief.
type Planner struct {
	Text        shared.TextGenerator
	MaxAttempts int
	Logger      *slog.Logger
}

func New(text shared.TextGenerator, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		Text:        text,
		MaxAttempts: defaultMaxAttempts,
		Logger:      logger.With("component", "planner"),
	}
}

// planDocument is the wire shape expected from the model.
type planDocument struct {
	Plans []planEntry `json:"plans"`
}

type planEntry struct {
	Channel      string   `json:"channel"`
	Format       string   `json:"format"`
	VisualPrompt string   `json:"visual_prompt"`
	Caption      string   `json:"caption"`
	Body         string   `json:"body"`
	Headlines    []string `json:"headlines"`
	Script       string   `json:"script"`
}

// Plan generates one blueprint per requested channel. The bool result is true
// when the plan is degraded (manual-action placeholders). A non-nil error
// means the model was unreachable, not that its output was bad.
func (p *Planner) Plan(ctx context.Context, campaign *models.Campaign) (map[string]*models.ChannelBlueprint, bool, error) {
	prompt := BuildPrompt(campaign)

	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	var (
		raw     string
		callErr error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, callErr = p.Text.GenerateText(ctx, prompt)
		if callErr == nil {
			break
		}
		p.Logger.Warn("Plan generation attempt failed",
			"campaign_id", campaign.ID, "attempt", attempt, "error", callErr)
	}
	if callErr != nil {
		return nil, false, &PlanningError{Attempts: attempts, Err: callErr}
	}

	var doc planDocument
	strategy, err := jsonutil.DecodeTolerant(raw, &doc)
	if err != nil || len(doc.Plans) == 0 {
		p.Logger.Error("Plan output unusable, degrading to manual plan",
			"campaign_id", campaign.ID, "error", err)
		return ManualFallbackPlan(campaign.Channels), true, nil
	}
	if strategy != jsonutil.StrategyStrict {
		p.Logger.Info("Plan decoded via fallback strategy",
			"campaign_id", campaign.ID, "strategy", string(strategy))
	}

	byChannel := make(map[string]planEntry, len(doc.Plans))
	for _, entry := range doc.Plans {
		byChannel[strings.ToLower(strings.TrimSpace(entry.Channel))] = entry
	}

	plans := make(map[string]*models.ChannelBlueprint, len(campaign.Channels))
	degraded := false
	for _, channel := range campaign.Channels {
		entry, ok := byChannel[channel]
		if !ok || !usable(entry) {
			p.Logger.Warn("Channel missing from plan output, using manual placeholder",
				"campaign_id", campaign.ID, "channel", channel)
			plans[channel] = manualBlueprint(channel)
			degraded = true
			continue
		}
		plans[channel] = toBlueprint(channel, entry)
	}
	return plans, degraded, nil
}

// usable requires either copy or a visual prompt; a plan with neither gives
// the downstream stages nothing to work with.
func usable(e planEntry) bool {
	return e.Caption != "" || e.Body != "" || e.Script != "" || e.VisualPrompt != ""
}

func toBlueprint(channel string, e planEntry) *models.ChannelBlueprint {
	format := models.AssetFormat(strings.ToLower(e.Format))
	switch format {
	case models.FormatImage, models.FormatVideo, models.FormatText:
	default:
		format = DefaultFormat(channel)
	}
	return &models.ChannelBlueprint{
		Channel:      channel,
		Format:       format,
		VisualPrompt: e.VisualPrompt,
		Caption:      e.Caption,
		Body:         e.Body,
		Headlines:    e.Headlines,
		Script:       e.Script,
	}
}

// ManualFallbackPlan builds the degraded plan: one manual-action blueprint
// per channel, nothing to render or publish automatically.
func ManualFallbackPlan(channels []string) map[string]*models.ChannelBlueprint {
	plans := make(map[string]*models.ChannelBlueprint, len(channels))
	for _, channel := range channels {
		plans[channel] = manualBlueprint(channel)
	}
	return plans
}

func manualBlueprint(channel string) *models.ChannelBlueprint {
	return &models.ChannelBlueprint{
		Channel:      channel,
		Format:       DefaultFormat(channel),
		ManualAction: true,
	}
}

// BuildPrompt renders the planning brief handed to the text model.
func BuildPrompt(campaign *models.Campaign) string {
	var b strings.Builder
	b.WriteString("You are a marketing campaign planner. Produce channel content plans as JSON.\n\n")
	fmt.Fprintf(&b, "Campaign goal: %s\n", campaign.Goal)

	if campaign.Brand != nil {
		fmt.Fprintf(&b, "Brand: %s\n", campaign.Brand.Name)
		if style := campaign.Brand.StyleString(); style != "" {
			fmt.Fprintf(&b, "Brand style: %s\n", style)
		}
		if len(campaign.Brand.BlockedTerms) > 0 {
			fmt.Fprintf(&b, "Never use these terms: %s\n", strings.Join(campaign.Brand.BlockedTerms, ", "))
		}
	}

	fmt.Fprintf(&b, "Channels: %s\n", strings.Join(campaign.Channels, ", "))

	if len(campaign.Answers) > 0 {
		b.WriteString("\nClarifying answers from the user:\n")
		for q, a := range campaign.Answers {
			fmt.Fprintf(&b, "- %s: %s\n", q, a)
		}
	}

	b.WriteString(`
Respond with ONLY a JSON object of this shape:
{"plans": [{"channel": "<channel>", "format": "image|video|text", "visual_prompt": "...", "caption": "...", "body": "...", "headlines": ["..."], "script": "..."}]}
Include exactly one entry per requested channel. Use "caption" for social posts, "body" and "headlines" for email, "script" plus a "visual_prompt" for video.`)
	return b.String()
}
