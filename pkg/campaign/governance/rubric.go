package governance

import (
	"fmt"

	"github.com/launchloom/server/pkg/models"
)

// Rubric statuses. WARN never blocks publish, it only marks the channel for
// human review.
const (
	StatusPass = "PASS"
	StatusWarn = "WARN"
)

// Check is a single rubric criterion result.
type Check struct {
	Passes bool   `json:"passes"`
	Detail string `json:"detail,omitempty"`
}

// RubricReport is the QC outcome for one channel's copy.
type RubricReport struct {
	Channel        string           `json:"channel"`
	Checks         map[string]Check `json:"checks"`
	Status         string           `json:"status"`
	RequiresReview bool             `json:"requires_review"`
}

// channelTextLimits are platform caption/body character limits.
var channelTextLimits = map[string]int{
	"instagram": 2200,
	"tiktok":    2200,
	"linkedin":  3000,
	"facebook":  5000,
	"x":         280,
	"email":     10000,
}

const fallbackTextLimit = 2200

// TextLimitFor returns the character budget for a channel's primary copy.
func TextLimitFor(channel string) int {
	if limit, ok := channelTextLimits[channel]; ok {
		return limit
	}
	return fallbackTextLimit
}

// EvaluateCopy scores a blueprint against the QC rubric. A textLimit of 0
// uses the channel default. Failing checks downgrade the status to WARN and
// set RequiresReview; they never reject the copy outright.
func EvaluateCopy(bp *models.ChannelBlueprint, textLimit int) *RubricReport {
	if textLimit <= 0 {
		textLimit = TextLimitFor(bp.Channel)
	}

	copyText := primaryCopy(bp)

	checks := map[string]Check{
		"has_copy": {
			Passes: copyText != "",
			Detail: "primary copy field must be non-empty",
		},
		"text_length": {
			Passes: len(copyText) <= textLimit,
			Detail: fmt.Sprintf("%d chars against limit %d", len(copyText), textLimit),
		},
	}

	if bp.Format == models.FormatImage || bp.Format == models.FormatVideo {
		checks["visual_prompt"] = Check{
			Passes: bp.VisualPrompt != "",
			Detail: "visual formats need a rendering prompt",
		}
	}

	report := &RubricReport{
		Channel: bp.Channel,
		Checks:  checks,
		Status:  StatusPass,
	}
	for _, c := range checks {
		if !c.Passes {
			report.Status = StatusWarn
			report.RequiresReview = true
			break
		}
	}
	return report
}

// primaryCopy picks the field the platform actually displays.
func primaryCopy(bp *models.ChannelBlueprint) string {
	if bp.Caption != "" {
		return bp.Caption
	}
	if bp.Body != "" {
		return bp.Body
	}
	return bp.Script
}
