package governance

import (
	"strings"
	"testing"

	"github.com/launchloom/server/pkg/models"
)

func TestVerifyRewritesRiskyPhrasesAndBlockedTerms(t *testing.T) {
	bp := &models.ChannelBlueprint{
		Channel: "instagram",
		Format:  models.FormatImage,
		Caption: "Guaranteed 100% results, the best in class",
	}
	brand := &models.BrandProfile{BlockedTerms: []string{"results"}}

	adjusted, report := Verify(bp, brand)

	lower := strings.ToLower(adjusted.Caption)
	for _, banned := range []string{"guaranteed", "100%", "best", "results"} {
		if strings.Contains(lower, banned) {
			t.Errorf("adjusted caption still contains %q: %q", banned, adjusted.Caption)
		}
	}

	if !report.ChangesMade {
		t.Error("expected ChangesMade to be true")
	}

	flagged := make(map[string]bool)
	for _, f := range report.Flags {
		flagged[f.Term] = true
		if f.Channel != "instagram" || f.Field != "caption" {
			t.Errorf("flag has wrong location: %+v", f)
		}
	}
	for _, term := range []string{"guaranteed", "100%", "best", "results"} {
		if !flagged[term] {
			t.Errorf("expected a flag for term %q, got %v", term, report.Flags)
		}
	}

	// Input must be untouched.
	if bp.Caption != "Guaranteed 100% results, the best in class" {
		t.Errorf("input blueprint was mutated: %q", bp.Caption)
	}
}

func TestVerifyIsIdempotent(t *testing.T) {
	bp := &models.ChannelBlueprint{
		Channel: "linkedin",
		Caption: "Our best offer yet: guaranteed savings, no risk, and it cures boredom. #1 choice!",
		Body:    "We promise 100% satisfaction.",
	}
	brand := &models.BrandProfile{BlockedTerms: []string{"promise"}}

	first, firstReport := Verify(bp, brand)
	if !firstReport.ChangesMade {
		t.Fatal("first pass should rewrite copy")
	}

	second, secondReport := Verify(first, brand)
	if secondReport.ChangesMade {
		t.Errorf("second pass changed copy again: flags %+v", secondReport.Flags)
	}
	if second.Caption != first.Caption || second.Body != first.Body {
		t.Errorf("second pass altered output: %q vs %q", second.Caption, first.Caption)
	}
}

func TestVerifyCleanCopyUntouched(t *testing.T) {
	bp := &models.ChannelBlueprint{
		Channel: "tiktok",
		Script:  "Meet the new autumn collection. Warm layers, honest prices.",
	}

	adjusted, report := Verify(bp, &models.BrandProfile{})

	if report.ChangesMade || len(report.Flags) != 0 {
		t.Errorf("clean copy should produce no flags, got %+v", report.Flags)
	}
	if adjusted.Script != bp.Script {
		t.Errorf("clean copy was rewritten: %q", adjusted.Script)
	}
}

func TestVerifyCoversHeadlines(t *testing.T) {
	bp := &models.ChannelBlueprint{
		Channel:   "email",
		Format:    models.FormatText,
		Body:      "Plain body text.",
		Headlines: []string{"The best deal of the year", "A calm, honest subject line"},
	}

	adjusted, report := Verify(bp, nil)

	if strings.Contains(strings.ToLower(adjusted.Headlines[0]), "best") {
		t.Errorf("headline not rewritten: %q", adjusted.Headlines[0])
	}
	if adjusted.Headlines[1] != bp.Headlines[1] {
		t.Errorf("clean headline altered: %q", adjusted.Headlines[1])
	}

	found := false
	for _, f := range report.Flags {
		if f.Field == "headlines[0]" && f.Term == "best" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected flag on headlines[0], got %+v", report.Flags)
	}
}

func TestEvaluateCopyTextLimit(t *testing.T) {
	bp := &models.ChannelBlueprint{
		Channel: "instagram",
		Format:  models.FormatImage,
		Caption: "This caption is 22 ch..",
	}

	report := EvaluateCopy(bp, 10)

	if report.Checks["text_length"].Passes {
		t.Error("text_length should fail for copy over the limit")
	}
	if !report.RequiresReview {
		t.Error("over-limit copy must require review")
	}
	if report.Status != StatusWarn {
		t.Errorf("expected status WARN, got %s", report.Status)
	}
}

func TestEvaluateCopyPass(t *testing.T) {
	bp := &models.ChannelBlueprint{
		Channel:      "instagram",
		Format:       models.FormatImage,
		Caption:      "Short and sweet.",
		VisualPrompt: "A sunny storefront.",
	}

	report := EvaluateCopy(bp, 0)

	if report.Status != StatusPass || report.RequiresReview {
		t.Errorf("expected clean PASS, got %+v", report)
	}
	if !report.Checks["has_copy"].Passes || !report.Checks["text_length"].Passes {
		t.Errorf("expected all checks to pass, got %+v", report.Checks)
	}
}

func TestEvaluateCopyEmpty(t *testing.T) {
	bp := &models.ChannelBlueprint{Channel: "linkedin", Format: models.FormatText}

	report := EvaluateCopy(bp, 0)

	if report.Checks["has_copy"].Passes {
		t.Error("empty copy must fail has_copy")
	}
	if !report.RequiresReview {
		t.Error("empty copy must require review")
	}
}
