// Package governance runs generated marketing copy through claims
// verification and a QC rubric before publish. Everything here is pure and
// deterministic: no external calls, regex rewriting only.
package governance

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/launchloom/server/pkg/models"
)

// Rule rewrites a risky phrase. Replacements must never re-match any rule so
// that verification is idempotent.
type Rule struct {
	Term        string
	Pattern     *regexp.Regexp
	Replacement string
	Reason      string
}

// builtinRules are the claims-verification table. They run before
// brand-specific blocked terms.
var builtinRules = []Rule{
	{
		Term:        "guaranteed",
		Pattern:     regexp.MustCompile(`(?i)\bguaranteed?\b`),
		Replacement: "expected",
		Reason:      "absolute outcome claim",
	},
	{
		Term:        "100%",
		Pattern:     regexp.MustCompile(`(?i)\b100%`),
		Replacement: "strong",
		Reason:      "unverifiable percentage claim",
	},
	{
		Term:        "best",
		Pattern:     regexp.MustCompile(`(?i)\bbest\b`),
		Replacement: "leading",
		Reason:      "unsubstantiated superlative",
	},
	{
		Term:        "no risk",
		Pattern:     regexp.MustCompile(`(?i)\bno[- ]risk\b`),
		Replacement: "low-commitment",
		Reason:      "risk-free claim",
	},
	{
		Term:        "cure",
		Pattern:     regexp.MustCompile(`(?i)\bcures?\b`),
		Replacement: "helps with",
		Reason:      "medical claim",
	},
	{
		Term:        "#1",
		Pattern:     regexp.MustCompile(`(?i)#1\b`),
		Replacement: "top-rated",
		Reason:      "unsubstantiated ranking claim",
	},
}

// Flag records one rewrite applied to a copy field.
type Flag struct {
	Channel string `json:"channel"`
	Field   string `json:"field"`
	Term    string `json:"term"`
	Reason  string `json:"reason"`
	Before  string `json:"before"`
	After   string `json:"after"`
}

// Report is the outcome of claims verification for one blueprint.
type Report struct {
	Flags       []Flag         `json:"flags"`
	Counts      map[string]int `json:"counts"`
	ChangesMade bool           `json:"changes_made"`
}

// Summary reduces the report for persistence on the campaign document.
func (r *Report) Summary(requiresReview bool) *models.GovernanceSummary {
	return &models.GovernanceSummary{
		ChangesMade:     r.ChangesMade,
		AdjustmentsMade: len(r.Flags),
		RequiresReview:  requiresReview,
	}
}

// Verify rewrites risky phrases in the blueprint's copy fields and strips
// brand blocked terms. The input blueprint is not mutated; the adjusted copy
// is returned alongside a report of everything touched. Built-in rules run
// first, then blocked terms are removed entirely (replaced with nothing).
func Verify(bp *models.ChannelBlueprint, brand *models.BrandProfile) (*models.ChannelBlueprint, *Report) {
	adjusted := *bp
	adjusted.Headlines = append([]string(nil), bp.Headlines...)

	report := &Report{Counts: make(map[string]int)}

	rules := builtinRules
	if brand != nil {
		rules = append(append([]Rule(nil), builtinRules...), blockedTermRules(brand.BlockedTerms)...)
	}

	adjusted.Caption = applyRules(adjusted.Caption, bp.Channel, "caption", rules, report)
	adjusted.Body = applyRules(adjusted.Body, bp.Channel, "body", rules, report)
	adjusted.Script = applyRules(adjusted.Script, bp.Channel, "script", rules, report)
	for i, h := range adjusted.Headlines {
		adjusted.Headlines[i] = applyRules(h, bp.Channel, fmt.Sprintf("headlines[%d]", i), rules, report)
	}

	report.ChangesMade = len(report.Flags) > 0
	return &adjusted, report
}

// blockedTermRules turns a brand's denylist into strip rules.
func blockedTermRules(terms []string) []Rule {
	var rules []Rule
	for _, term := range terms {
		t := strings.TrimSpace(term)
		if t == "" {
			continue
		}
		rules = append(rules, Rule{
			Term:        strings.ToLower(t),
			Pattern:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(t) + `\b`),
			Replacement: "",
			Reason:      "brand blocked term",
		})
	}
	return rules
}

var (
	multiSpaceRe  = regexp.MustCompile(`[ \t]{2,}`)
	spacePunctRe  = regexp.MustCompile(` ([,.;:!?])`)
	danglingSpace = regexp.MustCompile(`(?m)[ \t]+$`)
)

func applyRules(text, channel, field string, rules []Rule, report *Report) string {
	if text == "" {
		return text
	}

	current := text
	for _, rule := range rules {
		if !rule.Pattern.MatchString(current) {
			continue
		}
		before := current
		current = rule.Pattern.ReplaceAllString(current, rule.Replacement)
		if rule.Replacement == "" {
			current = tidy(current)
		}
		report.Flags = append(report.Flags, Flag{
			Channel: channel,
			Field:   field,
			Term:    rule.Term,
			Reason:  rule.Reason,
			Before:  before,
			After:   current,
		})
		report.Counts[rule.Term]++
	}
	return current
}

// tidy repairs whitespace left behind by stripped terms.
func tidy(s string) string {
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = spacePunctRe.ReplaceAllString(s, "$1")
	s = danglingSpace.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
