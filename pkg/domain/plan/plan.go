package plan

import (
	"time"

	"github.com/launchloom/server/pkg/models"
)

const (
	StarterPlanGenerationsPerMonth = 10
	StarterPlanMaxConnections      = 2
)

// EffectivePlan is used for internal logic
type EffectivePlan string

const (
	PlanStarter EffectivePlan = "starter"
	PlanGrowth  EffectivePlan = "growth"
)

// GetEffectivePlan determines the user's effective plan based on admin status,
// trial period, and stored plan.
func GetEffectivePlan(user *models.UserRecord) EffectivePlan {
	// Admin override always grants Growth
	if user.IsAdmin {
		return PlanGrowth
	}

	// Active trial grants Growth
	if user.TrialEndsAt != nil && user.TrialEndsAt.After(time.Now()) {
		return PlanGrowth
	}

	// Fall back to stored plan (default: starter)
	if user.Plan == models.PlanGrowth {
		return PlanGrowth
	}

	return PlanStarter
}

// CanGenerate checks if user can start a campaign generation within their
// plan limits.
func CanGenerate(user *models.UserRecord) (allowed bool, reason string) {
	p := GetEffectivePlan(user)

	if p == PlanGrowth {
		return true, ""
	}

	// Check monthly limit for starter plan
	if user.GenerationCountThisMonth >= StarterPlanGenerationsPerMonth {
		return false, "Starter plan limit reached (10/month). Upgrade to Growth for unlimited campaigns."
	}

	return true, ""
}

// CanAddConnection checks if user can link a new publishing platform within
// their plan limits.
func CanAddConnection(user *models.UserRecord, currentCount int) (allowed bool, reason string) {
	p := GetEffectivePlan(user)

	if p == PlanGrowth {
		return true, ""
	}

	if currentCount >= StarterPlanMaxConnections {
		return false, "Starter plan limited to 2 connections. Upgrade to Growth for unlimited."
	}

	return true, ""
}

// ShouldResetGenerationCount checks if the generation counter should be reset (monthly)
func ShouldResetGenerationCount(user *models.UserRecord) bool {
	if user.GenerationCountResetAt == nil {
		return true
	}

	resetTime := *user.GenerationCountResetAt
	now := time.Now()

	// Reset if the reset date is in a different month
	return resetTime.Year() != now.Year() || resetTime.Month() != now.Month()
}

// GetTrialDaysRemaining returns the number of days left in trial, or -1 if not on trial
func GetTrialDaysRemaining(user *models.UserRecord) int {
	if user.TrialEndsAt == nil {
		return -1
	}

	now := time.Now()
	trialEnd := *user.TrialEndsAt

	if trialEnd.Before(now) || trialEnd.Equal(now) {
		return 0
	}

	return int(trialEnd.Sub(now).Hours()/24) + 1
}
