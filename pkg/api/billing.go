package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/launchloom/server/pkg/models"
)

// maxWebhookBody bounds the Stripe payload size.
const maxWebhookBody = 65536

// handleStripeWebhook keeps the user's plan in sync with their subscription.
// Subscriptions are linked to users via the user_id metadata key set at
// checkout.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read payload")
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), s.StripeWebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.Logger.Warn("Stripe webhook signature verification failed", "error", err)
		s.writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid subscription payload")
			return
		}
		if err := s.applySubscription(r, &sub, event.Type); err != nil {
			s.Logger.Error("Failed to apply subscription change", "event_type", event.Type, "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to apply subscription")
			return
		}
	default:
		s.Logger.Info("Ignoring stripe event", "event_type", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) applySubscription(r *http.Request, sub *stripe.Subscription, eventType stripe.EventType) error {
	userID := sub.Metadata["user_id"]
	if userID == "" {
		s.Logger.Warn("Subscription missing user_id metadata", "subscription_id", sub.ID)
		return nil
	}

	newPlan := models.PlanStarter
	if eventType != "customer.subscription.deleted" &&
		(sub.Status == stripe.SubscriptionStatusActive || sub.Status == stripe.SubscriptionStatusTrialing) {
		newPlan = models.PlanGrowth
	}

	updates := map[string]interface{}{
		"plan":       newPlan,
		"updated_at": time.Now().UTC(),
	}
	if sub.Customer != nil {
		updates["stripe_customer_id"] = sub.Customer.ID
	}

	s.Logger.Info("Updating user plan from subscription",
		"user_id", userID, "plan", newPlan, "subscription_status", string(sub.Status))
	return s.DB.UpdateUser(r.Context(), userID, updates)
}
