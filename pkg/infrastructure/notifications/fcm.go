// Package notifications sends campaign push notifications through Firebase
// Cloud Messaging. Token bookkeeping goes through the shared database so the
// adapter carries no Firestore layout knowledge of its own.
package notifications

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"

	shared "github.com/launchloom/server/pkg"
)

type FCMAdapter struct {
	client *messaging.Client
	db     shared.Database
	logger *slog.Logger
}

func NewFCMAdapter(ctx context.Context, app *firebase.App, db shared.Database) (*FCMAdapter, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}
	return &FCMAdapter{
		client: client,
		db:     db,
		logger: slog.Default().With("component", "notifications"),
	}, nil
}

func (a *FCMAdapter) SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error {
	if len(tokens) == 0 {
		a.logger.Debug("No tokens for user, skipping notification", "user_id", userID)
		return nil
	}

	a.logger.Info("Sending push notification", "user_id", userID, "token_count", len(tokens), "title", title)

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	response, err := a.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send multicast message: %w", err)
	}

	if response.FailureCount > 0 {
		a.logger.Warn("Some push notifications failed to send",
			"user_id", userID,
			"failure_count", response.FailureCount,
			"success_count", response.SuccessCount,
		)
		a.pruneDeadTokens(ctx, userID, deadTokens(tokens, response.Responses))
	}

	return nil
}

// deadTokens picks the tokens FCM reported as no longer registered.
func deadTokens(tokens []string, responses []*messaging.SendResponse) []string {
	var dead []string
	for i, resp := range responses {
		if resp.Error != nil && messaging.IsRegistrationTokenNotRegistered(resp.Error) {
			dead = append(dead, tokens[i])
		}
	}
	return dead
}

// pruneDeadTokens removes unregistered tokens from the user record so the
// next send stops retrying them.
func (a *FCMAdapter) pruneDeadTokens(ctx context.Context, userID string, dead []string) {
	if len(dead) == 0 {
		return
	}

	a.logger.Info("Removing dead FCM tokens", "user_id", userID, "count", len(dead))
	if err := a.db.RemoveFCMTokens(ctx, userID, dead); err != nil {
		a.logger.Error("Failed to remove dead FCM tokens", "user_id", userID, "error", err)
	}
}
