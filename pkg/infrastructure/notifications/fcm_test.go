package notifications

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"firebase.google.com/go/v4/messaging"

	"github.com/launchloom/server/pkg/testing/mocks"
)

func TestPruneDeadTokensRemovesThroughDatabase(t *testing.T) {
	var removedUser string
	var removed []string
	db := &mocks.MockDatabase{
		RemoveFCMTokensFunc: func(ctx context.Context, userID string, tokens []string) error {
			removedUser = userID
			removed = tokens
			return nil
		},
	}
	a := &FCMAdapter{db: db, logger: slog.Default()}

	a.pruneDeadTokens(context.Background(), "user-1", []string{"dead-1", "dead-2"})

	if removedUser != "user-1" {
		t.Errorf("pruned wrong user: %q", removedUser)
	}
	if len(removed) != 2 || removed[0] != "dead-1" || removed[1] != "dead-2" {
		t.Errorf("wrong tokens pruned: %v", removed)
	}
}

func TestPruneDeadTokensSkipsEmptySet(t *testing.T) {
	db := &mocks.MockDatabase{
		RemoveFCMTokensFunc: func(ctx context.Context, userID string, tokens []string) error {
			t.Error("no removal should happen for an empty set")
			return nil
		},
	}
	a := &FCMAdapter{db: db, logger: slog.Default()}

	a.pruneDeadTokens(context.Background(), "user-1", nil)
}

func TestDeadTokensIgnoresOtherSendErrors(t *testing.T) {
	tokens := []string{"tok-1", "tok-2"}
	responses := []*messaging.SendResponse{
		{Success: true, MessageID: "m-1"},
		{Error: errors.New("internal error")},
	}

	if dead := deadTokens(tokens, responses); dead != nil {
		t.Errorf("only unregistered tokens should be pruned, got %v", dead)
	}
}
