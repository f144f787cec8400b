package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"studybot/internal/models"
)

type fakePremiumStore struct {
	expired    []*models.UserSettings
	cleared    []int64
	clearError error
}

func (f *fakePremiumStore) GetExpiredPremium(ctx context.Context, now time.Time) ([]*models.UserSettings, error) {
	return f.expired, nil
}

func (f *fakePremiumStore) ClearPremium(ctx context.Context, userID int64) error {
	if f.clearError != nil {
		return f.clearError
	}
	f.cleared = append(f.cleared, userID)
	return nil
}

func TestPremiumSweepDemotesAndNotifies(t *testing.T) {
	t.Parallel()
	store := &fakePremiumStore{expired: []*models.UserSettings{
		{UserID: 1, IsPremium: true},
		{UserID: 2, IsPremium: true},
	}}
	notifier := &fakeNotifier{}
	sweeper := NewPremiumSweeper(store, notifier, zap.NewNop())

	sweeper.Run(context.Background())

	if len(store.cleared) != 2 {
		t.Errorf("cleared %v, want both users", store.cleared)
	}
	if notifier.sent != 2 {
		t.Errorf("notified %d users, want 2", notifier.sent)
	}
}

func TestPremiumSweepSkipsNotifyOnDemoteFailure(t *testing.T) {
	t.Parallel()
	store := &fakePremiumStore{
		expired:    []*models.UserSettings{{UserID: 1, IsPremium: true}},
		clearError: errors.New("db down"),
	}
	notifier := &fakeNotifier{}
	sweeper := NewPremiumSweeper(store, notifier, zap.NewNop())

	sweeper.Run(context.Background())

	if notifier.sent != 0 {
		t.Error("notified a user who was not demoted")
	}
}
