package delivery

import (
	"context"
	"time"

	"go.uber.org/zap"

	"studybot/internal/models"
)

// PremiumStore is the slice of the settings store the sweep needs.
type PremiumStore interface {
	GetExpiredPremium(ctx context.Context, now time.Time) ([]*models.UserSettings, error)
	ClearPremium(ctx context.Context, userID int64) error
}

// PremiumSweeper demotes premium subscriptions whose expiry has passed and
// notifies the affected users. Run once per day plus once at boot.
type PremiumSweeper struct {
	store    PremiumStore
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewPremiumSweeper(store PremiumStore, notifier Notifier, logger *zap.Logger) *PremiumSweeper {
	return &PremiumSweeper{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (p *PremiumSweeper) Run(ctx context.Context) {
	expired, err := p.store.GetExpiredPremium(ctx, p.now())
	if err != nil {
		p.logger.Error("failed to load expired premium users", zap.Error(err))
		return
	}

	for _, user := range expired {
		if err := p.store.ClearPremium(ctx, user.UserID); err != nil {
			p.logger.Error("failed to demote premium user",
				zap.Int64("user_id", user.UserID), zap.Error(err))
			continue
		}
		p.logger.Info("premium expired", zap.Int64("user_id", user.UserID))

		text := "💔 Ваш Premium закончился.\n" +
			"Активируйте снова, чтобы продолжить без ограничений: /buy_premium"
		if err := p.notifier.Send(ctx, user.UserID, text, nil); err != nil {
			p.logger.Warn("failed to notify demoted user",
				zap.Int64("user_id", user.UserID), zap.Error(err))
		}
	}
}
