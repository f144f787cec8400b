package usage

import (
	"context"
	"fmt"
	"time"

	"studybot/internal/models"
)

// Gated actions.
type Action string

const (
	ActionQuery    Action = "query"
	ActionReminder Action = "reminder"
)

// Rejection reasons.
const (
	ReasonQueryLimit    = "query_limit"
	ReasonReminderLimit = "reminder_limit"
)

// Fixed quota for non-premium users.
const (
	QueryLimit     = 5
	ReminderLimit  = 3
	QueryWindow    = time.Hour
	ReminderWindow = 24 * time.Hour
)

type Store interface {
	GetOrCreate(ctx context.Context, userID int64) (*models.UserUsage, error)
	Update(ctx context.Context, usage *models.UserUsage) error
}

type Result struct {
	OK     bool
	Reason string
}

// Limiter enforces rolling per-user quotas. Counters reset lazily: the first
// check after a window elapses zeroes the counter, there is no background
// sweep. Increment is separate from Check — callers check, act, then
// increment, and a failed downstream action does not roll the counter back.
type Limiter struct {
	store Store
	now   func() time.Time
}

func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// Check reports whether the user may perform another gated action. Premium
// users always pass.
func (l *Limiter) Check(ctx context.Context, userID int64, isPremium bool) (Result, error) {
	if isPremium {
		return Result{OK: true}, nil
	}

	usage, err := l.store.GetOrCreate(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load usage: %w", err)
	}

	now := l.now()
	changed := false
	if now.Sub(usage.LastResetQueries) > QueryWindow {
		usage.QueryCount = 0
		usage.LastResetQueries = now
		changed = true
	}
	if now.Sub(usage.LastResetReminders) > ReminderWindow {
		usage.ReminderCount = 0
		usage.LastResetReminders = now
		changed = true
	}
	if changed {
		if err := l.store.Update(ctx, usage); err != nil {
			return Result{}, fmt.Errorf("failed to reset usage windows: %w", err)
		}
	}

	if usage.QueryCount >= QueryLimit {
		return Result{OK: false, Reason: ReasonQueryLimit}, nil
	}
	if usage.ReminderCount >= ReminderLimit {
		return Result{OK: false, Reason: ReasonReminderLimit}, nil
	}
	return Result{OK: true}, nil
}

// Increment bumps the counter for a completed gated action.
func (l *Limiter) Increment(ctx context.Context, userID int64, action Action) error {
	usage, err := l.store.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load usage: %w", err)
	}

	switch action {
	case ActionQuery:
		usage.QueryCount++
	case ActionReminder:
		usage.ReminderCount++
	default:
		return fmt.Errorf("unknown usage action %q", action)
	}

	if err := l.store.Update(ctx, usage); err != nil {
		return fmt.Errorf("failed to update usage: %w", err)
	}
	return nil
}
