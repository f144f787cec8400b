package delivery

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"studybot/internal/format"
	"studybot/internal/models"
	"studybot/internal/repository"
)

// Callback data prefixes for the interactive reminder actions.
const (
	CallbackSnooze10m      = "snooze_10m_"
	CallbackSnooze1h       = "snooze_1h_"
	CallbackSnoozeTomorrow = "snooze_tomorrow_"
	CallbackDone           = "done_"
	CallbackDelete         = "del_"
)

// Action is one interactive affordance attached to a notification.
type Action struct {
	Label string
	Data  string
}

// Notifier sends a rendered message to a user. Failures are non-fatal to the
// firing path.
type Notifier interface {
	Send(ctx context.Context, userID int64, text string, actions []Action) error
}

// Reminders is the slice of the reminder service the delivery path needs.
type Reminders interface {
	Get(ctx context.Context, reminderID int) (*models.Reminder, error)
	OnFire(ctx context.Context, reminderID int) error
	Snooze(ctx context.Context, reminderID int, delta time.Duration, toTomorrowSameTime bool) (bool, error)
	Cancel(ctx context.Context, reminderID int) (bool, error)
}

// Handler delivers due reminders and applies snooze/done interactions.
type Handler struct {
	notifier  Notifier
	reminders Reminders
	logger    *zap.Logger
	now       func() time.Time
}

func New(notifier Notifier, reminders Reminders, logger *zap.Logger) *Handler {
	return &Handler{
		notifier:  notifier,
		reminders: reminders,
		logger:    logger,
		now:       time.Now,
	}
}

// OnDue is the scheduler fire callback: notify the owner with snooze/done
// actions, then run the fire continuation. A notifier failure is logged and
// swallowed so it never blocks recurrence advancement or other timers.
func (h *Handler) OnDue(ctx context.Context, reminderID int) {
	reminder, err := h.reminders.Get(ctx, reminderID)
	if errors.Is(err, repository.ErrNotFound) {
		h.logger.Info("fired reminder no longer exists", zap.Int("reminder_id", reminderID))
		return
	}
	if err != nil {
		h.logger.Error("failed to load fired reminder", zap.Int("reminder_id", reminderID), zap.Error(err))
		return
	}

	text := format.ReminderNotification(reminder, h.now())
	if err := h.notifier.Send(ctx, reminder.UserID, text, ReminderActions(reminderID)); err != nil {
		h.logger.Warn("failed to notify user",
			zap.Int64("user_id", reminder.UserID),
			zap.Int("reminder_id", reminderID),
			zap.Error(err))
	}

	if err := h.reminders.OnFire(ctx, reminderID); err != nil {
		h.logger.Error("fire continuation failed", zap.Int("reminder_id", reminderID), zap.Error(err))
	}
}

// ReminderActions builds the interactive affordances for a due reminder.
func ReminderActions(reminderID int) []Action {
	return []Action{
		{Label: "😴 +10м", Data: format.CallbackData(CallbackSnooze10m, reminderID)},
		{Label: "😴 +1ч", Data: format.CallbackData(CallbackSnooze1h, reminderID)},
		{Label: "📅 Завтра", Data: format.CallbackData(CallbackSnoozeTomorrow, reminderID)},
		{Label: "✅ Готово", Data: format.CallbackData(CallbackDone, reminderID)},
	}
}

// Snooze applies a snooze affordance. kind is one of "10m", "1h", "tomorrow".
// A false return means no reminder remained to act on — already completed or
// cancelled, safe to tell the user without alarm.
func (h *Handler) Snooze(ctx context.Context, reminderID int, kind string) bool {
	var (
		ok  bool
		err error
	)
	switch kind {
	case "10m":
		ok, err = h.reminders.Snooze(ctx, reminderID, 10*time.Minute, false)
	case "1h":
		ok, err = h.reminders.Snooze(ctx, reminderID, time.Hour, false)
	case "tomorrow":
		ok, err = h.reminders.Snooze(ctx, reminderID, 0, true)
	default:
		return false
	}
	if err != nil {
		h.logger.Error("snooze failed", zap.Int("reminder_id", reminderID), zap.Error(err))
		return false
	}
	return ok
}

// Done completes a reminder.
func (h *Handler) Done(ctx context.Context, reminderID int) bool {
	ok, err := h.reminders.Cancel(ctx, reminderID)
	if err != nil {
		h.logger.Error("done failed", zap.Int("reminder_id", reminderID), zap.Error(err))
		return false
	}
	return ok
}
