package reminders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"studybot/internal/models"
	"studybot/internal/repository"
)

// Store is the durable record of reminders.
type Store interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	GetByID(ctx context.Context, reminderID int) (*models.Reminder, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Reminder, error)
	GetAll(ctx context.Context) ([]*models.Reminder, error)
	UpdateSchedule(ctx context.Context, reminderID int, remindAt time.Time, jobID *string) error
	SetJobID(ctx context.Context, reminderID int, jobID *string) error
	Delete(ctx context.Context, reminderID int) error
}

// Jobs is the in-memory timer engine.
type Jobs interface {
	Arm(reminderID int, runAt time.Time) string
	Disarm(reminderID int)
}

const lockStripes = 64

// Service owns reminder lifecycle: persist-then-arm creation, recurrence
// advancement after fire, snooze and cancel. Mutations to a single reminder
// are serialized through striped per-id locks.
type Service struct {
	store  Store
	jobs   Jobs
	logger *zap.Logger
	now    func() time.Time

	locks [lockStripes]sync.Mutex
}

func NewService(store Store, jobs Jobs, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		jobs:   jobs,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) lock(reminderID int) func() {
	m := &s.locks[reminderID%lockStripes]
	m.Lock()
	return m.Unlock
}

// Create persists a new reminder, then arms a timer for it. A store failure
// means no timer is armed. A due time already in the past is pushed slightly
// forward so delivery still happens through the scheduler.
func (s *Service) Create(ctx context.Context, userID int64, text string, due time.Time, repeatType, source string) (*models.Reminder, error) {
	if now := s.now(); due.Before(now) {
		due = now.Add(10 * time.Second)
	}

	reminder := &models.Reminder{
		UserID:     userID,
		Text:       text,
		RemindAt:   due,
		RepeatType: repeatType,
		Source:     source,
	}
	if err := s.store.Create(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	jobID := s.jobs.Arm(reminder.ReminderID, reminder.RemindAt)
	reminder.JobID = &jobID
	if err := s.store.SetJobID(ctx, reminder.ReminderID, &jobID); err != nil {
		s.logger.Warn("failed to persist job id", zap.Int("reminder_id", reminder.ReminderID), zap.Error(err))
	}

	s.logger.Info("reminder created",
		zap.Int("reminder_id", reminder.ReminderID),
		zap.Int64("user_id", userID),
		zap.Time("remind_at", reminder.RemindAt),
		zap.String("source", source))
	return reminder, nil
}

// Get returns one reminder, or repository.ErrNotFound.
func (s *Service) Get(ctx context.Context, reminderID int) (*models.Reminder, error) {
	return s.store.GetByID(ctx, reminderID)
}

// List returns all reminders of a user ordered by due time.
func (s *Service) List(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	return s.store.GetByUserID(ctx, userID)
}

// OnFire is the continuation after a delivery attempt. A recurring reminder
// advances to its next occurrence and re-arms before being considered
// settled; a one-shot reminder keeps its record with the job handle cleared
// so the user can still snooze or complete it.
func (s *Service) OnFire(ctx context.Context, reminderID int) error {
	defer s.lock(reminderID)()

	reminder, err := s.store.GetByID(ctx, reminderID)
	if errors.Is(err, repository.ErrNotFound) {
		// Deleted between fire and continuation: already resolved.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load fired reminder: %w", err)
	}

	if !reminder.IsRecurring() {
		if err := s.store.SetJobID(ctx, reminderID, nil); err != nil {
			return fmt.Errorf("failed to settle reminder: %w", err)
		}
		return nil
	}

	next := NextOccurrence(reminder.RemindAt, reminder.RepeatType)
	if err := s.store.UpdateSchedule(ctx, reminderID, next, nil); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to advance recurring reminder: %w", err)
	}

	s.jobs.Disarm(reminderID)
	jobID := s.jobs.Arm(reminderID, next)
	if err := s.store.SetJobID(ctx, reminderID, &jobID); err != nil {
		s.logger.Warn("failed to persist job id", zap.Int("reminder_id", reminderID), zap.Error(err))
	}
	s.logger.Info("recurring reminder advanced",
		zap.Int("reminder_id", reminderID),
		zap.Time("next", next))
	return nil
}

// Snooze moves a reminder forward: either now+delta, or the previous due
// time plus one day when toTomorrowSameTime is set. Returns false if the
// reminder no longer exists.
func (s *Service) Snooze(ctx context.Context, reminderID int, delta time.Duration, toTomorrowSameTime bool) (bool, error) {
	defer s.lock(reminderID)()

	reminder, err := s.store.GetByID(ctx, reminderID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load reminder: %w", err)
	}

	var newDue time.Time
	if toTomorrowSameTime {
		newDue = reminder.RemindAt.Add(24 * time.Hour)
	} else {
		newDue = s.now().Add(delta)
	}

	if err := s.store.UpdateSchedule(ctx, reminderID, newDue, nil); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to snooze reminder: %w", err)
	}

	s.jobs.Disarm(reminderID)
	jobID := s.jobs.Arm(reminderID, newDue)
	if err := s.store.SetJobID(ctx, reminderID, &jobID); err != nil {
		s.logger.Warn("failed to persist job id", zap.Int("reminder_id", reminderID), zap.Error(err))
	}

	s.logger.Info("reminder snoozed",
		zap.Int("reminder_id", reminderID),
		zap.Time("new_due", newDue))
	return true, nil
}

// Cancel disarms and deletes a reminder. Returns false if it was already
// gone; repeated cancellation is a no-op, not an error.
func (s *Service) Cancel(ctx context.Context, reminderID int) (bool, error) {
	defer s.lock(reminderID)()

	s.jobs.Disarm(reminderID)
	err := s.store.Delete(ctx, reminderID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete reminder: %w", err)
	}

	s.logger.Info("reminder cancelled", zap.Int("reminder_id", reminderID))
	return true, nil
}

// RestoreAll re-arms a timer for every persisted reminder still due in the
// future. Reminders already overdue at restart are left untouched: they show
// up on the user's next listing instead of producing a notification storm.
func (s *Service) RestoreAll(ctx context.Context) (int, error) {
	reminders, err := s.store.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load reminders for restore: %w", err)
	}

	now := s.now()
	restored := 0
	for _, reminder := range reminders {
		if !reminder.RemindAt.After(now) {
			continue
		}
		jobID := s.jobs.Arm(reminder.ReminderID, reminder.RemindAt)
		if err := s.store.SetJobID(ctx, reminder.ReminderID, &jobID); err != nil {
			s.logger.Warn("failed to persist restored job id",
				zap.Int("reminder_id", reminder.ReminderID), zap.Error(err))
		}
		restored++
	}

	if restored > 0 {
		s.logger.Info("restored jobs from store", zap.Int("count", restored))
	}
	return restored, nil
}

// NextOccurrence computes the next due time for a recurrence rule as a fixed
// offset from the previous due time, anchored so repeated fires do not drift:
// daily +24h, weekly +7d, monthly +30d.
func NextOccurrence(from time.Time, repeatType string) time.Time {
	switch repeatType {
	case models.RepeatDaily:
		return from.Add(24 * time.Hour)
	case models.RepeatWeekly:
		return from.Add(7 * 24 * time.Hour)
	case models.RepeatMonthly:
		return from.Add(30 * 24 * time.Hour)
	}
	return from
}
