package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"studybot/internal/database"
	"studybot/internal/models"
)

// ErrNotFound is returned when a row the caller referenced no longer exists.
var ErrNotFound = errors.New("not found")

type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO reminders (user_id, text, remind_at, job_id, repeat_type, repeat_value, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING reminder_id, created_at`,
		reminder.UserID, reminder.Text, reminder.RemindAt, reminder.JobID,
		reminder.RepeatType, reminder.RepeatValue, reminder.Source,
	).Scan(&reminder.ReminderID, &reminder.CreatedAt)
}

func (r *ReminderRepository) GetByID(ctx context.Context, reminderID int) (*models.Reminder, error) {
	reminder := &models.Reminder{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT reminder_id, user_id, text, remind_at, job_id, repeat_type, repeat_value, source, created_at
		 FROM reminders WHERE reminder_id = $1`,
		reminderID,
	).Scan(&reminder.ReminderID, &reminder.UserID, &reminder.Text, &reminder.RemindAt,
		&reminder.JobID, &reminder.RepeatType, &reminder.RepeatValue, &reminder.Source, &reminder.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return reminder, nil
}

func (r *ReminderRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT reminder_id, user_id, text, remind_at, job_id, repeat_type, repeat_value, source, created_at
		 FROM reminders WHERE user_id = $1 ORDER BY remind_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

// GetAll returns every reminder in the store. Used for restart recovery.
func (r *ReminderRepository) GetAll(ctx context.Context) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT reminder_id, user_id, text, remind_at, job_id, repeat_type, repeat_value, source, created_at
		 FROM reminders ORDER BY remind_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *ReminderRepository) UpdateSchedule(ctx context.Context, reminderID int, remindAt time.Time, jobID *string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET remind_at = $1, job_id = $2 WHERE reminder_id = $3`,
		remindAt, jobID, reminderID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReminderRepository) SetJobID(ctx context.Context, reminderID int, jobID *string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET job_id = $1 WHERE reminder_id = $2`,
		jobID, reminderID,
	)
	return err
}

func (r *ReminderRepository) Delete(ctx context.Context, reminderID int) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM reminders WHERE reminder_id = $1`,
		reminderID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReminders(rows pgx.Rows) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	for rows.Next() {
		reminder := &models.Reminder{}
		if err := rows.Scan(&reminder.ReminderID, &reminder.UserID, &reminder.Text, &reminder.RemindAt,
			&reminder.JobID, &reminder.RepeatType, &reminder.RepeatValue, &reminder.Source, &reminder.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}
