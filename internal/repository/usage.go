package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"studybot/internal/database"
	"studybot/internal/models"
)

type UsageRepository struct {
	db *database.DB
}

func NewUsageRepository(db *database.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) GetOrCreate(ctx context.Context, userID int64) (*models.UserUsage, error) {
	usage := &models.UserUsage{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT user_id, query_count, reminder_count, last_reset_queries, last_reset_reminders
		 FROM user_usage WHERE user_id = $1`,
		userID,
	).Scan(&usage.UserID, &usage.QueryCount, &usage.ReminderCount,
		&usage.LastResetQueries, &usage.LastResetReminders)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.create(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return usage, nil
}

func (r *UsageRepository) create(ctx context.Context, userID int64) (*models.UserUsage, error) {
	usage := &models.UserUsage{UserID: userID}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO user_usage (user_id)
		 VALUES ($1)
		 ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING user_id, query_count, reminder_count, last_reset_queries, last_reset_reminders`,
		userID,
	).Scan(&usage.UserID, &usage.QueryCount, &usage.ReminderCount,
		&usage.LastResetQueries, &usage.LastResetReminders)
	if err != nil {
		return nil, err
	}
	return usage, nil
}

func (r *UsageRepository) Update(ctx context.Context, usage *models.UserUsage) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE user_usage
		 SET query_count = $1, reminder_count = $2, last_reset_queries = $3, last_reset_reminders = $4
		 WHERE user_id = $5`,
		usage.QueryCount, usage.ReminderCount, usage.LastResetQueries, usage.LastResetReminders, usage.UserID,
	)
	return err
}
