package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"studybot/internal/database"
	"studybot/internal/models"
)

type UserSettingsRepository struct {
	db              *database.DB
	defaultTimezone string
}

func NewUserSettingsRepository(db *database.DB, defaultTimezone string) *UserSettingsRepository {
	return &UserSettingsRepository{db: db, defaultTimezone: defaultTimezone}
}

func (r *UserSettingsRepository) GetOrCreate(ctx context.Context, userID int64) (*models.UserSettings, error) {
	settings := &models.UserSettings{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT user_id, tz, morning_time, midday_time, evening_time, is_premium, premium_until
		 FROM user_settings WHERE user_id = $1`,
		userID,
	).Scan(&settings.UserID, &settings.Timezone, &settings.MorningTime, &settings.MiddayTime,
		&settings.EveningTime, &settings.IsPremium, &settings.PremiumUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.create(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *UserSettingsRepository) create(ctx context.Context, userID int64) (*models.UserSettings, error) {
	settings := models.NewDefaultUserSettings(userID, r.defaultTimezone)
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO user_settings (user_id, tz, morning_time, midday_time, evening_time)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO NOTHING`,
		settings.UserID, settings.Timezone, settings.MorningTime, settings.MiddayTime, settings.EveningTime,
	)
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *UserSettingsRepository) Update(ctx context.Context, settings *models.UserSettings) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE user_settings
		 SET tz = $1, morning_time = $2, midday_time = $3, evening_time = $4, is_premium = $5, premium_until = $6
		 WHERE user_id = $7`,
		settings.Timezone, settings.MorningTime, settings.MiddayTime, settings.EveningTime,
		settings.IsPremium, settings.PremiumUntil, settings.UserID,
	)
	return err
}

func (r *UserSettingsRepository) SetPremium(ctx context.Context, userID int64, until *time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO user_settings (user_id, is_premium, premium_until)
		 VALUES ($1, TRUE, $2)
		 ON CONFLICT (user_id) DO UPDATE SET is_premium = TRUE, premium_until = $2`,
		userID, until,
	)
	return err
}

// GetExpiredPremium returns premium users whose expiry has passed.
func (r *UserSettingsRepository) GetExpiredPremium(ctx context.Context, now time.Time) ([]*models.UserSettings, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT user_id, tz, morning_time, midday_time, evening_time, is_premium, premium_until
		 FROM user_settings
		 WHERE is_premium = TRUE AND premium_until IS NOT NULL AND premium_until < $1`,
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.UserSettings
	for rows.Next() {
		settings := &models.UserSettings{}
		if err := rows.Scan(&settings.UserID, &settings.Timezone, &settings.MorningTime, &settings.MiddayTime,
			&settings.EveningTime, &settings.IsPremium, &settings.PremiumUntil); err != nil {
			return nil, err
		}
		users = append(users, settings)
	}
	return users, rows.Err()
}

func (r *UserSettingsRepository) ClearPremium(ctx context.Context, userID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE user_settings SET is_premium = FALSE, premium_until = NULL WHERE user_id = $1`,
		userID,
	)
	return err
}
