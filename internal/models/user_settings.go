package models

import "time"

// UserSettings holds per-user preferences consumed by the time parser and the
// premium gate.
type UserSettings struct {
	UserID       int64      `json:"user_id"`
	Timezone     string     `json:"tz"`
	MorningTime  string     `json:"morning_time"` // HH:MM format
	MiddayTime   string     `json:"midday_time"`
	EveningTime  string     `json:"evening_time"`
	IsPremium    bool       `json:"is_premium"`
	PremiumUntil *time.Time `json:"premium_until"` // nil means no expiry
}

// NewDefaultUserSettings creates settings with default slot times
func NewDefaultUserSettings(userID int64, timezone string) *UserSettings {
	return &UserSettings{
		UserID:      userID,
		Timezone:    timezone,
		MorningTime: "09:00",
		MiddayTime:  "12:00",
		EveningTime: "19:00",
	}
}
