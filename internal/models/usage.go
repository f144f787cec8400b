package models

import "time"

// UserUsage tracks per-user rolling quota counters. Each counter has its own
// reset window and is reset lazily the first time it is checked after the
// window elapses.
type UserUsage struct {
	UserID             int64     `json:"user_id"`
	QueryCount         int       `json:"query_count"`
	ReminderCount      int       `json:"reminder_count"`
	LastResetQueries   time.Time `json:"last_reset_queries"`
	LastResetReminders time.Time `json:"last_reset_reminders"`
}
