package models

import "time"

// Repeat types for recurring reminders.
const (
	RepeatNone    = ""
	RepeatDaily   = "daily"
	RepeatWeekly  = "weekly"
	RepeatMonthly = "monthly"
)

// Reminder sources.
const (
	SourceManual   = "manual"
	SourceSyllabus = "syllabus"
)

type Reminder struct {
	ReminderID  int       `json:"reminder_id"`
	UserID      int64     `json:"user_id"`
	Text        string    `json:"text"`
	RemindAt    time.Time `json:"remind_at"` // always timezone-resolved
	JobID       *string   `json:"job_id"`    // armed scheduler job token, nil when no timer
	RepeatType  string    `json:"repeat_type"`
	RepeatValue string    `json:"repeat_value"` // reserved for rules needing a parameter
	Source      string    `json:"source"`       // manual / syllabus
	CreatedAt   time.Time `json:"created_at"`
}

// IsRecurring returns true if this reminder has a recurrence rule
func (r *Reminder) IsRecurring() bool {
	return r.RepeatType != RepeatNone
}
