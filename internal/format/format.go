package format

import (
	"fmt"
	"strings"
	"time"

	"studybot/internal/models"
)

// CallbackData joins an action prefix with a reminder id.
func CallbackData(prefix string, reminderID int) string {
	return fmt.Sprintf("%s%d", prefix, reminderID)
}

// ReminderNotification renders the push message for a due reminder.
func ReminderNotification(reminder *models.Reminder, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("🔔 Напоминание\n\n")
	sb.WriteString(fmt.Sprintf("🕓 %s — время пришло!\n", now.Format("15:04")))
	sb.WriteString("💬 " + reminder.Text)
	if reminder.IsRecurring() {
		sb.WriteString("\n\n🔄 " + RepeatLabel(reminder.RepeatType))
	}
	return sb.String()
}

// RepeatLabel returns the human label for a recurrence rule.
func RepeatLabel(repeatType string) string {
	switch repeatType {
	case models.RepeatDaily:
		return "каждый день"
	case models.RepeatWeekly:
		return "каждую неделю"
	case models.RepeatMonthly:
		return "каждый месяц"
	}
	return "одноразовое"
}

// RemindAt renders a due time as "02.01 15:04".
func RemindAt(t time.Time) string {
	return t.Format("02.01 15:04")
}

// Until renders the remaining duration in compact chunks: "2д 3ч 10м".
func Until(due, now time.Time) string {
	d := due.Sub(now)
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	days := total / 86400
	hours := (total % 86400) / 3600
	mins := (total % 3600) / 60

	var chunks []string
	if days > 0 {
		chunks = append(chunks, fmt.Sprintf("%dд", days))
	}
	if hours > 0 {
		chunks = append(chunks, fmt.Sprintf("%dч", hours))
	}
	if mins > 0 {
		chunks = append(chunks, fmt.Sprintf("%dм", mins))
	}
	if len(chunks) == 0 {
		return "менее минуты"
	}
	return strings.Join(chunks, " ")
}
