package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"studybot/internal/models"
	"studybot/internal/repository"
)

type fakeNotifier struct {
	err   error
	sent  int
	last  string
	chats []int64
}

func (f *fakeNotifier) Send(ctx context.Context, userID int64, text string, actions []Action) error {
	f.sent++
	f.last = text
	f.chats = append(f.chats, userID)
	return f.err
}

type fakeReminders struct {
	reminder *models.Reminder

	onFired     []int
	snoozed     []time.Duration
	tomorrow    bool
	cancelled   []int
	snoozeOK    bool
	cancelOK    bool
	onFireError error
}

func (f *fakeReminders) Get(ctx context.Context, reminderID int) (*models.Reminder, error) {
	if f.reminder == nil || f.reminder.ReminderID != reminderID {
		return nil, repository.ErrNotFound
	}
	return f.reminder, nil
}

func (f *fakeReminders) OnFire(ctx context.Context, reminderID int) error {
	f.onFired = append(f.onFired, reminderID)
	return f.onFireError
}

func (f *fakeReminders) Snooze(ctx context.Context, reminderID int, delta time.Duration, toTomorrowSameTime bool) (bool, error) {
	f.snoozed = append(f.snoozed, delta)
	f.tomorrow = toTomorrowSameTime
	return f.snoozeOK, nil
}

func (f *fakeReminders) Cancel(ctx context.Context, reminderID int) (bool, error) {
	f.cancelled = append(f.cancelled, reminderID)
	return f.cancelOK, nil
}

func TestOnDueNotifiesAndRunsContinuation(t *testing.T) {
	t.Parallel()
	notifier := &fakeNotifier{}
	rems := &fakeReminders{reminder: &models.Reminder{ReminderID: 1, UserID: 42, Text: "сдать отчёт"}}
	h := New(notifier, rems, zap.NewNop())

	h.OnDue(context.Background(), 1)

	if notifier.sent != 1 {
		t.Fatalf("notifier called %d times, want 1", notifier.sent)
	}
	if notifier.chats[0] != 42 {
		t.Errorf("notified user %d, want 42", notifier.chats[0])
	}
	if len(rems.onFired) != 1 || rems.onFired[0] != 1 {
		t.Errorf("OnFire calls = %v, want [1]", rems.onFired)
	}
}

func TestOnDueNotifierFailureDoesNotBlockContinuation(t *testing.T) {
	t.Parallel()
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	rems := &fakeReminders{reminder: &models.Reminder{ReminderID: 1, UserID: 42, Text: "сдать отчёт"}}
	h := New(notifier, rems, zap.NewNop())

	h.OnDue(context.Background(), 1)

	if len(rems.onFired) != 1 {
		t.Error("OnFire skipped after notifier failure")
	}
}

func TestOnDueMissingReminder(t *testing.T) {
	t.Parallel()
	notifier := &fakeNotifier{}
	rems := &fakeReminders{}
	h := New(notifier, rems, zap.NewNop())

	h.OnDue(context.Background(), 99)

	if notifier.sent != 0 {
		t.Error("notified about a missing reminder")
	}
	if len(rems.onFired) != 0 {
		t.Error("ran continuation for a missing reminder")
	}
}

func TestSnoozeKinds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		kind         string
		wantDelta    time.Duration
		wantTomorrow bool
	}{
		{"10m", 10 * time.Minute, false},
		{"1h", time.Hour, false},
		{"tomorrow", 0, true},
	}
	for _, tt := range tests {
		rems := &fakeReminders{snoozeOK: true}
		h := New(&fakeNotifier{}, rems, zap.NewNop())

		if !h.Snooze(context.Background(), 1, tt.kind) {
			t.Errorf("Snooze(%q) = false, want true", tt.kind)
		}
		if len(rems.snoozed) != 1 || rems.snoozed[0] != tt.wantDelta {
			t.Errorf("Snooze(%q) delta = %v, want %v", tt.kind, rems.snoozed, tt.wantDelta)
		}
		if rems.tomorrow != tt.wantTomorrow {
			t.Errorf("Snooze(%q) tomorrow = %v, want %v", tt.kind, rems.tomorrow, tt.wantTomorrow)
		}
	}
}

func TestSnoozeUnknownKind(t *testing.T) {
	t.Parallel()
	rems := &fakeReminders{snoozeOK: true}
	h := New(&fakeNotifier{}, rems, zap.NewNop())

	if h.Snooze(context.Background(), 1, "never") {
		t.Error("unknown snooze kind accepted")
	}
	if len(rems.snoozed) != 0 {
		t.Error("unknown snooze kind reached the service")
	}
}

func TestDone(t *testing.T) {
	t.Parallel()
	rems := &fakeReminders{cancelOK: true}
	h := New(&fakeNotifier{}, rems, zap.NewNop())

	if !h.Done(context.Background(), 7) {
		t.Error("Done = false, want true")
	}
	if len(rems.cancelled) != 1 || rems.cancelled[0] != 7 {
		t.Errorf("Cancel calls = %v, want [7]", rems.cancelled)
	}
}

func TestReminderActions(t *testing.T) {
	t.Parallel()
	actions := ReminderActions(12)
	if len(actions) != 4 {
		t.Fatalf("got %d actions, want 4", len(actions))
	}
	wantData := []string{"snooze_10m_12", "snooze_1h_12", "snooze_tomorrow_12", "done_12"}
	for i, want := range wantData {
		if actions[i].Data != want {
			t.Errorf("action %d data = %q, want %q", i, actions[i].Data, want)
		}
	}
}
