package reminders

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"studybot/internal/models"
	"studybot/internal/repository"
)

type fakeStore struct {
	nextID    int
	reminders map[int]*models.Reminder
}

func newFakeStore() *fakeStore {
	return &fakeStore{reminders: make(map[int]*models.Reminder)}
}

func (f *fakeStore) Create(ctx context.Context, r *models.Reminder) error {
	f.nextID++
	r.ReminderID = f.nextID
	r.CreatedAt = time.Now()
	cp := *r
	f.reminders[r.ReminderID] = &cp
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int) (*models.Reminder, error) {
	r, ok := f.reminders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) GetByUserID(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	var out []*models.Reminder
	for _, r := range f.reminders {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) GetAll(ctx context.Context) ([]*models.Reminder, error) {
	var out []*models.Reminder
	for _, r := range f.reminders {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeStore) UpdateSchedule(ctx context.Context, id int, remindAt time.Time, jobID *string) error {
	r, ok := f.reminders[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.RemindAt = remindAt
	r.JobID = jobID
	return nil
}

func (f *fakeStore) SetJobID(ctx context.Context, id int, jobID *string) error {
	r, ok := f.reminders[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.JobID = jobID
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id int) error {
	if _, ok := f.reminders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.reminders, id)
	return nil
}

type fakeJobs struct {
	armed map[int]time.Time
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{armed: make(map[int]time.Time)}
}

func (f *fakeJobs) Arm(reminderID int, runAt time.Time) string {
	f.armed[reminderID] = runAt
	return "job-test"
}

func (f *fakeJobs) Disarm(reminderID int) {
	delete(f.armed, reminderID)
}

func newTestService(store *fakeStore, jobs *fakeJobs, now time.Time) *Service {
	svc := NewService(store, jobs, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreatePersistsThenArms(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	jobs := newFakeJobs()
	now := time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)
	svc := newTestService(store, jobs, now)

	due := now.Add(time.Hour)
	r, err := svc.Create(ctx, 42, "сдать отчёт", due, models.RepeatNone, models.SourceManual)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if r.ReminderID == 0 {
		t.Fatal("reminder was not assigned an id")
	}
	if runAt, ok := jobs.armed[r.ReminderID]; !ok || !runAt.Equal(due) {
		t.Errorf("armed at %v, want %v", runAt, due)
	}
	if r.JobID == nil {
		t.Error("job id not set on created reminder")
	}

	stored, err := store.GetByID(ctx, r.ReminderID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if stored.JobID == nil {
		t.Error("job id not persisted")
	}
}

func TestCreateClampsPastDue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	jobs := newFakeJobs()
	now := time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)
	svc := newTestService(store, jobs, now)

	r, err := svc.Create(ctx, 42, "уже поздно", now.Add(-time.Hour), models.RepeatNone, models.SourceManual)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !r.RemindAt.After(now) {
		t.Errorf("past due time not clamped forward: %v", r.RemindAt)
	}
}

func TestOnFireOneShotSettles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	jobs := newFakeJobs()
	now := time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)
	svc := newTestService(store, jobs, now)

	r, _ := svc.Create(ctx, 42, "одноразовое", now.Add(time.Hour), models.RepeatNone, models.SourceManual)
	if err := svc.OnFire(ctx, r.ReminderID); err != nil {
		t.Fatalf("OnFire returned error: %v", err)
	}

	// Record survives with the job handle cleared.
	stored, err := store.GetByID(ctx, r.ReminderID)
	if err != nil {
		t.Fatalf("reminder deleted after one-shot fire: %v", err)
	}
	if stored.JobID != nil {
		t.Errorf("job id not cleared, got %q", *stored.JobID)
	}
}

func TestOnFireRecurringAdvances(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	jobs := newFakeJobs()
	now := time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)
	svc := newTestService(store, jobs, now)

	due := now.Add(time.Hour)
	r, _ := svc.Create(ctx, 42, "ежедневное", due, models.RepeatDaily, models.SourceManual)
	if err := svc.OnFire(ctx, r.ReminderID); err != nil {
		t.Fatalf("OnFire returned error: %v", err)
	}

	want := due.Add(24 * time.Hour)
	stored, _ := store.GetByID(ctx, r.ReminderID)
	if !stored.RemindAt.Equal(want) {
		t.Errorf("RemindAt = %v, want %v", stored.RemindAt, want)
	}
	if runAt := jobs.armed[r.ReminderID]; !runAt.Equal(want) {
		t.Errorf("re-armed at %v, want %v", runAt, want)
	}
}

func TestOnFireMissingReminderIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(newFakeStore(), newFakeJobs(), time.Now())
	if err := svc.OnFire(ctx, 999); err != nil {
		t.Fatalf("OnFire on missing reminder returned error: %v", err)
	}
}

func TestSnooze(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	jobs := newFakeJobs()
	now := time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)
	svc := newTestService(store, jobs, now)

	due := now.Add(time.Hour)
	r, _ := svc.Create(ctx, 42, "отложи меня", due, models.RepeatNone, models.SourceManual)

	ok, err := svc.Snooze(ctx, r.ReminderID, 10*time.Minute, false)
	if err != nil || !ok {
		t.Fatalf("Snooze = (%v, %v), want (true, nil)", ok, err)
	}
	stored, _ := store.GetByID(ctx, r.ReminderID)
	if want := now.Add(10 * time.Minute); !stored.RemindAt.Equal(want) {
		t.Errorf("RemindAt = %v, want %v", stored.RemindAt, want)
	}

	// Tomorrow-same-time anchors on the previous due time, not on now.
	ok, err = svc.Snooze(ctx, r.ReminderID, 0, true)
	if err != nil || !ok {
		t.Fatalf("Snooze = (%v, %v), want (true, nil)", ok, err)
	}
	stored, _ = store.GetByID(ctx, r.ReminderID)
	if want := now.Add(10*time.Minute + 24*time.Hour); !stored.RemindAt.Equal(want) {
		t.Errorf("RemindAt = %v, want %v", stored.RemindAt, want)
	}

	// A snoozed reminder still holds exactly one armed timer.
	if len(jobs.armed) != 1 {
		t.Errorf("armed timers = %d, want 1", len(jobs.armed))
	}
}

func TestSnoozeMissingReminder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(newFakeStore(), newFakeJobs(), time.Now())
	ok, err := svc.Snooze(ctx, 999, 10*time.Minute, false)
	if err != nil {
		t.Fatalf("Snooze returned error: %v", err)
	}
	if ok {
		t.Error("Snooze on missing reminder reported success")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	jobs := newFakeJobs()
	now := time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)
	svc := newTestService(store, jobs, now)

	r, _ := svc.Create(ctx, 42, "удали меня", now.Add(time.Hour), models.RepeatNone, models.SourceManual)

	ok, err := svc.Cancel(ctx, r.ReminderID)
	if err != nil || !ok {
		t.Fatalf("Cancel = (%v, %v), want (true, nil)", ok, err)
	}
	if len(jobs.armed) != 0 {
		t.Error("timer still armed after cancel")
	}

	ok, err = svc.Cancel(ctx, r.ReminderID)
	if err != nil {
		t.Fatalf("second Cancel returned error: %v", err)
	}
	if ok {
		t.Error("second Cancel reported success")
	}
}

func TestRestoreAllArmsOnlyFuture(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeStore()
	now := time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)

	past := &models.Reminder{UserID: 1, Text: "прошлое", RemindAt: now.Add(-time.Hour)}
	future := &models.Reminder{UserID: 1, Text: "будущее", RemindAt: now.Add(time.Hour)}
	store.Create(ctx, past)
	store.Create(ctx, future)

	jobs := newFakeJobs()
	svc := newTestService(store, jobs, now)

	restored, err := svc.RestoreAll(ctx)
	if err != nil {
		t.Fatalf("RestoreAll returned error: %v", err)
	}
	if restored != 1 {
		t.Errorf("restored = %d, want 1", restored)
	}
	if _, ok := jobs.armed[future.ReminderID]; !ok {
		t.Error("future reminder not re-armed")
	}
	if _, ok := jobs.armed[past.ReminderID]; ok {
		t.Error("overdue reminder re-armed at restore")
	}
}

func TestNextOccurrence(t *testing.T) {
	t.Parallel()
	from := time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		repeat string
		want   time.Time
	}{
		{models.RepeatDaily, from.Add(24 * time.Hour)},
		{models.RepeatWeekly, from.Add(7 * 24 * time.Hour)},
		{models.RepeatMonthly, from.Add(30 * 24 * time.Hour)},
		{models.RepeatNone, from},
	}
	for _, tt := range tests {
		if got := NextOccurrence(from, tt.repeat); !got.Equal(tt.want) {
			t.Errorf("NextOccurrence(%q) = %v, want %v", tt.repeat, got, tt.want)
		}
	}
}
