package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FireFunc is invoked when a job's due instant is reached.
type FireFunc func(ctx context.Context, reminderID int)

// DefaultClampDelay is the forward clamp applied to jobs armed with a due
// time already in the past: the timer still goes through the normal
// asynchronous firing path instead of firing inline.
const DefaultClampDelay = 10 * time.Second

type job struct {
	id         string
	reminderID int
	runAt      time.Time
	index      int
}

// Scheduler is an in-memory, time-ordered execution engine. One run loop
// waits on the earliest armed job; firing happens on separate goroutines.
// A reminder id has at most one armed job at any time, and near-simultaneous
// fire attempts for the same reminder coalesce into one delivery.
type Scheduler struct {
	logger     *zap.Logger
	fire       FireFunc
	clampDelay time.Duration
	now        func() time.Time

	mu       sync.Mutex
	queue    jobQueue
	byID     map[int]*job // reminder id -> armed job, O(1) disarm
	inflight map[int]bool
	seq      uint64
	wake     chan struct{}
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger:     logger,
		clampDelay: DefaultClampDelay,
		now:        time.Now,
		byID:       make(map[int]*job),
		inflight:   make(map[int]bool),
		wake:       make(chan struct{}, 1),
	}
}

// SetFireFunc sets the delivery callback. Must be called before Start.
func (s *Scheduler) SetFireFunc(fire FireFunc) {
	s.fire = fire
}

// Arm registers a one-shot timer for the reminder's due time and returns an
// opaque job token. A past or non-positive delay is clamped forward by a
// fixed small delay. Re-arming an already armed reminder replaces its timer.
func (s *Scheduler) Arm(reminderID int, runAt time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byID[reminderID]; ok {
		heap.Remove(&s.queue, existing.index)
		delete(s.byID, reminderID)
	}

	now := s.now()
	if !runAt.After(now) {
		runAt = now.Add(s.clampDelay)
	}

	s.seq++
	j := &job{
		id:         fmt.Sprintf("job-%d", s.seq),
		reminderID: reminderID,
		runAt:      runAt,
	}
	heap.Push(&s.queue, j)
	s.byID[reminderID] = j

	s.notify()
	s.logger.Debug("armed job",
		zap.String("job_id", j.id),
		zap.Int("reminder_id", reminderID),
		zap.Time("run_at", runAt))
	return j.id
}

// Disarm removes the armed timer for the reminder id, if any. Safe to call
// when no timer exists or the timer already fired.
func (s *Scheduler) Disarm(reminderID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.byID[reminderID]
	if !ok {
		return
	}
	heap.Remove(&s.queue, j.index)
	delete(s.byID, reminderID)
	s.notify()
	s.logger.Debug("disarmed job", zap.String("job_id", j.id), zap.Int("reminder_id", reminderID))
}

// Armed reports whether a timer is currently armed for the reminder id.
func (s *Scheduler) Armed(reminderID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[reminderID]
	return ok
}

// ArmedCount returns the number of currently armed timers.
func (s *Scheduler) ArmedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Start runs the firing loop until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started")
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.fireDue(ctx)

		wait := time.Hour
		s.mu.Lock()
		if len(s.queue) > 0 {
			wait = time.Until(s.queue[0].runAt)
			if wait < 0 {
				wait = 0
			}
		}
		s.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-timer.C:
		case <-s.wake:
		}
	}
}

// fireDue pops every job whose due time has passed and fires it. Jobs that
// missed their instant (the process was busy or suspended) still fire once
// capacity is available.
func (s *Scheduler) fireDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*job
	for len(s.queue) > 0 && !s.queue[0].runAt.After(now) {
		j := heap.Pop(&s.queue).(*job)
		delete(s.byID, j.reminderID)
		if s.inflight[j.reminderID] {
			// Duplicate fire attempt for an already running job: coalesce.
			continue
		}
		s.inflight[j.reminderID] = true
		due = append(due, j)
	}
	s.mu.Unlock()

	for _, j := range due {
		go func(j *job) {
			defer func() {
				s.mu.Lock()
				delete(s.inflight, j.reminderID)
				s.mu.Unlock()
			}()
			s.logger.Info("firing job",
				zap.String("job_id", j.id),
				zap.Int("reminder_id", j.reminderID))
			s.fire(ctx, j.reminderID)
		}(j)
	}
}

// jobQueue is a min-heap ordered by due time.
type jobQueue []*job

func (q jobQueue) Len() int            { return len(q) }
func (q jobQueue) Less(i, j int) bool  { return q[i].runAt.Before(q[j].runAt) }
func (q jobQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *jobQueue) Push(x interface{}) { j := x.(*job); j.index = len(*q); *q = append(*q, j) }
func (q *jobQueue) Pop() interface{} {
	old := *q
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return j
}
