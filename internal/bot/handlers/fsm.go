package handlers

import (
	"sync"
	"time"

	"studybot/internal/syllabus"
)

// pendingKind is the typed "awaiting X" state of a user's conversation.
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingReminderTime  // user was asked when to remind
	pendingReminderText  // user was asked what to remind
	pendingSettingsValue // user was asked for a settings value
)

type userState struct {
	kind          pendingKind
	remindAt      time.Time           // set while pendingReminderText
	settingsField string              // set while pendingSettingsValue
	deadlines     []syllabus.Deadline // parsed document events awaiting confirmation
}

// stateStore is the per-user conversation state machine.
type stateStore struct {
	mu     sync.Mutex
	states map[int64]*userState
}

func newStateStore() *stateStore {
	return &stateStore{states: make(map[int64]*userState)}
}

func (s *stateStore) get(userID int64) userState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[userID]; ok {
		return *st
	}
	return userState{}
}

func (s *stateStore) set(userID int64, st userState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = &st
}

func (s *stateStore) clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}

// takeDeadlines returns and clears any pending document deadlines.
func (s *stateStore) takeDeadlines(userID int64) []syllabus.Deadline {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[userID]
	if !ok || len(st.deadlines) == 0 {
		return nil
	}
	deadlines := st.deadlines
	st.deadlines = nil
	return deadlines
}
