// Package session tracks per-chat conversation state: which prompt the bot
// is waiting on and the partial input collected so far.
package session

import (
	"sync"
	"time"
)

// State is the conversation step a chat is currently in.
type State string

// Conversation states.
const (
	StateIdle               State = "idle"
	StateAwaitingEnrollment State = "awaiting_enrollment"
	StateAwaitingProgram    State = "awaiting_program"
	StateAwaitingScreenshot State = "awaiting_screenshot"
)

// Session is one chat's in-flight conversation. Fields accumulate as the
// user answers prompts and are consumed when the flow completes.
type Session struct {
	ChatID     int64
	State      State
	QueryKind  string // Which portal report the enrollment prompt is for
	Enrollment string
	OrderID    string // Pending order awaiting a payment screenshot
	UpdatedAt  time.Time
}

// Manager holds sessions in memory. Sessions idle longer than the timeout
// are removed by Sweep; state is deliberately not persisted, a restart
// simply re-prompts.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[int64]*Session
	idleTimeout time.Duration
}

// NewManager creates a session manager. idleTimeout bounds how long an
// unanswered prompt stays live.
func NewManager(idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[int64]*Session),
		idleTimeout: idleTimeout,
	}
}

// Get returns the chat's session, or an idle one if none exists.
// The returned value is a copy; mutate through Set/Clear.
func (m *Manager) Get(chatID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.sessions[chatID]; ok {
		return *s
	}
	return Session{ChatID: chatID, State: StateIdle}
}

// Set stores the chat's session, stamping the update time.
func (m *Manager) Set(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.UpdatedAt = time.Now()
	m.sessions[s.ChatID] = &s
}

// Clear drops the chat's session, returning it to idle.
func (m *Manager) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}

// Sweep removes sessions idle past the timeout and returns how many went.
func (m *Manager) Sweep() int {
	cutoff := time.Now().Add(-m.idleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for chatID, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, chatID)
			removed++
		}
	}
	return removed
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RunSweeper sweeps on the given interval until stop is closed.
func (m *Manager) RunSweeper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
