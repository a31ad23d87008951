package quiz

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionOpen is returned when a quiz already has a live session.
var ErrSessionOpen = errors.New("a session for this quiz is already open")

// Manager tracks live sessions. At most one session may be open per quiz,
// which keeps the one-active-attempt-per-quiz invariant enforceable from
// the exposed interface.
type Manager struct {
	mu       sync.Mutex
	api      AttemptAPI
	opts     []Option
	sessions map[string]*Session // session id -> session
	byQuiz   map[string]string   // quiz id -> session id
}

func NewManager(api AttemptAPI, opts ...Option) *Manager {
	return &Manager{
		api:      api,
		opts:     opts,
		sessions: map[string]*Session{},
		byQuiz:   map[string]string{},
	}
}

// Open creates a session for quizID. extra options are applied after the
// manager defaults, so callers can attach a per-open completion callback.
func (m *Manager) Open(ctx context.Context, quizID string, extra ...Option) (*Session, error) {
	m.mu.Lock()
	if sid, ok := m.byQuiz[quizID]; ok {
		if sid == "" {
			// Another open for this quiz is in flight.
			m.mu.Unlock()
			return nil, ErrSessionOpen
		}
		if sess, live := m.sessions[sid]; live && sess.Snapshot().Phase != PhaseClosed {
			m.mu.Unlock()
			return nil, ErrSessionOpen
		}
		delete(m.sessions, sid)
		delete(m.byQuiz, quizID)
	}
	// Reserve the slot while the open is in flight.
	m.byQuiz[quizID] = ""
	m.mu.Unlock()

	opts := append(append([]Option(nil), m.opts...), extra...)
	sess, err := Open(ctx, m.api, quizID, opts...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		if m.byQuiz[quizID] == "" {
			delete(m.byQuiz, quizID)
		}
		return nil, err
	}
	m.sessions[sess.ID()] = sess
	m.byQuiz[quizID] = sess.ID()
	return sess, nil
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// Close tears the session down and releases its quiz slot.
func (m *Manager) Close(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
		if m.byQuiz[s.QuizID()] == sessionID {
			delete(m.byQuiz, s.QuizID())
		}
	}
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}
