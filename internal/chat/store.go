// Package chat keeps session-scoped conversation history for the dashboard
// chat panel. History lives in memory only; the event store records the
// round trips that matter for auditing.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role values for chat messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat bubble. Err marks replies that represent a failed
// round trip; the dashboard renders them inline instead of dropping them.
type Message struct {
	ID      string    `json:"id"`
	Role    string    `json:"role"`
	Content string    `json:"content"`
	HTML    string    `json:"html,omitempty"`
	Err     bool      `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// Session is an ordered conversation.
type Session struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
	Created  time.Time `json:"created"`
}

// Store holds sessions in memory with a per-session history cap.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	historyCap int
}

// NewStore creates a store. historyCap bounds messages kept per session;
// non-positive values fall back to 100.
func NewStore(historyCap int) *Store {
	if historyCap <= 0 {
		historyCap = 100
	}
	return &Store{
		sessions:   make(map[string]*Session),
		historyCap: historyCap,
	}
}

// NewSession creates an empty session and returns its ID.
func (s *Store) NewSession() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &Session{ID: id, Created: time.Now()}
	s.mu.Unlock()
	return id
}

// Append adds a message to a session, creating the session on first use so
// dashboard reloads with a stale session ID keep working. The oldest
// messages are evicted once the cap is reached.
func (s *Store) Append(sessionID string, msg Message) Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Time.IsZero() {
		msg.Time = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		session = &Session{ID: sessionID, Created: time.Now()}
		s.sessions[sessionID] = session
	}

	session.Messages = append(session.Messages, msg)
	if len(session.Messages) > s.historyCap {
		session.Messages = session.Messages[len(session.Messages)-s.historyCap:]
	}
	return msg
}

// History returns a copy of a session's messages, oldest first.
func (s *Store) History(sessionID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]Message, len(session.Messages))
	copy(out, session.Messages)
	return out
}

// Sessions returns the IDs of all known sessions.
func (s *Store) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}
