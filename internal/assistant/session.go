package assistant

import (
	"fmt"
	"sync"
	"time"

	"maitred/internal/models"

	"github.com/google/uuid"
)

// historyLimit bounds the per-session chat history.
const historyLimit = 50

// Turn is one message in a conversation.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session carries the conversational state for one customer conversation.
// It replaces ambient UI state: every core call that needs the customer
// name or a pending parse receives the session explicitly. The manager
// hands out snapshot copies only; the live state is mutated exclusively
// under the manager's lock.
type Session struct {
	ID           string              `json:"id"`
	CustomerName string              `json:"customer_name"`
	History      []Turn              `json:"history"`
	Pending      *models.ParsedOrder `json:"pending,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// snapshot copies the session so readers never share mutable state with
// the manager. ParsedOrder contents are immutable after extraction, so the
// pending parse is copied one level deep.
func (s *Session) snapshot() Session {
	out := *s
	out.History = append([]Turn(nil), s.History...)
	if s.Pending != nil {
		pending := *s.Pending
		out.Pending = &pending
	}
	return out
}

// SessionManager owns session lifecycle keyed by conversation id.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Create starts a session for a named customer and returns a snapshot of it.
func (m *SessionManager) Create(customerName string) Session {
	now := time.Now()
	s := &Session{
		ID:           uuid.New().String(),
		CustomerName: customerName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s.snapshot()
}

// Get returns a snapshot of the session with the given id, or
// models.ErrNotFound.
func (m *SessionManager) Get(id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	return s.snapshot(), nil
}

// Destroy ends a session. Destroying an unknown id is not an error.
func (m *SessionManager) Destroy(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// AppendTurn records a message on the session, trimming old history.
func (m *SessionManager) AppendTurn(id, role, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	s.History = append(s.History, Turn{Role: role, Content: content, At: time.Now()})
	if len(s.History) > historyLimit {
		s.History = s.History[len(s.History)-historyLimit:]
	}
	s.UpdatedAt = time.Now()
	return nil
}

// SetPending stores or clears the parse awaiting the customer's
// confirmation.
func (m *SessionManager) SetPending(id string, parsed *models.ParsedOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	s.Pending = parsed
	s.UpdatedAt = time.Now()
	return nil
}
