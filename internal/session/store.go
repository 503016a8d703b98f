package session

import (
	"errors"
	"sync"
)

var (
	// ErrUnknownSession is returned when the user never greeted the bot.
	ErrUnknownSession = errors.New("session: unknown session")
	// ErrDuplicateSession is returned by Create when a session already exists.
	ErrDuplicateSession = errors.New("session: duplicate session")
	// ErrInvalidSession is returned when a mutation would break a session invariant.
	ErrInvalidSession = errors.New("session: invalid session")
)

// Mutator changes a session in place. Returning an error discards the change.
type Mutator func(s *Session) error

// Store holds one session per user.
type Store interface {
	Create(userID int64) (Session, error)
	Get(userID int64) (Session, error)
	Update(userID int64, mutate Mutator) (Session, error)
	Len() int
}

type entry struct {
	mu      sync.Mutex
	session Session
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*entry
}

// NewMemoryStore constructs an in-memory Store scoped to the process lifetime.
func NewMemoryStore() Store {
	return &memoryStore{
		sessions: make(map[int64]*entry),
	}
}

// Create inserts a session with default fields.
func (m *memoryStore) Create(userID int64) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[userID]; exists {
		return Session{}, ErrDuplicateSession
	}
	s := New(userID)
	m.sessions[userID] = &entry{session: s}
	return s, nil
}

// Get returns a snapshot of the user's session.
func (m *memoryStore) Get(userID int64) (Session, error) {
	e, ok := m.lookup(userID)
	if !ok {
		return Session{}, ErrUnknownSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session, nil
}

// Update applies mutate to a copy of the session and commits it only when
// mutate succeeds and the result is valid. Updates for one user are serialized.
func (m *memoryStore) Update(userID int64, mutate Mutator) (Session, error) {
	e, ok := m.lookup(userID)
	if !ok {
		return Session{}, ErrUnknownSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.session
	if mutate != nil {
		if err := mutate(&next); err != nil {
			return e.session, err
		}
	}
	next.UserID = e.session.UserID
	if err := next.validate(); err != nil {
		return e.session, err
	}
	e.session = next
	return next, nil
}

// Len reports the number of sessions.
func (m *memoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *memoryStore) lookup(userID int64) (*entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[userID]
	return e, ok
}
