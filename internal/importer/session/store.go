package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps import sessions in memory. Sessions are bound to a single
// server process and expire after a TTL; a restart loses them, which only
// costs the user a re-upload.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
	}
}

func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.sessions[s.ID] = s
}

// Get returns the live session owned by userID. Expired and closed sessions
// are dropped on access; there is no background sweeper.
func (st *Store) Get(id, userID uuid.UUID) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok || s.UserID != userID {
		return nil, ErrNotFound
	}

	if s.isClosed() || time.Since(s.CreatedAt) > st.ttl {
		delete(st.sessions, id)
		return nil, ErrNotFound
	}

	return s, nil
}

// Remove drops a session. Removing an unknown ID is a no-op, which keeps
// session close idempotent.
func (st *Store) Remove(id uuid.UUID) {
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.sessions, id)
}
