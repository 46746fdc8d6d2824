package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store keeps sessions in memory, bounded by count and idle time.
type Store struct {
	sessions *expirable.LRU[string, *Session]
	system   string
}

// NewStore builds a store holding at most capacity sessions, each dropped
// after ttl without access.
func NewStore(capacity int, ttl time.Duration, systemPrompt string) *Store {
	if capacity <= 0 {
		capacity = 1024
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Store{
		sessions: expirable.NewLRU[string, *Session](capacity, nil, ttl),
		system:   systemPrompt,
	}
}

// Get returns the session and refreshes its idle timer.
func (s *Store) Get(id string) (*Session, bool) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	s.sessions.Add(id, sess)
	return sess, true
}

// Create starts a new session under a random UUID.
func (s *Store) Create() *Session {
	sess := NewSession(uuid.NewString(), s.system)
	s.sessions.Add(sess.ID, sess)
	return sess
}

// Open returns the session for id, creating one when id is not a valid UUID
// or is unknown.
func (s *Store) Open(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err == nil {
		if sess, ok := s.Get(id); ok {
			return sess, false
		}
	}
	return s.Create(), true
}

// Len reports live sessions.
func (s *Store) Len() int { return s.sessions.Len() }

// Purge drops every session.
func (s *Store) Purge() { s.sessions.Purge() }
