package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/openhall/eventfront/internal/model"
)

// MemoryStore keeps sessions in process memory. It is the default store
// for single-instance deployments; a restart logs every visitor out.
// Sessions cross the store boundary as deep copies, so two in-flight
// requests for the same visitor never write to shared state.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore constructs a MemoryStore with the given session lifetime.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock replaces the store's time source. Test hook.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Create stores a fresh session for the user.
func (s *MemoryStore) Create(ctx context.Context, user model.User, cookies []*http.Cookie) (*Session, error) {
	sess := newSession(user, cookies, s.now(), s.ttl)
	s.mu.Lock()
	s.sessions[sess.ID] = sess.Clone()
	s.mu.Unlock()
	return sess, nil
}

// Get returns a live session or ErrNotFound. Expired entries are dropped
// on access rather than by a background sweeper.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Expired(s.now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

// Save overwrites the stored session. Unknown ids report ErrNotFound so a
// logged-out visitor cannot be resurrected by a late write.
func (s *MemoryStore) Save(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		return ErrNotFound
	}
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

// Delete removes the session. Deleting an absent id is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}
