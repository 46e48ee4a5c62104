// Package session holds the server-side record of each visitor: the
// authenticated user, the visitor's backend cookies, and the ephemeral set
// of event ids reserved during this visit.
//
// The browser carries only an opaque session id cookie; everything else
// lives in a Store. Stores have an explicit read/write/clear contract and
// the web layer is their single writer.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/openhall/eventfront/internal/model"
)

// CookieName is the browser cookie carrying the session id.
const CookieName = "evb_session"

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Session is one visitor's state. Reserved tracks event ids reserved during
// this visit; it is a local convenience, never authoritative. The backend
// owns the real reservation records.
type Session struct {
	ID             string
	User           model.User
	Reserved       map[int]bool
	BackendCookies []*http.Cookie
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// MarkReserved records a just-reserved event id.
func (s *Session) MarkReserved(eventID int) {
	if s.Reserved == nil {
		s.Reserved = make(map[int]bool)
	}
	s.Reserved[eventID] = true
}

// HasReserved reports whether the visitor already reserved the event in
// this session.
func (s *Session) HasReserved(eventID int) bool {
	return s.Reserved[eventID]
}

// Clone returns a deep copy. Stores hand out and keep copies so that
// concurrent requests for one visitor never share the Reserved map or the
// cookie slice; each request mutates its own view and writes it back with
// Save, last writer wins.
func (s *Session) Clone() *Session {
	c := *s
	c.Reserved = make(map[int]bool, len(s.Reserved))
	for id, v := range s.Reserved {
		c.Reserved[id] = v
	}
	c.BackendCookies = make([]*http.Cookie, len(s.BackendCookies))
	for i, ck := range s.BackendCookies {
		dup := *ck
		c.BackendCookies[i] = &dup
	}
	return &c
}

// Store persists sessions. Get never returns an expired session; it
// reports ErrNotFound instead. Sessions returned by Create and Get are
// private to the caller: concurrent requests each get their own copy and
// persist mutations through Save, last writer wins.
type Store interface {
	Create(ctx context.Context, user model.User, cookies []*http.Cookie) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
}

func newSession(user model.User, cookies []*http.Cookie, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:             uuid.New().String(),
		User:           user,
		Reserved:       make(map[int]bool),
		BackendCookies: cookies,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
	}
}
