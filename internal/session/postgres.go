package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openhall/eventfront/internal/model"
)

// PGStore persists sessions in PostgreSQL so several front-end instances
// can share them. User, backend cookies, and the reserved set are stored
// as JSONB columns.
type PGStore struct {
	db  *pgxpool.Pool
	ttl time.Duration
	now func() time.Time
}

// NewPGStore constructs a PGStore over an existing pool.
func NewPGStore(db *pgxpool.Pool, ttl time.Duration) *PGStore {
	return &PGStore{db: db, ttl: ttl, now: time.Now}
}

// Migrate creates the sessions table when it does not exist yet.
func (s *PGStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id              TEXT PRIMARY KEY,
			user_data       JSONB NOT NULL,
			backend_cookies JSONB NOT NULL DEFAULT '[]',
			reserved        JSONB NOT NULL DEFAULT '{}',
			created_at      TIMESTAMPTZ NOT NULL,
			expires_at      TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

// storedCookie is the serialized form of a backend cookie. Only name and
// value matter for replaying requests.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func encodeCookies(cookies []*http.Cookie) ([]byte, error) {
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}
	return json.Marshal(stored)
}

func decodeCookies(data []byte) ([]*http.Cookie, error) {
	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return cookies, nil
}

// Create inserts a fresh session row.
func (s *PGStore) Create(ctx context.Context, user model.User, cookies []*http.Cookie) (*Session, error) {
	sess := newSession(user, cookies, s.now(), s.ttl)

	userData, err := json.Marshal(sess.User)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	cookieData, err := encodeCookies(sess.BackendCookies)
	if err != nil {
		return nil, fmt.Errorf("encode cookies: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO sessions (id, user_data, backend_cookies, reserved, created_at, expires_at)
		 VALUES ($1, $2, $3, '{}', $4, $5)`,
		sess.ID, userData, cookieData, sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// Get returns a live session or ErrNotFound. Expired rows are deleted on
// access.
func (s *PGStore) Get(ctx context.Context, id string) (*Session, error) {
	var (
		sess       Session
		userData   []byte
		cookieData []byte
		reserved   []byte
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, user_data, backend_cookies, reserved, created_at, expires_at
		 FROM sessions WHERE id = $1`,
		id,
	).Scan(&sess.ID, &userData, &cookieData, &reserved, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if sess.Expired(s.now()) {
		_, _ = s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
		return nil, ErrNotFound
	}

	if err := json.Unmarshal(userData, &sess.User); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if sess.BackendCookies, err = decodeCookies(cookieData); err != nil {
		return nil, fmt.Errorf("decode cookies: %w", err)
	}
	if err := json.Unmarshal(reserved, &sess.Reserved); err != nil {
		return nil, fmt.Errorf("decode reserved set: %w", err)
	}
	if sess.Reserved == nil {
		sess.Reserved = make(map[int]bool)
	}
	return &sess, nil
}

// Save writes the session's mutable fields back. Unknown ids report
// ErrNotFound.
func (s *PGStore) Save(ctx context.Context, sess *Session) error {
	cookieData, err := encodeCookies(sess.BackendCookies)
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	reserved, err := json.Marshal(sess.Reserved)
	if err != nil {
		return fmt.Errorf("encode reserved set: %w", err)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE sessions SET backend_cookies = $2, reserved = $3 WHERE id = $1`,
		sess.ID, cookieData, reserved,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the session row. Absent ids are a no-op.
func (s *PGStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
