package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/openhall/eventfront/internal/model"
)

// fakeClock is a controllable time source for expiry tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func testUser() model.User {
	return model.User{ID: 1, Name: "Alex", Email: "alex@example.com", Role: model.RoleUser}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	cookies := []*http.Cookie{{Name: "backend_session", Value: "abc"}}
	sess, err := store.Create(ctx, testUser(), cookies)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("session id must not be empty")
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.User != testUser() {
		t.Errorf("user = %+v", got.User)
	}
	if len(got.BackendCookies) != 1 || got.BackendCookies[0].Value != "abc" {
		t.Errorf("cookies = %+v", got.BackendCookies)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(time.Hour).WithClock(clock.Now)

	sess, err := store.Create(ctx, testUser(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	clock.Advance(59 * time.Minute)
	if _, err := store.Get(ctx, sess.ID); err != nil {
		t.Fatalf("session expired early: %v", err)
	}

	clock.Advance(2 * time.Minute)
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after expiry = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreSaveUnknownID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	sess, err := store.Create(ctx, testUser(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// A write after logout must not bring the session back.
	sess.MarkReserved(9)
	if err := store.Save(ctx, sess); !errors.Is(err, ErrNotFound) {
		t.Errorf("Save after delete = %v, want ErrNotFound", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted session resurrected")
	}
}

func TestMemoryStoreHandsOutCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	sess, err := store.Create(ctx, testUser(), []*http.Cookie{{Name: "backend_session", Value: "abc"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Mutations on a fetched session must stay invisible until Save.
	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.MarkReserved(3)
	got.BackendCookies[0].Value = "tampered"

	again, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.HasReserved(3) {
		t.Error("unsaved reservation leaked into the store")
	}
	if again.BackendCookies[0].Value != "abc" {
		t.Errorf("cookie = %q, want store's copy untouched", again.BackendCookies[0].Value)
	}

	if err := store.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !saved.HasReserved(3) {
		t.Error("saved reservation missing")
	}
}

func TestMemoryStoreConcurrentVisitorRequests(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	sess, err := store.Create(ctx, testUser(), []*http.Cookie{{Name: "backend_session", Value: "abc"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Simultaneous requests from one visitor each fetch, mutate, and write
	// back their own view. No writes may land on shared state.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			got, err := store.Get(ctx, sess.ID)
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			got.MarkReserved(id)
			got.BackendCookies = []*http.Cookie{{Name: "backend_session", Value: "rotated"}}
			if err := store.Save(ctx, got); err != nil {
				t.Errorf("Save: %v", err)
			}
		}(i)
	}
	wg.Wait()

	final, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get after writes: %v", err)
	}
	if len(final.Reserved) == 0 {
		t.Error("no reservation survived the writes")
	}
}

func TestReservedSetHelpers(t *testing.T) {
	sess := &Session{}
	if sess.HasReserved(4) {
		t.Error("fresh session should have no reservations")
	}
	sess.MarkReserved(4)
	if !sess.HasReserved(4) {
		t.Error("MarkReserved(4) not visible")
	}
	if sess.HasReserved(5) {
		t.Error("unrelated id reported reserved")
	}
}
