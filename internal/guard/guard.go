// Package guard decides, per navigation, whether a visitor may see a
// role-protected page. The decision is a pure function of the stored
// session and the required role; the middleware re-evaluates it on every
// request and never caches the outcome.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/openhall/eventfront/internal/model"
	"github.com/openhall/eventfront/internal/session"
)

// Action is the guard's verdict.
type Action int

const (
	// Allow renders the requested view.
	Allow Action = iota
	// Redirect sends the visitor elsewhere.
	Redirect
)

// Decision is the guard's verdict plus, for redirects, the target path.
type Decision struct {
	Action   Action
	Location string
}

// Decide evaluates the three-outcome state machine:
//
//  1. no session → redirect to login
//  2. session whose role differs from the required role → redirect to the
//     stored role's own dashboard
//  3. matching role → allow
func Decide(sess *session.Session, required model.Role) Decision {
	if sess == nil {
		return Decision{Action: Redirect, Location: "/login"}
	}
	switch sess.User.Role {
	case model.RoleAdmin, model.RoleUser:
		if sess.User.Role != required {
			return Decision{Action: Redirect, Location: sess.User.Role.DashboardPath()}
		}
		return Decision{Action: Allow}
	default:
		// A stored session without a usable role is treated as anonymous.
		return Decision{Action: Redirect, Location: "/login"}
	}
}

type contextKey struct{}

// ContextWithSession returns a derived context carrying the visitor session.
func ContextWithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// SessionFromContext extracts the session placed by the middleware.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(*session.Session)
	return sess, ok
}

// Middleware resolves the visitor's session cookie against the store and
// applies Decide for the required role. On Allow the session rides along in
// the request context.
func Middleware(store session.Store, required model.Role, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := resolve(r, store, logger)
			decision := Decide(sess, required)
			if decision.Action == Redirect {
				http.Redirect(w, r, decision.Location, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
		})
	}
}

// resolve loads the session named by the cookie, treating every failure as
// "no session".
func resolve(r *http.Request, store session.Store, logger *slog.Logger) *session.Session {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	sess, err := store.Get(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			logger.ErrorContext(r.Context(), "session lookup failed", "error", err)
		}
		return nil
	}
	return sess
}
