// Package web renders the front-end pages and translates form submissions
// into backend API calls. Handlers own no business logic: authentication,
// persistence, and capacity enforcement all live behind the backend; this
// layer collects input, calls through the per-session client, and renders
// the result.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/csrf"

	"github.com/openhall/eventfront/internal/backend"
	"github.com/openhall/eventfront/internal/eventlist"
	"github.com/openhall/eventfront/internal/guard"
	"github.com/openhall/eventfront/internal/model"
	"github.com/openhall/eventfront/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler holds the front-end's HTTP handlers and their shared wiring.
type Handler struct {
	store     session.Store
	logger    *slog.Logger
	now       func() time.Time
	secure    bool
	newClient func(seed []*http.Cookie) (*backend.Client, error)
	tmpl      *template.Template
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger replaces the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithClock replaces the time source used for status labels. Test hook.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithSecureCookies controls the Secure flag on the session cookie.
func WithSecureCookies(secure bool) Option {
	return func(h *Handler) { h.secure = secure }
}

// New constructs the Handler. backendURL is the booking API origin; every
// request gets a client seeded with the visitor's stored backend cookies.
func New(store session.Store, backendURL string, opts ...Option) (*Handler, error) {
	h := &Handler{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
		secure: true,
		newClient: func(seed []*http.Cookie) (*backend.Client, error) {
			return backend.New(backendURL, seed)
		},
	}
	for _, opt := range opts {
		opt(h)
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"time12": eventlist.FormatTime12h,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	h.tmpl = tmpl
	return h, nil
}

// ─── Session plumbing ─────────────────────────────────────────────────────────

// currentSession returns the visitor's session: from the guard context on
// protected routes, otherwise resolved from the cookie. Nil for anonymous
// visitors.
func (h *Handler) currentSession(r *http.Request) *session.Session {
	if sess, ok := guard.SessionFromContext(r.Context()); ok {
		return sess
	}
	cookie, err := r.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	sess, err := h.store.Get(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return sess
}

// clientFor builds a backend client carrying the session's cookies. A nil
// session yields an anonymous client.
func (h *Handler) clientFor(sess *session.Session) (*backend.Client, error) {
	var seed []*http.Cookie
	if sess != nil {
		seed = sess.BackendCookies
	}
	return h.newClient(seed)
}

// syncSession snapshots the client's backend cookies back into the session
// record. The backend rotates its CSRF and session cookies, so the stored
// copy must follow.
func (h *Handler) syncSession(ctx context.Context, sess *session.Session, client *backend.Client) {
	if sess == nil {
		return
	}
	sess.BackendCookies = client.Cookies()
	if err := h.store.Save(ctx, sess); err != nil {
		h.logger.ErrorContext(ctx, "save session", "error", err)
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, id string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// endSession destroys the stored session and browser cookie. Used on
// explicit logout and when the backend reports the session as no longer
// authenticated.
func (h *Handler) endSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if sess != nil {
		if err := h.store.Delete(r.Context(), sess.ID); err != nil {
			h.logger.ErrorContext(r.Context(), "delete session", "error", err)
		}
	}
	h.clearSessionCookie(w)
}

// ─── Rendering helpers ────────────────────────────────────────────────────────

// baseData is the chrome every page shares.
type baseData struct {
	Title     string
	User      *model.User
	Error     string
	Info      string
	CSRFField template.HTML
}

func (h *Handler) base(r *http.Request, title string) baseData {
	data := baseData{
		Title:     title,
		Error:     r.URL.Query().Get("err"),
		Info:      r.URL.Query().Get("msg"),
		CSRFField: csrf.TemplateField(r),
	}
	if sess := h.currentSession(r); sess != nil {
		user := sess.User
		data.User = &user
	}
	return data
}

// render executes a page template into a buffer first so a template error
// becomes a clean 500 instead of a half-written page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.ErrorContext(r.Context(), "render template", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// redirectWithError sends the visitor to path with an error flash.
func redirectWithError(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?err="+url.QueryEscape(msg), http.StatusSeeOther)
}

// redirectWithInfo sends the visitor to path with an informational flash.
func redirectWithInfo(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?msg="+url.QueryEscape(msg), http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// backendFailed distills an error from the backend into the message shown
// to the visitor: the backend's own message when it sent one, otherwise
// the provided fallback. Network detail is logged, never rendered.
func (h *Handler) backendFailed(ctx context.Context, err error, fallback string) string {
	if apiErr, ok := backend.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	h.logger.ErrorContext(ctx, "backend call failed", "error", err)
	return fallback
}

// backendFieldError extracts the first field-level validation message from
// a backend rejection.
func backendFieldError(err error) (string, bool) {
	if apiErr, ok := backend.AsAPIError(err); ok {
		if msg := apiErr.FirstFieldError(); msg != "" {
			return msg, true
		}
	}
	return "", false
}

// sessionRejected reports whether the backend no longer accepts the
// visitor's cookies, in which case the local session must be torn down
// and the visitor sent back to login.
func sessionRejected(err error) bool {
	apiErr, ok := backend.AsAPIError(err)
	return ok && apiErr.Unauthorized()
}

// ─── Health check ─────────────────────────────────────────────────────────────

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
