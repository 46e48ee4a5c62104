package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"

	"github.com/openhall/eventfront/internal/guard"
	"github.com/openhall/eventfront/internal/model"
	"github.com/openhall/eventfront/internal/session"
)

// RouterConfig carries the router's cross-cutting settings.
type RouterConfig struct {
	// CSRFKey, when set, wraps the router in double-submit CSRF
	// protection for the front-end's own forms. 32 bytes.
	CSRFKey string
	// SecureCookies controls the Secure flag on the CSRF cookie.
	SecureCookies bool
	Logger        *slog.Logger
}

// NewRouter builds the full route table: the public pages, the two
// role-guarded sections, and the health check.
func NewRouter(h *Handler, store session.Store, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(logger))

	r.Get("/health", h.Health)

	// Public pages.
	r.Get("/", h.Home)
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Get("/register", h.RegisterPage)
	r.Post("/register", h.Register)
	r.Get("/dashboard", h.Dashboard)
	r.Post("/logout", h.Logout)

	// Admin section: every route requires an admin session.
	r.Route("/admin", func(r chi.Router) {
		r.Use(guard.Middleware(store, model.RoleAdmin, logger))
		r.Get("/", h.AdminDashboard)
		r.Get("/events", h.AdminEvents)
		r.Post("/events", h.AdminEventCreate)
		r.Get("/events/new", h.AdminEventNew)
		r.Get("/events/{id}/edit", h.AdminEventEdit)
		r.Post("/events/{id}/edit", h.AdminEventUpdate)
		r.Get("/events/{id}/delete", h.AdminEventDeleteConfirm)
		r.Post("/events/{id}/delete", h.AdminEventDelete)
	})

	// User section. The detail page stays outside the guard to match the
	// public route table; the backend still refuses anonymous fetches.
	r.Route("/user", func(r chi.Router) {
		r.Get("/events", h.UserEventDetail)
		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware(store, model.RoleUser, logger))
			r.Get("/", h.UserDashboard)
			r.Post("/reserve", h.Reserve)
		})
	})

	if cfg.CSRFKey != "" {
		protect := csrf.Protect([]byte(cfg.CSRFKey),
			csrf.Secure(cfg.SecureCookies),
			csrf.Path("/"),
		)
		return protect(r)
	}
	return r
}
