package web

import (
	"net/http"

	"github.com/openhall/eventfront/internal/model"
)

// Home handles GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "home.html", h.base(r, "Event Booking System"))
}

// Dashboard handles GET /dashboard, a plain landing page kept for parity
// with the public route table.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "dashboard.html", h.base(r, "Dashboard"))
}

type loginData struct {
	baseData
	Email string
}

// LoginPage handles GET /login
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login.html", loginData{baseData: h.base(r, "Login")})
}

// Login handles POST /login. On success the returned user is stored in a
// fresh session and the visitor lands on their role's dashboard.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	data := loginData{baseData: h.base(r, "Login"), Email: email}
	fail := func(msg string) {
		data.Error = msg
		h.render(w, r, "login.html", data)
	}

	if email == "" || password == "" {
		fail("Both fields are required.")
		return
	}

	client, err := h.clientFor(nil)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "build backend client", "error", err)
		fail("Login failed. Please try again.")
		return
	}
	if err := client.PrimeCSRF(r.Context()); err != nil {
		fail(h.backendFailed(r.Context(), err, "Login failed. Please try again."))
		return
	}
	user, err := client.Login(r.Context(), email, password)
	if err != nil {
		fail(h.backendFailed(r.Context(), err, "Login failed. Please try again."))
		return
	}

	sess, err := h.store.Create(r.Context(), *user, client.Cookies())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "create session", "error", err)
		fail("Login failed. Please try again.")
		return
	}
	h.setSessionCookie(w, sess.ID, sess.ExpiresAt)

	if user.Role == model.RoleAdmin {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/user", http.StatusSeeOther)
}

type registerData struct {
	baseData
	Form model.RegisterForm
}

// RegisterPage handles GET /register
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register.html", registerData{baseData: h.base(r, "Sign Up")})
}

// Register handles POST /register. The backend owns validation; its first
// field-level error is surfaced inline on failure.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	form := model.RegisterForm{
		Name:                 r.FormValue("name"),
		Email:                r.FormValue("email"),
		Password:             r.FormValue("password"),
		PasswordConfirmation: r.FormValue("password_confirmation"),
	}

	data := registerData{baseData: h.base(r, "Sign Up"), Form: form}
	fail := func(msg string) {
		data.Error = msg
		h.render(w, r, "register.html", data)
	}

	client, err := h.clientFor(nil)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "build backend client", "error", err)
		fail("Registration failed. Please try again.")
		return
	}
	if err := client.PrimeCSRF(r.Context()); err != nil {
		fail(h.backendFailed(r.Context(), err, "Registration failed. Please try again."))
		return
	}
	if err := client.Register(r.Context(), form); err != nil {
		if apiErr, ok := backendFieldError(err); ok {
			fail(apiErr)
			return
		}
		fail(h.backendFailed(r.Context(), err, "Registration failed. Please try again."))
		return
	}

	redirectWithInfo(w, r, "/login", "Account created. Please log in.")
}

// Logout handles POST /logout. The backend call is best-effort: the local
// session and cookie are cleared regardless, and the visitor always lands
// on the login page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := h.currentSession(r)
	if sess != nil {
		if client, err := h.clientFor(sess); err == nil {
			if err := client.Logout(r.Context()); err != nil {
				h.logger.WarnContext(r.Context(), "backend logout failed", "error", err)
			}
		}
	}
	h.endSession(w, r, sess)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
