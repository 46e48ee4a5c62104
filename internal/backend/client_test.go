package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/openhall/eventfront/internal/model"
)

// newBackendStub returns a test server that mimics the booking backend's
// cookie handshake: the CSRF endpoint issues the token cookie in its
// URL-encoded wire form, and subsequent requests record the relayed header.
func newBackendStub(t *testing.T, rawToken string, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/sanctum/csrf-cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: rawToken, Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})
	if handler != nil {
		mux.HandleFunc("/", handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, client
}

func TestCSRFTokenRelayedDecoded(t *testing.T) {
	// The backend URL-encodes the cookie value; the relay must send the
	// decoded token in the header.
	const rawToken = "abc%2Bdef%3D%3D"
	const token = "abc+def=="

	var gotHeader string
	_, client := newBackendStub(t, rawToken, func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(CSRFHeaderName)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})

	ctx := context.Background()
	if err := client.PrimeCSRF(ctx); err != nil {
		t.Fatalf("PrimeCSRF: %v", err)
	}
	if _, err := client.Reserve(ctx, 1); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if gotHeader != token {
		t.Errorf("relayed header = %q, want decoded token %q", gotHeader, token)
	}
}

func TestNoCSRFHeaderWithoutCookie(t *testing.T) {
	var sawHeader bool
	_, client := newBackendStub(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		sawHeader = r.Header.Get(CSRFHeaderName) != ""
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})

	// No PrimeCSRF call: the jar is empty, so no header may be attached.
	if _, err := client.Reserve(context.Background(), 1); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if sawHeader {
		t.Error("CSRF header attached despite empty jar")
	}
}

func TestLoginParsesUserEnvelope(t *testing.T) {
	_, client := newBackendStub(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode login body: %v", err)
		}
		if req.Email != "admin@example.com" {
			t.Errorf("email = %q", req.Email)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{"id": 1, "name": "Root", "email": req.Email, "role": "admin"},
		})
	})

	user, err := client.Login(context.Background(), "admin@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Role != model.RoleAdmin || user.ID != 1 {
		t.Errorf("user = %+v", user)
	}
}

func TestLoginMissingUserIsError(t *testing.T) {
	_, client := newBackendStub(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "welcome"})
	})
	if _, err := client.Login(context.Background(), "a@b.c", "pw"); err == nil {
		t.Fatal("expected error for response without user")
	}
}

func TestAPIErrorCarriesBackendPayload(t *testing.T) {
	_, client := newBackendStub(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "The given data was invalid.",
			"errors": map[string][]string{
				"email":    {"The email has already been taken."},
				"password": {"The password confirmation does not match."},
			},
		})
	})

	err := client.Register(context.Background(), model.RegisterForm{Name: "x"})
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", apiErr.Status)
	}
	if got := apiErr.FirstFieldError(); got != "The email has already been taken." {
		t.Errorf("FirstFieldError = %q", got)
	}
}

func TestAPIErrorUnauthorized(t *testing.T) {
	_, client := newBackendStub(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Unauthenticated."})
	})

	_, err := client.UserEvents(context.Background())
	apiErr, ok := AsAPIError(err)
	if !ok || !apiErr.Unauthorized() {
		t.Fatalf("want unauthorized APIError, got %v", err)
	}
}

func TestCookieExportRestoresSession(t *testing.T) {
	srv, client := newBackendStub(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("backend_session")
		if err != nil || c.Value != "s1" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Unauthenticated."})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"events": []any{}})
	})

	// Simulate the backend issuing a session cookie, export, then rebuild.
	base, _ := url.Parse(srv.URL)
	client.http.Jar.SetCookies(base, []*http.Cookie{{Name: "backend_session", Value: "s1"}})

	restored, err := New(srv.URL, client.Cookies())
	if err != nil {
		t.Fatalf("New with seed: %v", err)
	}
	if _, err := restored.UserEvents(context.Background()); err != nil {
		t.Fatalf("restored client not authenticated: %v", err)
	}
}

func TestDeleteEventTargetsPath(t *testing.T) {
	var gotMethod, gotPath string
	_, client := newBackendStub(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "deleted"})
	})

	if err := client.DeleteEvent(context.Background(), 7); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/admin/delete/7" {
		t.Errorf("call = %s %s, want DELETE /admin/delete/7", gotMethod, gotPath)
	}
}
