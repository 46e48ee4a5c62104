// Package backend is the typed REST client for the remote booking API.
//
// Every visitor session owns one Client. The client keeps that visitor's
// backend cookies (session and anti-forgery) in its own jar, relays the
// anti-forgery token as a request header, and surfaces backend rejections
// as *APIError values. Calls are fire-once: no retries, no caching.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"

	"github.com/openhall/eventfront/internal/model"
)

// Client talks to one backend origin on behalf of one visitor.
type Client struct {
	base *url.URL
	http *http.Client
}

// New constructs a Client for the given origin. seed, when non-empty,
// restores a previously exported cookie set so a persisted session keeps
// its backend authentication across front-end restarts.
func New(baseURL string, seed []*http.Cookie) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("new cookie jar: %w", err)
	}
	if len(seed) > 0 {
		jar.SetCookies(base, seed)
	}
	return &Client{
		base: base,
		http: &http.Client{
			Jar:       jar,
			Transport: &csrfRelay{jar: jar, base: base, next: http.DefaultTransport},
		},
	}, nil
}

// Cookies exports the jar's current cookies for the backend origin, in a
// form New accepts as seed. Only name/value pairs survive the round trip,
// which is all a request needs.
func (c *Client) Cookies() []*http.Cookie {
	return c.http.Jar.Cookies(c.base)
}

// PrimeCSRF asks the backend to (re)issue the anti-forgery cookie. State
// changing calls are preceded by this, matching the backend's stateful
// cookie authentication handshake.
func (c *Client) PrimeCSRF(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/sanctum/csrf-cookie", nil, nil)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userEnvelope struct {
	User *model.User `json:"user"`
}

// Login posts credentials and returns the authenticated user.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	var env userEnvelope
	if err := c.do(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &env); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, fmt.Errorf("login response missing user data")
	}
	return env.User, nil
}

// Register creates an account. The backend reports validation problems as
// field-level errors inside an *APIError.
func (c *Client) Register(ctx context.Context, form model.RegisterForm) error {
	return c.do(ctx, http.MethodPost, "/register", form, nil)
}

// Logout revokes the backend session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

type eventsEnvelope struct {
	Events []model.Event `json:"events"`
}

type eventEnvelope struct {
	Event *model.Event `json:"event"`
}

// AdminEvents fetches the full event list with booking counts.
func (c *Client) AdminEvents(ctx context.Context) ([]model.Event, error) {
	var env eventsEnvelope
	if err := c.do(ctx, http.MethodGet, "/admin/show", nil, &env); err != nil {
		return nil, err
	}
	return env.Events, nil
}

// CreateEvent creates an event and returns the backend's record of it.
func (c *Client) CreateEvent(ctx context.Context, form model.EventForm) (*model.Event, error) {
	var env eventEnvelope
	if err := c.do(ctx, http.MethodPost, "/admin/events", form, &env); err != nil {
		return nil, err
	}
	if env.Event == nil {
		return nil, fmt.Errorf("create response missing event data")
	}
	return env.Event, nil
}

// UpdateEvent replaces an event's fields and returns the updated record.
func (c *Client) UpdateEvent(ctx context.Context, id int, form model.EventForm) (*model.Event, error) {
	var env eventEnvelope
	if err := c.do(ctx, http.MethodPut, "/admin/edit/"+strconv.Itoa(id), form, &env); err != nil {
		return nil, err
	}
	if env.Event == nil {
		return nil, fmt.Errorf("update response missing event data")
	}
	return env.Event, nil
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/admin/delete/"+strconv.Itoa(id), nil, nil)
}

// UserEvents fetches the events visible to the logged-in user.
func (c *Client) UserEvents(ctx context.Context) ([]model.Event, error) {
	var env eventsEnvelope
	if err := c.do(ctx, http.MethodGet, "/user/events", nil, &env); err != nil {
		return nil, err
	}
	return env.Events, nil
}

type reserveRequest struct {
	EventID int `json:"event_id"`
}

type messageEnvelope struct {
	Message string `json:"message"`
}

// Reserve claims one spot on an event and returns the backend's message.
// A full event comes back as an *APIError carrying the rejection message.
func (c *Client) Reserve(ctx context.Context, eventID int) (string, error) {
	var env messageEnvelope
	if err := c.do(ctx, http.MethodPost, "/user/reserved", reserveRequest{EventID: eventID}, &env); err != nil {
		return "", err
	}
	return env.Message, nil
}

// apiErrorBody is the backend's error envelope: a message, field-level
// validation errors, or both.
type apiErrorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody apiErrorBody
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil {
			apiErr.Message = errBody.Message
			apiErr.Errors = errBody.Errors
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}
