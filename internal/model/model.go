// Package model defines the core domain types shared by the event booking
// front-end: the authenticated user, the role variant used for route
// guarding, and the event records fetched from the booking backend.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the closed set of principals the front-end distinguishes.
// RoleAnonymous is the zero value: no session, nothing stored.
type Role int

const (
	RoleAnonymous Role = iota
	RoleUser
	RoleAdmin
)

// ParseRole maps the backend's role string onto the Role variant.
// Unknown strings degrade to RoleAnonymous rather than erroring, so a
// malformed backend payload can never grant access.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "user":
		return RoleUser
	default:
		return RoleAnonymous
	}
}

// String returns the wire form of the role.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleUser:
		return "user"
	default:
		return "anonymous"
	}
}

// DashboardPath returns the landing page for a role. Anonymous principals
// land on the login page.
func (r Role) DashboardPath() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleUser:
		return "/user"
	default:
		return "/login"
	}
}

// MarshalJSON stores roles in their wire form so persisted sessions stay
// readable across releases.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts the wire form produced by MarshalJSON.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}

// User is the authenticated principal returned by the backend's login
// endpoint and held in the session for the lifetime of the visit.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Event is a bookable event as reported by the backend. Date is a calendar
// day in "2006-01-02" form and Time a wall-clock "15:04"; the two compose
// into the event's start instant.
type Event struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Capacity    int    `json:"capacity"`
	Description string `json:"description"`

	// Booked is the backend's authoritative reservation count. The admin
	// list reports it as bookings_count and the user list as booked;
	// decoding normalizes both spellings into this one field.
	Booked int `json:"booked"`
}

// eventWire mirrors Event on the wire with both count spellings present.
type eventWire struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Location      string `json:"location"`
	Capacity      int    `json:"capacity"`
	Description   string `json:"description"`
	Booked        *int   `json:"booked"`
	BookingsCount *int   `json:"bookings_count"`
}

// UnmarshalJSON decodes an event, accepting either booked or bookings_count
// for the reservation counter. When both appear, booked wins.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w eventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Event{
		ID:          w.ID,
		Title:       w.Title,
		Date:        w.Date,
		Time:        w.Time,
		Location:    w.Location,
		Capacity:    w.Capacity,
		Description: w.Description,
	}
	switch {
	case w.Booked != nil:
		e.Booked = *w.Booked
	case w.BookingsCount != nil:
		e.Booked = *w.BookingsCount
	}
	return nil
}

// Remaining returns the number of free spots.
func (e Event) Remaining() int {
	return e.Capacity - e.Booked
}

// IsFull reports whether no spots remain.
func (e Event) IsFull() bool {
	return e.Booked >= e.Capacity
}

// EventForm is the admin create/edit payload.
type EventForm struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Capacity    int    `json:"capacity"`
	Description string `json:"description"`
}

// Validate checks the form locally before any backend call is made.
func (f *EventForm) Validate() error {
	f.Title = strings.TrimSpace(f.Title)
	f.Location = strings.TrimSpace(f.Location)
	if f.Title == "" {
		return fmt.Errorf("title is required")
	}
	if f.Date == "" {
		return fmt.Errorf("date is required")
	}
	if f.Time == "" {
		return fmt.Errorf("time is required")
	}
	if f.Location == "" {
		return fmt.Errorf("location is required")
	}
	if f.Capacity <= 0 {
		return fmt.Errorf("capacity must be a positive integer")
	}
	if f.Capacity > 100_000 {
		return fmt.Errorf("capacity cannot exceed 100,000")
	}
	return nil
}

// RegisterForm is the signup payload. The confirmation field is forwarded
// verbatim; the backend owns the match check.
type RegisterForm struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}
