package web

import (
	"net/http"
	"strconv"

	"github.com/openhall/eventfront/internal/eventlist"
	"github.com/openhall/eventfront/internal/model"
	"github.com/openhall/eventfront/internal/session"
)

// userRow is one event prepared for the user-facing lists: the record plus
// the reserve-button state.
type userRow struct {
	model.Event
	Reserved bool
	Full     bool
}

func (h *Handler) userRows(events []model.Event, sess *session.Session) []userRow {
	rows := make([]userRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, userRow{
			Event:    e,
			Reserved: sess != nil && sess.HasReserved(e.ID),
			Full:     e.IsFull(),
		})
	}
	return rows
}

// fetchUserEvents mirrors fetchAdminEvents for the user-visible list.
func (h *Handler) fetchUserEvents(w http.ResponseWriter, r *http.Request, sess *session.Session) (events []model.Event, errMsg string, done bool) {
	client, err := h.clientFor(sess)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "build backend client", "error", err)
		return nil, "Failed to fetch events.", false
	}
	if err := client.PrimeCSRF(r.Context()); err != nil {
		return nil, h.backendFailed(r.Context(), err, "Failed to fetch events."), false
	}
	events, err = client.UserEvents(r.Context())
	if err != nil {
		if sessionRejected(err) {
			h.endSession(w, r, sess)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return nil, "", true
		}
		return nil, h.backendFailed(r.Context(), err, "Failed to fetch events."), false
	}
	h.syncSession(r.Context(), sess, client)
	return events, "", false
}

type userDashboardData struct {
	baseData
	Upcoming   []userRow
	Past       []userRow
	SearchTerm string
	FilterDate string
	ClearPath  string
}

// UserDashboard handles GET /user: the visible events split into upcoming
// and past, with the same search and date filters as the admin list.
func (h *Handler) UserDashboard(w http.ResponseWriter, r *http.Request) {
	sess := h.currentSession(r)
	data := userDashboardData{
		baseData:   h.base(r, "Events"),
		SearchTerm: r.URL.Query().Get("q"),
		FilterDate: r.URL.Query().Get("date"),
		ClearPath:  "/user",
	}

	events, errMsg, done := h.fetchUserEvents(w, r, sess)
	if done {
		return
	}
	if errMsg != "" {
		data.Error = errMsg
	}

	filtered := eventlist.Filter(events, data.SearchTerm, data.FilterDate)
	upcoming, past := eventlist.Partition(filtered, h.now())
	data.Upcoming = h.userRows(upcoming, sess)
	data.Past = h.userRows(past, sess)

	h.render(w, r, "user_dashboard.html", data)
}

// Reserve handles POST /user/reserve. Two local guards run before any
// backend call: an id already reserved in this session is skipped
// entirely, and an event whose rendered counts show it full is refused
// outright. The counts ride along as hidden form fields, a snapshot of
// the list the visitor saw. On success the page re-renders from a fresh
// fetch, so the displayed count is always the backend's, never a local
// increment.
func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	sess := h.currentSession(r)

	eventID, err := strconv.Atoi(r.FormValue("event_id"))
	if err != nil {
		redirectWithError(w, r, "/user", "Unknown event.")
		return
	}

	if sess != nil && sess.HasReserved(eventID) {
		http.Redirect(w, r, "/user", http.StatusSeeOther)
		return
	}

	booked, bookedErr := strconv.Atoi(r.FormValue("booked"))
	capacity, capacityErr := strconv.Atoi(r.FormValue("capacity"))
	if bookedErr == nil && capacityErr == nil && booked >= capacity {
		redirectWithError(w, r, "/user", "This event is fully booked.")
		return
	}

	client, err := h.clientFor(sess)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "build backend client", "error", err)
		redirectWithError(w, r, "/user", "Reservation failed.")
		return
	}
	if err := client.PrimeCSRF(r.Context()); err != nil {
		redirectWithError(w, r, "/user", h.backendFailed(r.Context(), err, "Reservation failed."))
		return
	}
	if _, err := client.Reserve(r.Context(), eventID); err != nil {
		if sessionRejected(err) {
			h.endSession(w, r, sess)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		redirectWithError(w, r, "/user", h.backendFailed(r.Context(), err, "Reservation failed."))
		return
	}

	if sess != nil {
		sess.MarkReserved(eventID)
	}
	h.syncSession(r.Context(), sess, client)
	http.Redirect(w, r, "/user", http.StatusSeeOther)
}

type userEventData struct {
	baseData
	Row userRow
}

// UserEventDetail handles GET /user/events?id=N: a single event with its
// reservation state. Without an id the visitor goes to the full list.
func (h *Handler) UserEventDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		http.Redirect(w, r, "/user", http.StatusSeeOther)
		return
	}

	sess := h.currentSession(r)
	events, errMsg, done := h.fetchUserEvents(w, r, sess)
	if done {
		return
	}
	if errMsg != "" {
		redirectWithError(w, r, "/user", errMsg)
		return
	}

	event, ok := findEvent(events, id)
	if !ok {
		redirectWithError(w, r, "/user", "Unknown event.")
		return
	}

	h.render(w, r, "user_event.html", userEventData{
		baseData: h.base(r, event.Title),
		Row: userRow{
			Event:    event,
			Reserved: sess != nil && sess.HasReserved(event.ID),
			Full:     event.IsFull(),
		},
	})
}
