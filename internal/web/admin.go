package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/openhall/eventfront/internal/eventlist"
	"github.com/openhall/eventfront/internal/model"
	"github.com/openhall/eventfront/internal/session"
)

// eventRow is one event prepared for rendering: the raw record plus the
// derived display labels.
type eventRow struct {
	model.Event
	Status string
}

func (h *Handler) eventRows(events []model.Event) []eventRow {
	now := h.now()
	rows := make([]eventRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, eventRow{Event: e, Status: eventlist.StatusOf(e, now).String()})
	}
	return rows
}

// fetchAdminEvents primes the CSRF cookie, pulls the full event list, and
// writes the rotated backend cookies back into the session. done reports
// that a response (the login redirect for a rejected session) was already
// written; otherwise errMsg, when non-empty, is the message to show.
func (h *Handler) fetchAdminEvents(w http.ResponseWriter, r *http.Request, sess *session.Session) (events []model.Event, errMsg string, done bool) {
	client, err := h.clientFor(sess)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "build backend client", "error", err)
		return nil, "Failed to fetch events.", false
	}
	if err := client.PrimeCSRF(r.Context()); err != nil {
		return nil, h.backendFailed(r.Context(), err, "Failed to fetch events."), false
	}
	events, err = client.AdminEvents(r.Context())
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

type adminDashboardData struct {
	baseData
	Rows            []eventRow
	TotalEvents     int
	TotalBookings   int
	NearingCapacity int
	Page            int
	TotalPages      int
	PrevPage        int
	NextPage        int
}

// AdminDashboard handles GET /admin: booking totals plus a paginated
// bookings-per-event table.
func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	sess := h.currentSession(r)
	data := adminDashboardData{baseData: h.base(r, "Admin Dashboard"), Page: 1, TotalPages: 1}

	events, errMsg, done := h.fetchAdminEvents(w, r, sess)
	if done {
		return
	}
	if errMsg != "" {
		data.Error = errMsg
	}

	data.TotalEvents = len(events)
	for _, e := range events {
		data.TotalBookings += e.Booked
		if e.Capacity > 0 && e.Remaining() <= 1 {
			data.NearingCapacity++
		}
	}

	requested, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageEvents, page, totalPages := eventlist.Paginate(events, requested, eventlist.PageSize)
	data.Rows = h.eventRows(pageEvents)
	data.Page = page
	data.TotalPages = totalPages
	data.PrevPage = page - 1
	data.NextPage = page + 1

	h.render(w, r, "admin_dashboard.html", data)
}

type adminEventsData struct {
	baseData
	Rows       []eventRow
	SearchTerm string
	FilterDate string
	ClearPath  string
}

// AdminEvents handles GET /admin/events: the management list with search
// and date filters.
func (h *Handler) AdminEvents(w http.ResponseWriter, r *http.Request) {
	sess := h.currentSession(r)
	data := adminEventsData{
		baseData:   h.base(r, "Events"),
		SearchTerm: r.URL.Query().Get("q"),
		FilterDate: r.URL.Query().Get("date"),
		ClearPath:  "/admin/events",
	}

	events, errMsg, done := h.fetchAdminEvents(w, r, sess)
	if done {
		return
	}
	if errMsg != "" {
		data.Error = errMsg
	}

	data.Rows = h.eventRows(eventlist.Filter(events, data.SearchTerm, data.FilterDate))
	h.render(w, r, "admin_events.html", data)
}

type adminEventFormData struct {
	baseData
	Edit    bool
	EventID int
	Form    model.EventForm
}

// AdminEventNew handles GET /admin/events/new: the empty create form.
func (h *Handler) AdminEventNew(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "admin_event_form.html", adminEventFormData{
		baseData: h.base(r, "Add Event"),
	})
}

// AdminEventEdit handles GET /admin/events/{id}/edit: the form pre-filled
// with the event's current fields.
func (h *Handler) AdminEventEdit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		redirectWithError(w, r, "/admin/events", "Unknown event.")
		return
	}

	sess := h.currentSession(r)
	events, errMsg, done := h.fetchAdminEvents(w, r, sess)
	if done {
		return
	}
	if errMsg != "" {
		redirectWithError(w, r, "/admin/events", errMsg)
		return
	}

	event, ok := findEvent(events, id)
	if !ok {
		redirectWithError(w, r, "/admin/events", "Unknown event.")
		return
	}

	h.render(w, r, "admin_event_form.html", adminEventFormData{
		baseData: h.base(r, "Edit Event"),
		Edit:     true,
		EventID:  event.ID,
		Form: model.EventForm{
			Title:       event.Title,
			Date:        event.Date,
			Time:        event.Time,
			Location:    event.Location,
			Capacity:    event.Capacity,
			Description: event.Description,
		},
	})
}

func eventFormFromRequest(r *http.Request) model.EventForm {
	capacity, _ := strconv.Atoi(r.FormValue("capacity"))
	return model.EventForm{
		Title:       r.FormValue("title"),
		Date:        r.FormValue("date"),
		Time:        r.FormValue("time"),
		Location:    r.FormValue("location"),
		Capacity:    capacity,
		Description: r.FormValue("description"),
	}
}

// AdminEventCreate handles POST /admin/events.
func (h *Handler) AdminEventCreate(w http.ResponseWriter, r *http.Request) {
	h.saveEvent(w, r, 0, false)
}

// AdminEventUpdate handles POST /admin/events/{id}/edit.
func (h *Handler) AdminEventUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		redirectWithError(w, r, "/admin/events", "Unknown event.")
		return
	}
	h.saveEvent(w, r, id, true)
}

// saveEvent is the shared create/update path, keyed by edit mode exactly
// like the single modal form it replaces.
func (h *Handler) saveEvent(w http.ResponseWriter, r *http.Request, id int, edit bool) {
	form := eventFormFromRequest(r)

	title := "Add Event"
	if edit {
		title = "Edit Event"
	}
	data := adminEventFormData{
		baseData: h.base(r, title),
		Edit:     edit,
		EventID:  id,
		Form:     form,
	}
	fail := func(msg string) {
		data.Error = msg
		h.render(w, r, "admin_event_form.html", data)
	}

	if err := form.Validate(); err != nil {
		fail(err.Error())
		return
	}

	sess := h.currentSession(r)
	client, err := h.clientFor(sess)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "build backend client", "error", err)
		fail("Failed to save event. Please check your input.")
		return
	}
	if err := client.PrimeCSRF(r.Context()); err != nil {
		fail(h.backendFailed(r.Context(), err, "Failed to save event. Please check your input."))
		return
	}

	if edit {
		_, err = client.UpdateEvent(r.Context(), id, form)
	} else {
		_, err = client.CreateEvent(r.Context(), form)
	}
	if err != nil {
		if sessionRejected(err) {
			h.endSession(w, r, sess)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if msg, ok := backendFieldError(err); ok {
			fail(msg)
			return
		}
		fail(h.backendFailed(r.Context(), err, "Failed to save event. Please check your input."))
		return
	}

	h.syncSession(r.Context(), sess, client)
	http.Redirect(w, r, "/admin/events", http.StatusSeeOther)
}

type adminEventDeleteData struct {
	baseData
	Event model.Event
}

// AdminEventDeleteConfirm handles GET /admin/events/{id}/delete: the
// explicit confirmation step before anything is removed.
func (h *Handler) AdminEventDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		redirectWithError(w, r, "/admin/events", "Unknown event.")
		return
	}

	sess := h.currentSession(r)
	events, errMsg, done := h.fetchAdminEvents(w, r, sess)
	if done {
		return
	}
	if errMsg != "" {
		redirectWithError(w, r, "/admin/events", errMsg)
		return
	}

	event, ok := findEvent(events, id)
	if !ok {
		redirectWithError(w, r, "/admin/events", "Unknown event.")
		return
	}

	h.render(w, r, "admin_event_delete.html", adminEventDeleteData{
		baseData: h.base(r, "Delete Event"),
		Event:    event,
	})
}

// AdminEventDelete handles POST /admin/events/{id}/delete: the confirmed
// deletion.
func (h *Handler) AdminEventDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		redirectWithError(w, r, "/admin/events", "Unknown event.")
		return
	}

	sess := h.currentSession(r)
	client, err := h.clientFor(sess)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "build backend client", "error", err)
		redirectWithError(w, r, "/admin/events", "Failed to delete event. Please try again.")
		return
	}

	if err := client.DeleteEvent(r.Context(), id); err != nil {
		if sessionRejected(err) {
			h.endSession(w, r, sess)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		redirectWithError(w, r, "/admin/events",
			h.backendFailed(r.Context(), err, "Failed to delete event. Please try again."))
		return
	}

	h.syncSession(r.Context(), sess, client)
	http.Redirect(w, r, "/admin/events", http.StatusSeeOther)
}

func findEvent(events []model.Event, id int) (model.Event, bool) {
	for _, e := range events {
		if e.ID == id {
			return e, true
		}
	}
	return model.Event{}, false
}
