// Package eventlist implements the presentational list logic applied to
// already-fetched events: the time-based status label, the upcoming/past
// split, text and date filtering, and fixed-size pagination. Everything
// here is a pure function over the in-memory slice, never a backend call.
package eventlist

import (
	"strings"
	"time"

	"github.com/openhall/eventfront/internal/model"
)

// PageSize is the fixed number of events per dashboard page.
const PageSize = 5

// Status is the display label derived from an event's start time. It is a
// heuristic for the UI only; the backend stays authoritative for booking
// state.
type Status int

const (
	StatusUpcoming Status = iota
	StatusOngoing
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusUpcoming:
		return "Upcoming"
	case StatusOngoing:
		return "Ongoing"
	default:
		return "Finished"
	}
}

// ongoingWindow is how long after its start an event still counts as
// ongoing, provided it is the same calendar day.
const ongoingWindow = time.Hour

// StartTime composes an event's date and time fields into its start
// instant in the given location.
func StartTime(e model.Event, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02T15:04", e.Date+"T"+e.Time, loc)
}

// StatusOf labels an event relative to now: Upcoming when the start is in
// the future, Ongoing when it started today within the last hour, else
// Finished. Events with an unparseable date or time count as Finished.
func StatusOf(e model.Event, now time.Time) Status {
	start, err := StartTime(e, now.Location())
	if err != nil {
		return StatusFinished
	}
	if start.After(now) {
		return StatusUpcoming
	}
	sameDay := start.Year() == now.Year() && start.YearDay() == now.YearDay()
	if sameDay && now.Sub(start) <= ongoingWindow {
		return StatusOngoing
	}
	return StatusFinished
}

// Upcoming reports whether the event has not started yet. A start exactly
// at now still counts as upcoming.
func Upcoming(e model.Event, now time.Time) bool {
	start, err := StartTime(e, now.Location())
	if err != nil {
		return false
	}
	return !start.Before(now)
}

// Partition splits events into upcoming and past relative to now,
// preserving input order within each half.
func Partition(events []model.Event, now time.Time) (upcoming, past []model.Event) {
	for _, e := range events {
		if Upcoming(e, now) {
			upcoming = append(upcoming, e)
		} else {
			past = append(past, e)
		}
	}
	return upcoming, past
}

// Filter returns the events whose title or location contains term
// case-insensitively and, when date is non-empty, whose date equals it
// exactly. An empty term matches everything. The result is always a
// subset of the input.
func Filter(events []model.Event, term, date string) []model.Event {
	term = strings.ToLower(term)
	var out []model.Event
	for _, e := range events {
		if term != "" &&
			!strings.Contains(strings.ToLower(e.Title), term) &&
			!strings.Contains(strings.ToLower(e.Location), term) {
			continue
		}
		if date != "" && e.Date != date {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Paginate slices out one page and reports the clamped page number and
// total page count. Pages are 1-based; out-of-range pages are clamped
// into range. An empty list has one (empty) page.
func Paginate(events []model.Event, page, perPage int) ([]model.Event, int, int) {
	if perPage <= 0 {
		perPage = PageSize
	}
	totalPages := (len(events) + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * perPage
	end := start + perPage
	if start > len(events) {
		start = len(events)
	}
	if end > len(events) {
		end = len(events)
	}
	return events[start:end], page, totalPages
}

// FormatTime12h renders a "15:04" wall-clock value as "3:04 PM" for
// display. Unparseable values pass through untouched.
func FormatTime12h(hhmm string) string {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return hhmm
	}
	return t.Format("3:04 PM")
}
