package calendar

import (
	"context"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// Gateway is the subset of a calendar service the booking tools depend on.
type Gateway interface {
	// ListEvents returns the events intersecting [timeMin, timeMax), ordered by start.
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error)
	// InsertEvent creates a new event and returns it as stored.
	InsertEvent(ctx context.Context, calendarID string, input EventInput) (*Event, error)
}

// EventInput represents the input for creating a calendar event
type EventInput struct {
	Summary  string
	Start    time.Time
	End      time.Time
	TimeZone string
}

// Event is a simplified calendar event. Start and End are zero when the
// upstream event had no usable timestamp (for example all-day events).
type Event struct {
	ID       string
	Summary  string
	Start    time.Time
	End      time.Time
	TimeZone string
}

// Timed reports whether the event has a well-formed start and end.
func (e Event) Timed() bool {
	return !e.Start.IsZero() && !e.End.IsZero() && !e.End.Before(e.Start)
}

// Range returns the event's interval.
func (e Event) Range() TimeRange {
	return TimeRange{Start: e.Start, End: e.End}
}

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals share any instant:
// max(a.Start, b.Start) < min(a.End, b.End). Intervals that merely touch do not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	start := r.Start
	if o.Start.After(start) {
		start = o.Start
	}
	end := r.End
	if o.End.Before(end) {
		end = o.End
	}
	return start.Before(end)
}

func toEvent(event *calendar.Event) Event {
	if event == nil {
		return Event{}
	}
	e := Event{
		ID:      event.Id,
		Summary: event.Summary,
	}
	if event.Start != nil {
		e.Start = parseDateTime(event.Start.DateTime)
		e.TimeZone = event.Start.TimeZone
	}
	if event.End != nil {
		e.End = parseDateTime(event.End.DateTime)
	}
	return e
}

// parseDateTime only accepts RFC 3339 date-times; all-day dates carry no
// clock time and are reported as zero.
func parseDateTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
