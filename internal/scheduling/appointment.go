package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/comigor/jarvis-booking/internal/calendar"
	"github.com/comigor/jarvis-booking/internal/logger"
	"github.com/comigor/jarvis-booking/pkg/tools"
)

// Writer books appointments. It performs no conflict check of its own; the
// model is instructed to check availability first.
type Writer struct {
	gateway    calendar.Gateway
	calendarID string
	hours      WorkingHours
}

// NewWriter creates a new Writer
func NewWriter(gateway calendar.Gateway, calendarID string, hours WorkingHours) *Writer {
	return &Writer{gateway: gateway, calendarID: calendarID, hours: hours}
}

// CreateAppointment books a SlotLength appointment starting at startTime, an
// RFC 3339 timestamp with an explicit offset.
func (w *Writer) CreateAppointment(ctx context.Context, startTime, summary string) (string, error) {
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(startTime))
	if err != nil {
		return "", &tools.ValidationError{
			Field: "start_time",
			Msg:   fmt.Sprintf("%q is not a valid start time; expected ISO 8601 with a UTC offset (e.g. 2024-07-30T14:00:00-07:00)", startTime),
		}
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", &tools.ValidationError{Field: "summary", Msg: "a title for the appointment is required"}
	}

	created, err := w.gateway.InsertEvent(ctx, w.calendarID, calendar.EventInput{
		Summary:  summary,
		Start:    start,
		End:      start.Add(SlotLength),
		TimeZone: w.hours.Location.String(),
	})
	if err != nil {
		return "", &tools.ExternalServiceError{Op: "create calendar event", Err: err}
	}

	logger.L.Info("appointment created", "event_id", created.ID, "start", start.Format(time.RFC3339))
	return fmt.Sprintf("Success! Appointment '%s' has been booked for %s. Event ID: %s",
		summary, start.Format("Monday, January 2 at 3:04 PM"), created.ID), nil
}
