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

const dateLayout = "2006-01-02"

// Calculator computes free appointment slots from the calendar.
type Calculator struct {
	gateway    calendar.Gateway
	calendarID string
	hours      WorkingHours
}

// NewCalculator creates a new Calculator
func NewCalculator(gateway calendar.Gateway, calendarID string, hours WorkingHours) *Calculator {
	return &Calculator{gateway: gateway, calendarID: calendarID, hours: hours}
}

// ParseDate parses a YYYY-MM-DD date in the working-hours timezone.
func (c *Calculator) ParseDate(date string) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), c.hours.Location)
	if err != nil {
		return time.Time{}, &tools.ValidationError{
			Field: "date",
			Msg:   fmt.Sprintf("%q is not a valid date; expected format YYYY-MM-DD (e.g. 2024-07-30)", date),
		}
	}
	return day, nil
}

// FreeSlotsOn returns the free slots for a date in ascending order.
func (c *Calculator) FreeSlotsOn(ctx context.Context, date string) ([]Slot, error) {
	day, err := c.ParseDate(date)
	if err != nil {
		return nil, err
	}

	start, end := c.hours.Window(day)
	events, err := c.gateway.ListEvents(ctx, c.calendarID, start, end)
	if err != nil {
		return nil, &tools.ExternalServiceError{Op: "list calendar events", Err: err}
	}

	busy := make([]calendar.TimeRange, 0, len(events))
	for _, e := range events {
		if !e.Timed() {
			logger.L.Debug("skipping event without usable start/end", "event_id", e.ID)
			continue
		}
		busy = append(busy, e.Range())
	}

	return FreeSlots(c.hours.CandidateSlots(day), busy), nil
}

// CheckAvailability renders the free slots of a date as text for the model.
func (c *Calculator) CheckAvailability(ctx context.Context, date string) (string, error) {
	free, err := c.FreeSlotsOn(ctx, date)
	if err != nil {
		return "", err
	}
	date = strings.TrimSpace(date)
	if len(free) == 0 {
		return fmt.Sprintf("No 1-hour slots are available on %s.", date), nil
	}

	labels := make([]string, len(free))
	for i, s := range free {
		labels[i] = s.Start.In(c.hours.Location).Format("3:04 PM")
	}
	return fmt.Sprintf("The following 1-hour slots are available on %s: %s", date, strings.Join(labels, ", ")), nil
}
