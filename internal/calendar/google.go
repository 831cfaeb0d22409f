package calendar

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/comigor/jarvis-booking/internal/config"
)

// GoogleGateway wraps the Google Calendar service
type GoogleGateway struct {
	svc *calendar.Service
}

// NewGoogleGateway creates a gateway authenticated with a service account.
// Inline credentials take precedence over the credentials file.
func NewGoogleGateway(ctx context.Context, cfg config.GoogleCalendarConfig) (*GoogleGateway, error) {
	data := []byte(cfg.CredentialsJSON)
	if len(data) == 0 {
		var err error
		data, err = os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read service account credentials: %w", err)
		}
	}

	creds, err := google.CredentialsFromJSON(ctx, data, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}

	return NewGoogleGatewayWithOptions(ctx, option.WithCredentials(creds))
}

// NewGoogleGatewayWithOptions creates a gateway from raw client options.
func NewGoogleGatewayWithOptions(ctx context.Context, opts ...option.ClientOption) (*GoogleGateway, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &GoogleGateway{svc: svc}, nil
}

// ListEvents lists single (expanded) events in a calendar within a time range
func (g *GoogleGateway) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error) {
	var out []Event
	call := g.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			out = append(out, toEvent(item))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return out, nil
}

// InsertEvent creates a new timed calendar event
func (g *GoogleGateway) InsertEvent(ctx context.Context, calendarID string, input EventInput) (*Event, error) {
	if input.TimeZone == "" {
		input.TimeZone = "UTC"
	}
	event := &calendar.Event{
		Summary: input.Summary,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
	}

	created, err := g.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	e := toEvent(created)
	return &e, nil
}
