package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func at(h, m int) time.Time {
	return time.Date(2024, 7, 30, h, m, 0, 0, time.UTC)
}

func TestTimeRangeOverlaps(t *testing.T) {
	slot := TimeRange{Start: at(14, 0), End: at(15, 0)}

	tests := []struct {
		name string
		busy TimeRange
		want bool
	}{
		{"identical", TimeRange{at(14, 0), at(15, 0)}, true},
		{"inside", TimeRange{at(14, 15), at(14, 45)}, true},
		{"covers", TimeRange{at(13, 0), at(16, 0)}, true},
		{"straddles start", TimeRange{at(13, 30), at(14, 30)}, true},
		{"straddles end", TimeRange{at(14, 59), at(15, 30)}, true},
		{"abuts before", TimeRange{at(13, 0), at(14, 0)}, false},
		{"abuts after", TimeRange{at(15, 0), at(16, 0)}, false},
		{"disjoint", TimeRange{at(9, 0), at(10, 0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, slot.Overlaps(tt.busy))
			require.Equal(t, tt.want, tt.busy.Overlaps(slot), "overlap must be symmetric")
		})
	}
}

func TestToEvent(t *testing.T) {
	require.Equal(t, Event{}, toEvent(nil))

	timed := toEvent(&calendar.Event{
		Id:      "evt1",
		Summary: "Standup",
		Start:   &calendar.EventDateTime{DateTime: "2024-07-30T10:00:00-07:00", TimeZone: "America/Los_Angeles"},
		End:     &calendar.EventDateTime{DateTime: "2024-07-30T10:30:00-07:00"},
	})
	require.True(t, timed.Timed())
	require.Equal(t, "evt1", timed.ID)
	require.Equal(t, "America/Los_Angeles", timed.TimeZone)
	require.True(t, timed.Start.Equal(time.Date(2024, 7, 30, 17, 0, 0, 0, time.UTC)))

	allDay := toEvent(&calendar.Event{
		Id:    "evt2",
		Start: &calendar.EventDateTime{Date: "2024-07-30"},
		End:   &calendar.EventDateTime{Date: "2024-07-31"},
	})
	require.False(t, allDay.Timed())

	garbage := toEvent(&calendar.Event{
		Start: &calendar.EventDateTime{DateTime: "tomorrow-ish"},
		End:   &calendar.EventDateTime{DateTime: "2024-07-30T10:30:00Z"},
	})
	require.False(t, garbage.Timed())
}

func TestMemoryGateway(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()

	created, err := gw.InsertEvent(ctx, "primary", EventInput{Summary: "B", Start: at(14, 0), End: at(15, 0), TimeZone: "UTC"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	_, err = gw.InsertEvent(ctx, "primary", EventInput{Summary: "A", Start: at(10, 0), End: at(11, 0)})
	require.NoError(t, err)
	_, err = gw.InsertEvent(ctx, "other", EventInput{Summary: "C", Start: at(12, 0), End: at(13, 0)})
	require.NoError(t, err)

	events, err := gw.ListEvents(ctx, "primary", at(9, 0), at(17, 0))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "A", events[0].Summary)
	require.Equal(t, "B", events[1].Summary)

	// Window ending exactly where the event starts excludes it.
	events, err = gw.ListEvents(ctx, "primary", at(9, 0), at(10, 0))
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestMemoryGateway_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryGateway().ListEvents(ctx, "primary", at(9, 0), at(17, 0))
	require.ErrorIs(t, err, context.Canceled)
}

func newFakeCalendarAPI(t *testing.T, handler http.HandlerFunc) *GoogleGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gw, err := NewGoogleGatewayWithOptions(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return gw
}

func TestGoogleGateway_ListEvents(t *testing.T) {
	gw := newFakeCalendarAPI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/calendars/primary/events", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "true", q.Get("singleEvents"))
		require.Equal(t, "startTime", q.Get("orderBy"))
		require.Equal(t, "2024-07-30T09:00:00Z", q.Get("timeMin"))
		require.Equal(t, "2024-07-30T17:00:00Z", q.Get("timeMax"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "a", "summary": "Busy", "start": map[string]string{"dateTime": "2024-07-30T14:00:00Z"}, "end": map[string]string{"dateTime": "2024-07-30T15:00:00Z"}},
				{"id": "b", "summary": "Holiday", "start": map[string]string{"date": "2024-07-30"}, "end": map[string]string{"date": "2024-07-31"}},
			},
		})
	})

	events, err := gw.ListEvents(context.Background(), "primary", at(9, 0), at(17, 0))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.True(t, events[0].Timed())
	require.False(t, events[1].Timed())
}

func TestGoogleGateway_InsertEvent(t *testing.T) {
	gw := newFakeCalendarAPI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/calendars/primary/events", r.URL.Path)

		var body calendar.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Dental Check-up", body.Summary)
		require.Equal(t, "2024-07-30T14:00:00-07:00", body.Start.DateTime)
		require.Equal(t, "America/Los_Angeles", body.Start.TimeZone)
		require.Equal(t, "2024-07-30T15:00:00-07:00", body.End.DateTime)

		body.Id = "created-123"
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&body)
	})

	start := time.Date(2024, 7, 30, 14, 0, 0, 0, time.FixedZone("PDT", -7*3600))
	created, err := gw.InsertEvent(context.Background(), "primary", EventInput{
		Summary:  "Dental Check-up",
		Start:    start,
		End:      start.Add(time.Hour),
		TimeZone: "America/Los_Angeles",
	})
	require.NoError(t, err)
	require.Equal(t, "created-123", created.ID)
	require.True(t, created.Start.Equal(start))
}

func TestGoogleGateway_APIError(t *testing.T) {
	gw := newFakeCalendarAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	})

	_, err := gw.ListEvents(context.Background(), "primary", at(9, 0), at(17, 0))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to list events")
}
