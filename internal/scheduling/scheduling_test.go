package scheduling

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comigor/jarvis-booking/internal/calendar"
	"github.com/comigor/jarvis-booking/internal/config"
	"github.com/comigor/jarvis-booking/pkg/tools"
)

const calID = "primary"

func laHours(t *testing.T) WorkingHours {
	t.Helper()
	h, err := NewWorkingHours(config.SchedulingConfig{Timezone: "America/Los_Angeles", WorkdayStartHour: 9, WorkdayEndHour: 17})
	require.NoError(t, err)
	return h
}

func laTime(t *testing.T, date string, hour, minute int) time.Time {
	t.Helper()
	h := laHours(t)
	day, err := time.ParseInLocation(dateLayout, date, h.Location)
	require.NoError(t, err)
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, h.Location)
}

// stubGateway returns canned events or errors.
type stubGateway struct {
	events    []calendar.Event
	listErr   error
	insertErr error
}

func (s *stubGateway) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]calendar.Event, error) {
	return s.events, s.listErr
}

func (s *stubGateway) InsertEvent(ctx context.Context, calendarID string, in calendar.EventInput) (*calendar.Event, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	return &calendar.Event{ID: "stub-id", Summary: in.Summary, Start: in.Start, End: in.End}, nil
}

func book(t *testing.T, gw calendar.Gateway, start, end time.Time) {
	t.Helper()
	_, err := gw.InsertEvent(context.Background(), calID, calendar.EventInput{Summary: "busy", Start: start, End: end})
	require.NoError(t, err)
}

func TestNewWorkingHours(t *testing.T) {
	_, err := NewWorkingHours(config.SchedulingConfig{Timezone: "Nowhere/Void", WorkdayStartHour: 9, WorkdayEndHour: 17})
	require.Error(t, err)
	_, err = NewWorkingHours(config.SchedulingConfig{Timezone: "UTC", WorkdayStartHour: 17, WorkdayEndHour: 9})
	require.Error(t, err)
}

func TestCandidateSlots_AlwaysEight(t *testing.T) {
	h := laHours(t)
	// Includes both DST transition days.
	for _, date := range []string{"2024-07-30", "2024-03-10", "2024-11-03", "2024-02-29", "2025-01-01"} {
		day, err := time.ParseInLocation(dateLayout, date, h.Location)
		require.NoError(t, err)

		slots := h.CandidateSlots(day)
		require.Len(t, slots, 8, date)
		for i, s := range slots {
			local := s.Start.In(h.Location)
			require.Equal(t, 9+i, local.Hour(), date)
			require.Zero(t, local.Minute())
			require.Equal(t, SlotLength, s.End.Sub(s.Start))
		}
	}
}

func TestFreeSlots_ExclusionMatchesOverlapFormula(t *testing.T) {
	h := laHours(t)
	day := laTime(t, "2024-07-30", 0, 0)
	candidates := h.CandidateSlots(day)
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		start := day.Add(time.Duration(r.Intn(24*60)) * time.Minute)
		b := calendar.TimeRange{Start: start, End: start.Add(time.Duration(1+r.Intn(300)) * time.Minute)}

		free := FreeSlots(candidates, []calendar.TimeRange{b})
		freeSet := map[time.Time]bool{}
		for _, s := range free {
			freeSet[s.Start] = true
		}
		for _, s := range candidates {
			maxStart := s.Start
			if b.Start.After(maxStart) {
				maxStart = b.Start
			}
			minEnd := s.End
			if b.End.Before(minEnd) {
				minEnd = b.End
			}
			excluded := maxStart.Before(minEnd)
			require.Equal(t, !excluded, freeSet[s.Start], "slot %s busy %s-%s", s.Start, b.Start, b.End)
		}
	}
}

func TestCheckAvailability_Scenario(t *testing.T) {
	gw := calendar.NewMemoryGateway()
	book(t, gw, laTime(t, "2024-07-30", 14, 0), laTime(t, "2024-07-30", 15, 0))
	calc := NewCalculator(gw, calID, laHours(t))

	out, err := calc.CheckAvailability(context.Background(), "2024-07-30")
	require.NoError(t, err)
	require.Equal(t,
		"The following 1-hour slots are available on 2024-07-30: 9:00 AM, 10:00 AM, 11:00 AM, 12:00 PM, 1:00 PM, 3:00 PM, 4:00 PM",
		out)
	require.NotContains(t, out, "2:00 PM")
}

func TestCheckAvailability_AbuttingAndUnaligned(t *testing.T) {
	gw := calendar.NewMemoryGateway()
	// ends exactly at 9:00, must not block the 9 AM slot
	book(t, gw, laTime(t, "2024-07-30", 8, 0), laTime(t, "2024-07-30", 9, 0))
	// starts exactly at 17:00
	book(t, gw, laTime(t, "2024-07-30", 17, 0), laTime(t, "2024-07-30", 18, 0))
	// unaligned, touches both 10 and 11
	book(t, gw, laTime(t, "2024-07-30", 10, 30), laTime(t, "2024-07-30", 11, 15))
	calc := NewCalculator(gw, calID, laHours(t))

	slots, err := calc.FreeSlotsOn(context.Background(), "2024-07-30")
	require.NoError(t, err)
	var hours []int
	for _, s := range slots {
		hours = append(hours, s.Start.In(laHours(t).Location).Hour())
	}
	require.Equal(t, []int{9, 12, 13, 14, 15, 16}, hours)
}

func TestCheckAvailability_FullyBooked(t *testing.T) {
	gw := calendar.NewMemoryGateway()
	book(t, gw, laTime(t, "2024-07-30", 8, 0), laTime(t, "2024-07-30", 18, 0))
	calc := NewCalculator(gw, calID, laHours(t))

	out, err := calc.CheckAvailability(context.Background(), "2024-07-30")
	require.NoError(t, err)
	require.Equal(t, "No 1-hour slots are available on 2024-07-30.", out)
}

func TestCheckAvailability_SkipsUntimedEvents(t *testing.T) {
	gw := &stubGateway{events: []calendar.Event{
		{ID: "all-day"},
		{ID: "half", Start: laTime(t, "2024-07-30", 9, 0)},
	}}
	calc := NewCalculator(gw, calID, laHours(t))

	slots, err := calc.FreeSlotsOn(context.Background(), "2024-07-30")
	require.NoError(t, err)
	require.Len(t, slots, 8)
}

func TestCheckAvailability_WrongFormat(t *testing.T) {
	calc := NewCalculator(calendar.NewMemoryGateway(), calID, laHours(t))

	for _, bad := range []string{"30-07-2024", "2024/07/30", "next tuesday", "2024-02-30", ""} {
		_, err := calc.CheckAvailability(context.Background(), bad)
		var ve *tools.ValidationError
		require.ErrorAs(t, err, &ve, bad)
		require.Contains(t, err.Error(), "YYYY-MM-DD")
	}
}

func TestCheckAvailability_GatewayFailure(t *testing.T) {
	cause := errors.New("connection reset")
	calc := NewCalculator(&stubGateway{listErr: cause}, calID, laHours(t))

	_, err := calc.CheckAvailability(context.Background(), "2024-07-30")
	var se *tools.ExternalServiceError
	require.ErrorAs(t, err, &se)
	require.ErrorIs(t, err, cause)
}

func TestCheckAvailability_Idempotent(t *testing.T) {
	gw := calendar.NewMemoryGateway()
	book(t, gw, laTime(t, "2024-07-30", 11, 0), laTime(t, "2024-07-30", 12, 30))
	calc := NewCalculator(gw, calID, laHours(t))

	first, err := calc.CheckAvailability(context.Background(), "2024-07-30")
	require.NoError(t, err)
	second, err := calc.CheckAvailability(context.Background(), "2024-07-30")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestCreateAppointment_Scenario(t *testing.T) {
	gw := calendar.NewMemoryGateway()
	w := NewWriter(gw, calID, laHours(t))

	out, err := w.CreateAppointment(context.Background(), "2024-07-30T14:00:00-07:00", "Dental Check-up")
	require.NoError(t, err)
	require.Contains(t, out, "Dental Check-up")
	require.Contains(t, out, "Tuesday, July 30")
	require.Contains(t, out, "2:00 PM")

	events, err := gw.ListEvents(context.Background(), calID, laTime(t, "2024-07-30", 0, 0), laTime(t, "2024-07-31", 0, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Contains(t, out, "Event ID: "+events[0].ID)
	require.Equal(t, time.Hour, events[0].End.Sub(events[0].Start))
	require.Equal(t, "America/Los_Angeles", events[0].TimeZone)
}

func TestCreateAppointment_ThenSlotIsGone(t *testing.T) {
	gw := calendar.NewMemoryGateway()
	hours := laHours(t)
	calc := NewCalculator(gw, calID, hours)
	w := NewWriter(gw, calID, hours)

	before, err := calc.CheckAvailability(context.Background(), "2024-07-30")
	require.NoError(t, err)
	require.Contains(t, before, "2:00 PM")

	_, err = w.CreateAppointment(context.Background(), "2024-07-30T14:00:00-07:00", "Dental Check-up")
	require.NoError(t, err)

	after, err := calc.CheckAvailability(context.Background(), "2024-07-30")
	require.NoError(t, err)
	require.NotContains(t, after, "2:00 PM")
	require.Equal(t, 6, strings.Count(after, ","), "seven slots remain")
}

func TestCreateAppointment_Validation(t *testing.T) {
	w := NewWriter(calendar.NewMemoryGateway(), calID, laHours(t))

	tests := []struct {
		name, start, summary, field string
	}{
		{"no offset", "2024-07-30T14:00:00", "Sync", "start_time"},
		{"space separated", "2024-07-30 14:00", "Sync", "start_time"},
		{"date only", "2024-07-30", "Sync", "start_time"},
		{"blank summary", "2024-07-30T14:00:00-07:00", "  ", "summary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.CreateAppointment(context.Background(), tt.start, tt.summary)
			var ve *tools.ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCreateAppointment_GatewayFailure(t *testing.T) {
	w := NewWriter(&stubGateway{insertErr: errors.New("quota exceeded")}, calID, laHours(t))

	_, err := w.CreateAppointment(context.Background(), "2024-07-30T14:00:00Z", "Sync")
	var se *tools.ExternalServiceError
	require.ErrorAs(t, err, &se)
	require.Contains(t, err.Error(), "quota exceeded")
}
