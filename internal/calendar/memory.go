package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryGateway is an in-process calendar. Writes are visible to the next read.
type MemoryGateway struct {
	mu     sync.Mutex
	events map[string][]Event
}

// NewMemoryGateway returns an empty in-memory calendar.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{events: make(map[string][]Event)}
}

// ListEvents returns timed events intersecting [timeMin, timeMax), ordered by start.
func (m *MemoryGateway) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	window := TimeRange{Start: timeMin, End: timeMax}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Event
	for _, e := range m.events[calendarID] {
		if e.Timed() && window.Overlaps(e.Range()) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// InsertEvent stores the event under a fresh id.
func (m *MemoryGateway) InsertEvent(ctx context.Context, calendarID string, input EventInput) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e := Event{
		ID:       uuid.NewString(),
		Summary:  input.Summary,
		Start:    input.Start,
		End:      input.End,
		TimeZone: input.TimeZone,
	}

	m.mu.Lock()
	m.events[calendarID] = append(m.events[calendarID], e)
	m.mu.Unlock()

	return &e, nil
}
