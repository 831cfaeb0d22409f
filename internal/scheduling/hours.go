package scheduling

import (
	"fmt"
	"time"

	"github.com/comigor/jarvis-booking/internal/calendar"
	"github.com/comigor/jarvis-booking/internal/config"
)

// SlotLength is the fixed duration of a bookable appointment.
const SlotLength = time.Hour

// Slot is a candidate appointment window [Start, Start+SlotLength).
type Slot struct {
	Start time.Time
	End   time.Time
}

// Range converts the slot to a calendar interval.
func (s Slot) Range() calendar.TimeRange {
	return calendar.TimeRange{Start: s.Start, End: s.End}
}

// WorkingHours is the daily bookable window in a single timezone.
type WorkingHours struct {
	Location  *time.Location
	StartHour int
	EndHour   int
}

// NewWorkingHours resolves the configured timezone and window.
func NewWorkingHours(cfg config.SchedulingConfig) (WorkingHours, error) {
	loc, err := cfg.Location()
	if err != nil {
		return WorkingHours{}, err
	}
	if cfg.WorkdayStartHour < 0 || cfg.WorkdayEndHour > 24 || cfg.WorkdayStartHour >= cfg.WorkdayEndHour {
		return WorkingHours{}, fmt.Errorf("invalid working hours %d-%d", cfg.WorkdayStartHour, cfg.WorkdayEndHour)
	}
	return WorkingHours{Location: loc, StartHour: cfg.WorkdayStartHour, EndHour: cfg.WorkdayEndHour}, nil
}

// Window returns the start and end of working hours on the given day.
func (w WorkingHours) Window(day time.Time) (time.Time, time.Time) {
	y, m, d := day.In(w.Location).Date()
	return time.Date(y, m, d, w.StartHour, 0, 0, 0, w.Location),
		time.Date(y, m, d, w.EndHour, 0, 0, 0, w.Location)
}

// CandidateSlots steps through the day's working window one hour at a time.
func (w WorkingHours) CandidateSlots(day time.Time) []Slot {
	start, end := w.Window(day)
	slots := make([]Slot, 0, w.EndHour-w.StartHour)
	for t := start; !t.Add(SlotLength).After(end); t = t.Add(SlotLength) {
		slots = append(slots, Slot{Start: t, End: t.Add(SlotLength)})
	}
	return slots
}

// FreeSlots keeps the candidates that overlap none of the busy intervals,
// preserving their order.
func FreeSlots(candidates []Slot, busy []calendar.TimeRange) []Slot {
	var free []Slot
	for _, s := range candidates {
		available := true
		for _, b := range busy {
			if s.Range().Overlaps(b) {
				available = false
				break
			}
		}
		if available {
			free = append(free, s)
		}
	}
	return free
}
