package tools

import (
	"context"
	"encoding/json"
)

const (
	CheckAvailabilityName = "check_availability"
	CreateAppointmentName = "create_appointment"
)

// AvailabilityChecker lists free slots for a YYYY-MM-DD date.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, date string) (string, error)
}

// AppointmentCreator books a one-hour appointment.
type AppointmentCreator interface {
	CreateAppointment(ctx context.Context, startTime, summary string) (string, error)
}

// CheckAvailabilityTool exposes an AvailabilityChecker to the model.
type CheckAvailabilityTool struct {
	checker AvailabilityChecker
}

// NewCheckAvailabilityTool creates a new CheckAvailabilityTool
func NewCheckAvailabilityTool(checker AvailabilityChecker) *CheckAvailabilityTool {
	return &CheckAvailabilityTool{checker: checker}
}

// Name returns the name of the tool
func (t *CheckAvailabilityTool) Name() string { return CheckAvailabilityName }

// Description returns the description of the tool
func (t *CheckAvailabilityTool) Description() string {
	return "Checks for available 1-hour appointment slots on a given date (YYYY-MM-DD) " +
		"within working hours. Returns a list of available start times."
}

// Parameters returns the JSON schema of the arguments
func (t *CheckAvailabilityTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"date":{"type":"string","description":"Calendar date in YYYY-MM-DD format, e.g. 2024-07-30"}},"required":["date"]}`)
}

// Run runs the tool
func (t *CheckAvailabilityTool) Run(ctx context.Context, args map[string]any) (string, error) {
	date, err := stringArg(args, "date")
	if err != nil {
		return "", err
	}
	return t.checker.CheckAvailability(ctx, date)
}

// CreateAppointmentTool exposes an AppointmentCreator to the model.
type CreateAppointmentTool struct {
	creator AppointmentCreator
}

// NewCreateAppointmentTool creates a new CreateAppointmentTool
func NewCreateAppointmentTool(creator AppointmentCreator) *CreateAppointmentTool {
	return &CreateAppointmentTool{creator: creator}
}

// Name returns the name of the tool
func (t *CreateAppointmentTool) Name() string { return CreateAppointmentName }

// Description returns the description of the tool
func (t *CreateAppointmentTool) Description() string {
	return "Books a 1-hour appointment on the calendar at a specified start time with a given summary. " +
		"The start_time must be in ISO 8601 format with a UTC offset (e.g. '2024-07-30T14:00:00-07:00'). " +
		"The summary is the title of the event."
}

// Parameters returns the JSON schema of the arguments
func (t *CreateAppointmentTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"start_time":{"type":"string","description":"ISO 8601 start time with offset, e.g. 2024-07-30T14:00:00-07:00"},"summary":{"type":"string","description":"Title of the appointment"}},"required":["start_time","summary"]}`)
}

// Run runs the tool
func (t *CreateAppointmentTool) Run(ctx context.Context, args map[string]any) (string, error) {
	start, err := stringArg(args, "start_time")
	if err != nil {
		return "", err
	}
	summary, err := stringArg(args, "summary")
	if err != nil {
		return "", err
	}
	return t.creator.CreateAppointment(ctx, start, summary)
}
