// Package scheduling implements the two booking capabilities: computing the
// free one-hour slots of a working day and writing a one-hour appointment.
//
// Both work against a calendar.Gateway and report bad input as
// *tools.ValidationError and gateway failures as *tools.ExternalServiceError.
package scheduling
