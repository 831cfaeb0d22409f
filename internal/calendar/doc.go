// Package calendar is the calendar gateway used by the scheduling tools.
//
// The core only needs two operations, listing the events that intersect a
// time window and inserting a new event, captured by the Gateway interface.
// GoogleGateway implements it on top of the Google Calendar v3 API using a
// service account; MemoryGateway keeps events in process and is used for
// local runs and tests.
package calendar
