// Package calendar provides Outlook calendar operations via Microsoft Graph.
package calendar

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gwenonit/outlook-cli/internal/connectors/microsoft"
)

// Client performs calendar operations for one account.
type Client struct {
	graph *microsoft.Client
}

// NewClient creates a calendar client on top of a Graph client.
func NewClient(graph *microsoft.Client) *Client {
	return &Client{graph: graph}
}

// List returns events whose time overlaps [start, end), ordered by start.
func (c *Client) List(ctx context.Context, start, end time.Time) ([]Event, error) {
	query := url.Values{}
	query.Set("startDateTime", start.UTC().Format(time.RFC3339))
	query.Set("endDateTime", end.UTC().Format(time.RFC3339))
	query.Set("$orderby", "start/dateTime")
	query.Set("$select", "id,subject,start,end,location,attendees,bodyPreview,isAllDay,isCancelled")

	var resp listResponse
	if err := c.graph.Get(ctx, "/me/calendarView", query, &resp); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return resp.Value, nil
}

// eventPatch is the mutable portion of an event for create and update.
// Nil fields are omitted so partial updates only touch what changed.
type eventPatch struct {
	Subject   string        `json:"subject,omitempty"`
	Start     *DateTimeZone `json:"start,omitempty"`
	End       *DateTimeZone `json:"end,omitempty"`
	Location  *Location     `json:"location,omitempty"`
	Attendees []Attendee    `json:"attendees,omitempty"`
}

// Create creates an event and returns it. Times are ISO 8601 strings
// interpreted as UTC, matching the Graph dateTimeTimeZone shape.
func (c *Client) Create(
	ctx context.Context,
	subject, startTime, endTime, location string,
	attendees []Attendee,
) (*Event, error) {
	payload := eventPatch{
		Subject:   subject,
		Start:     &DateTimeZone{DateTime: startTime, TimeZone: "UTC"},
		End:       &DateTimeZone{DateTime: endTime, TimeZone: "UTC"},
		Attendees: attendees,
	}
	if location != "" {
		payload.Location = &Location{DisplayName: location}
	}

	var event Event
	if err := c.graph.Post(ctx, "/me/events", payload, &event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &event, nil
}

// Update patches an event. Empty fields are left unchanged.
func (c *Client) Update(
	ctx context.Context,
	eventID, subject, startTime, endTime, location string,
) (*Event, error) {
	var payload eventPatch
	payload.Subject = subject
	if startTime != "" {
		payload.Start = &DateTimeZone{DateTime: startTime, TimeZone: "UTC"}
	}
	if endTime != "" {
		payload.End = &DateTimeZone{DateTime: endTime, TimeZone: "UTC"}
	}
	if location != "" {
		payload.Location = &Location{DisplayName: location}
	}

	var event Event
	if err := c.graph.Patch(ctx, "/me/events/"+url.PathEscape(eventID), payload, &event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return &event, nil
}

// Delete removes an event.
func (c *Client) Delete(ctx context.Context, eventID string) error {
	if err := c.graph.Delete(ctx, "/me/events/"+url.PathEscape(eventID)); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// GetSchedule returns free/busy information for the given attendees in
// 30-minute slots across [start, end).
func (c *Client) GetSchedule(ctx context.Context, start, end time.Time, attendees []string) ([]ScheduleInfo, error) {
	payload := struct {
		Schedules                []string     `json:"schedules"`
		StartTime                DateTimeZone `json:"startTime"`
		EndTime                  DateTimeZone `json:"endTime"`
		AvailabilityViewInterval int          `json:"availabilityViewInterval"`
	}{
		Schedules:                attendees,
		StartTime:                DateTimeZone{DateTime: start.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		EndTime:                  DateTimeZone{DateTime: end.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		AvailabilityViewInterval: 30,
	}

	var resp struct {
		Value []ScheduleInfo `json:"value"`
	}
	if err := c.graph.Post(ctx, "/me/calendar/getSchedule", payload, &resp); err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return resp.Value, nil
}
