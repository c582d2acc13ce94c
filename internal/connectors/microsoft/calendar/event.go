package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Event represents an Outlook calendar event from the Graph API.
type Event struct {
	ID          string        `json:"id"`
	Subject     string        `json:"subject"`
	BodyPreview string        `json:"bodyPreview,omitempty"`
	Start       *DateTimeZone `json:"start,omitempty"`
	End         *DateTimeZone `json:"end,omitempty"`
	Location    *Location     `json:"location,omitempty"`
	Attendees   []Attendee    `json:"attendees,omitempty"`
	IsAllDay    bool          `json:"isAllDay,omitempty"`
	IsCancelled bool          `json:"isCancelled,omitempty"`
	WebLink     string        `json:"webLink,omitempty"`
}

// DateTimeZone contains a date-time with time zone.
type DateTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Location contains location information.
type Location struct {
	DisplayName string `json:"displayName"`
}

// Attendee represents an event attendee.
type Attendee struct {
	Type         string `json:"type"`
	EmailAddress struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	} `json:"emailAddress"`
}

// listResponse is the Graph collection envelope for events.
type listResponse struct {
	Value    []Event `json:"value"`
	NextLink string  `json:"@odata.nextLink"`
}

// NewAttendees builds required attendees from email addresses.
func NewAttendees(emails []string) []Attendee {
	attendees := make([]Attendee, 0, len(emails))
	for _, email := range emails {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		var a Attendee
		a.Type = "required"
		a.EmailAddress.Address = email
		attendees = append(attendees, a)
	}
	return attendees
}

// ScheduleInfo is one attendee's availability from getSchedule.
type ScheduleInfo struct {
	ScheduleID       string `json:"scheduleId"`
	AvailabilityView string `json:"availabilityView"`
	ScheduleItems    []struct {
		Status string        `json:"status"`
		Start  *DateTimeZone `json:"start,omitempty"`
		End    *DateTimeZone `json:"end,omitempty"`
	} `json:"scheduleItems,omitempty"`
}

// FormatLine renders an event as a single list line: [start] subject (location).
func FormatLine(event *Event) string {
	start := ""
	if event.Start != nil {
		start = event.Start.DateTime
		if t, err := time.Parse("2006-01-02T15:04:05.0000000", start); err == nil {
			start = t.Format("2006-01-02 15:04")
		}
	}
	line := fmt.Sprintf("[%s] %s", start, event.Subject)
	if event.Location != nil && event.Location.DisplayName != "" {
		line += fmt.Sprintf(" (%s)", event.Location.DisplayName)
	}
	return line
}
