package tasks

import "fmt"

// TaskList represents a Microsoft To Do task list.
type TaskList struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	IsOwner           bool   `json:"isOwner,omitempty"`
	WellknownListName string `json:"wellknownListName,omitempty"`
}

// Task represents a Microsoft To Do task.
type Task struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Status          string        `json:"status,omitempty"`
	Importance      string        `json:"importance,omitempty"`
	CreatedDateTime string        `json:"createdDateTime,omitempty"`
	DueDateTime     *DateTimeZone `json:"dueDateTime,omitempty"`
}

// DateTimeZone contains a date-time with time zone.
type DateTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// StatusCompleted is the Graph status value for a finished task.
const StatusCompleted = "completed"

// IsCompleted reports whether the task is done.
func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// FormatLine renders a task as a single list line with a checkbox marker.
func FormatLine(task *Task) string {
	marker := "○"
	if task.IsCompleted() {
		marker = "✓"
	}
	line := fmt.Sprintf("%s %s", marker, task.Title)
	if task.DueDateTime != nil && task.DueDateTime.DateTime != "" {
		line += fmt.Sprintf(" (due %s)", task.DueDateTime.DateTime)
	}
	return line
}
