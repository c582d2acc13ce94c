package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gwenonit/outlook-cli/internal/connectors/microsoft"
	"github.com/gwenonit/outlook-cli/internal/connectors/microsoft/calendar"
)

var calendarCmd = &cobra.Command{
	Use:     "calendar",
	Aliases: []string{"cal"},
	Short:   "View and manage calendar events",
}

var calendarListCmd = &cobra.Command{
	Use:   "list",
	Short: "List upcoming events",
	Long: `List events in a date range, soonest first.

By default the next 7 days are shown; --today narrows the range to the
current day and --days widens or shrinks it.`,
	Args: cobra.NoArgs,
	RunE: runCalendarList,
}

var calendarCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an event",
	Long: `Create a calendar event.

Times accept '2006-01-02 15:04' or RFC 3339 and are interpreted in the
local timezone unless an offset is given.

Examples:
  outlook calendar create --summary "Standup" --from "2026-09-01 09:00" --to "2026-09-01 09:15"
  outlook calendar create --summary "Review" --from "2026-09-01 14:00" --to "2026-09-01 15:00" \
    --location "Room 4" --attendees alice@example.com,bob@example.com`,
	Args: cobra.NoArgs,
	RunE: runCalendarCreate,
}

var calendarUpdateCmd = &cobra.Command{
	Use:   "update [event-id]",
	Short: "Update an event",
	Long:  `Update an event's fields. Flags that are not given leave the field unchanged.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCalendarUpdate,
}

var calendarDeleteCmd = &cobra.Command{
	Use:   "delete [event-id]",
	Short: "Delete an event",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalendarDelete,
}

var calendarScheduleCmd = &cobra.Command{
	Use:   "schedule [emails...]",
	Short: "Show free/busy information for attendees",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCalendarSchedule,
}

// Flags for calendar commands.
var (
	calToday     bool
	calDays      int
	calSummary   string
	calFrom      string
	calTo        string
	calLocation  string
	calAttendees string
)

func init() {
	calendarListCmd.Flags().BoolVar(&calToday, "today", false, "only show today's events")
	calendarListCmd.Flags().IntVar(&calDays, "days", 7, "number of days to show")

	calendarCreateCmd.Flags().StringVar(&calSummary, "summary", "", "event subject (required)")
	calendarCreateCmd.Flags().StringVar(&calFrom, "from", "", "start time (required)")
	calendarCreateCmd.Flags().StringVar(&calTo, "to", "", "end time (required)")
	calendarCreateCmd.Flags().StringVar(&calLocation, "location", "", "event location")
	calendarCreateCmd.Flags().StringVar(&calAttendees, "attendees", "", "comma-separated attendee addresses")
	_ = calendarCreateCmd.MarkFlagRequired("summary")
	_ = calendarCreateCmd.MarkFlagRequired("from")
	_ = calendarCreateCmd.MarkFlagRequired("to")

	calendarUpdateCmd.Flags().StringVar(&calSummary, "summary", "", "new event subject")
	calendarUpdateCmd.Flags().StringVar(&calFrom, "from", "", "new start time")
	calendarUpdateCmd.Flags().StringVar(&calTo, "to", "", "new end time")
	calendarUpdateCmd.Flags().StringVar(&calLocation, "location", "", "new event location")

	calendarScheduleCmd.Flags().StringVar(&calFrom, "from", "", "window start (default now)")
	calendarScheduleCmd.Flags().StringVar(&calTo, "to", "", "window end (default start + 8h)")

	calendarCmd.AddCommand(calendarListCmd)
	calendarCmd.AddCommand(calendarCreateCmd)
	calendarCmd.AddCommand(calendarUpdateCmd)
	calendarCmd.AddCommand(calendarDeleteCmd)
	calendarCmd.AddCommand(calendarScheduleCmd)
	rootCmd.AddCommand(calendarCmd)
}

// calendarClient builds a calendar client for the resolved account.
func calendarClient(cmd *cobra.Command) (*calendar.Client, error) {
	if authService == nil {
		return nil, errors.New("auth service not configured")
	}
	account, err := currentAccount(cmd)
	if err != nil {
		return nil, err
	}
	return calendar.NewClient(microsoft.NewClient(authService, account, microsoft.ServiceCalendar)), nil
}

// eventTimeLayouts are the accepted --from/--to formats, tried in order.
var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseEventTime parses a user-supplied time in the local timezone.
func parseEventTime(value string) (time.Time, error) {
	for _, layout := range eventTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q (expected e.g. 2006-01-02 15:04)", value)
}

// graphTime renders a time the way the Graph dateTimeTimeZone shape
// expects when the accompanying timeZone is UTC.
func graphTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05")
}

func runCalendarList(cmd *cobra.Command, _ []string) error {
	client, err := calendarClient(cmd)
	if err != nil {
		return err
	}

	days := calDays
	if calToday {
		days = 1
	}
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 0, days)

	events, err := client.List(cmd.Context(), start, end)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, events)
	}

	if len(events) == 0 {
		cmd.Println("No events.")
		return nil
	}
	for i := range events {
		cmd.Println(calendar.FormatLine(&events[i]))
	}
	return nil
}

func runCalendarCreate(cmd *cobra.Command, _ []string) error {
	client, err := calendarClient(cmd)
	if err != nil {
		return err
	}

	start, err := parseEventTime(calFrom)
	if err != nil {
		return err
	}
	end, err := parseEventTime(calTo)
	if err != nil {
		return err
	}
	if !end.After(start) {
		return errors.New("--to must be after --from")
	}

	attendees := calendar.NewAttendees(strings.Split(calAttendees, ","))

	event, err := client.Create(cmd.Context(), calSummary, graphTime(start), graphTime(end), calLocation, attendees)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, event)
	}
	cmd.Printf("Created event: %s\n", event.ID)
	return nil
}

func runCalendarUpdate(cmd *cobra.Command, args []string) error {
	client, err := calendarClient(cmd)
	if err != nil {
		return err
	}

	var startTime, endTime string
	if calFrom != "" {
		start, err := parseEventTime(calFrom)
		if err != nil {
			return err
		}
		startTime = graphTime(start)
	}
	if calTo != "" {
		end, err := parseEventTime(calTo)
		if err != nil {
			return err
		}
		endTime = graphTime(end)
	}
	if calSummary == "" && startTime == "" && endTime == "" && calLocation == "" {
		return errors.New("nothing to update: pass at least one of --summary, --from, --to, --location")
	}

	event, err := client.Update(cmd.Context(), args[0], calSummary, startTime, endTime, calLocation)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, event)
	}
	cmd.Printf("Updated event: %s\n", event.ID)
	return nil
}

func runCalendarDelete(cmd *cobra.Command, args []string) error {
	client, err := calendarClient(cmd)
	if err != nil {
		return err
	}

	if err := client.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	cmd.Printf("Deleted event: %s\n", args[0])
	return nil
}

func runCalendarSchedule(cmd *cobra.Command, args []string) error {
	client, err := calendarClient(cmd)
	if err != nil {
		return err
	}

	start := time.Now()
	if calFrom != "" {
		if start, err = parseEventTime(calFrom); err != nil {
			return err
		}
	}
	end := start.Add(8 * time.Hour)
	if calTo != "" {
		if end, err = parseEventTime(calTo); err != nil {
			return err
		}
	}
	if !end.After(start) {
		return errors.New("--to must be after --from")
	}

	schedules, err := client.GetSchedule(cmd.Context(), start, end, args)
	if err != nil {
		return fmt.Errorf("failed to fetch schedules: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, schedules)
	}

	for _, s := range schedules {
		cmd.Printf("  %s\n", s.ScheduleID)
		if len(s.ScheduleItems) == 0 {
			cmd.Println("    Free for the whole window.")
			continue
		}
		for _, item := range s.ScheduleItems {
			line := "    " + item.Status
			if item.Start != nil && item.End != nil {
				line = fmt.Sprintf("    %s: %s to %s", item.Status, item.Start.DateTime, item.End.DateTime)
			}
			cmd.Println(line)
		}
	}
	return nil
}
