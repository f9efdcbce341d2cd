// Package calendar is the capability provider for listing and creating
// events on a CalDAV server (Radicale, Nextcloud, Fastmail, and
// similar).
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"

	"github.com/stewardbot/steward/internal/buildinfo"
	"github.com/stewardbot/steward/internal/dispatch"
	"github.com/stewardbot/steward/internal/httpkit"
)

const requestTimeout = 30 * time.Second

// Event is a normalized calendar entry.
type Event struct {
	Summary  string
	Start    time.Time
	End      time.Time
	Location string
	AllDay   bool
}

// Manager talks to one CalDAV calendar collection. It implements the
// calendar capability contract.
type Manager struct {
	client       *caldav.Client
	calendarPath string // resolved lazily
	now          func() time.Time
	logger       *slog.Logger
}

// New connects to a CalDAV endpoint with basic auth. The calendar
// collection is discovered on first use.
func New(endpoint, username, password string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base := httpkit.NewClient(
		httpkit.WithTimeout(requestTimeout),
		httpkit.WithUserAgent(buildinfo.UserAgent()),
	)
	var hc webdav.HTTPClient = base
	if username != "" {
		hc = webdav.HTTPClientWithBasicAuth(base, username, password)
	}

	client, err := caldav.NewClient(hc, endpoint)
	if err != nil {
		return nil, fmt.Errorf("creating caldav client: %w", err)
	}
	return &Manager{client: client, now: time.Now, logger: logger}, nil
}

// findCalendar discovers the first calendar collection under the
// current user's home set and caches its path.
func (m *Manager) findCalendar(ctx context.Context) (string, error) {
	if m.calendarPath != "" {
		return m.calendarPath, nil
	}

	principal, err := m.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("finding principal: %w", err)
	}
	homeSet, err := m.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("finding calendar home: %w", err)
	}
	calendars, err := m.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("listing calendars: %w", err)
	}
	if len(calendars) == 0 {
		return "", fmt.Errorf("no calendars on the server")
	}

	m.calendarPath = calendars[0].Path
	m.logger.Debug("calendar discovered", "path", m.calendarPath, "name", calendars[0].Name)
	return m.calendarPath, nil
}

// periodRange turns a spoken time period into a concrete window.
// Unrecognized phrases fall back to the next 7 days.
func periodRange(period string, now time.Time) (time.Time, time.Time) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch strings.ToLower(strings.TrimSpace(period)) {
	case "today":
		return dayStart, dayStart.AddDate(0, 0, 1)
	case "tomorrow":
		return dayStart.AddDate(0, 0, 1), dayStart.AddDate(0, 0, 2)
	case "this week", "week":
		// Week starts Monday.
		offset := (int(now.Weekday()) + 6) % 7
		weekStart := dayStart.AddDate(0, 0, -offset)
		return weekStart, weekStart.AddDate(0, 0, 7)
	case "next week":
		offset := (int(now.Weekday()) + 6) % 7
		weekStart := dayStart.AddDate(0, 0, 7-offset)
		return weekStart, weekStart.AddDate(0, 0, 7)
	case "this month":
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return monthStart, monthStart.AddDate(0, 1, 0)
	default:
		return dayStart, dayStart.AddDate(0, 0, 7)
	}
}

// ListEvents returns a user-facing summary of events in the spoken
// time period, capped at maxResults.
func (m *Manager) ListEvents(ctx context.Context, timePeriod string, maxResults int) (string, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	start, end := periodRange(timePeriod, m.now())

	events, err := m.eventsBetween(ctx, start, end)
	if err != nil {
		m.logger.Warn("calendar query failed", "period", timePeriod, "error", err)
		return "", fmt.Errorf("I couldn't reach your calendar")
	}
	if len(events) == 0 {
		return fmt.Sprintf("You have no events %s.", describePeriod(timePeriod)), nil
	}
	if len(events) > maxResults {
		events = events[:maxResults]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here's what's on your calendar %s:\n", describePeriod(timePeriod))
	for _, ev := range events {
		if ev.AllDay {
			fmt.Fprintf(&b, "- %s (%s, all day)\n", ev.Summary, ev.Start.Format("Mon Jan 2"))
			continue
		}
		fmt.Fprintf(&b, "- %s (%s)", ev.Summary, ev.Start.Format("Mon Jan 2 15:04"))
		if ev.Location != "" {
			fmt.Fprintf(&b, " at %s", ev.Location)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func describePeriod(period string) string {
	p := strings.ToLower(strings.TrimSpace(period))
	switch p {
	case "", "next 7 days":
		return "over the next 7 days"
	case "today", "tomorrow":
		return p
	default:
		return "for " + p
	}
}

// eventsBetween queries the server for events in [start, end), sorted
// by start time.
func (m *Manager) eventsBetween(ctx context.Context, start, end time.Time) ([]Event, error) {
	path, err := m.findCalendar(ctx)
	if err != nil {
		return nil, err
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{
				Name:     ical.CompEvent,
				AllProps: true,
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: start,
				End:   end,
			}},
		},
	}

	objects, err := m.client.QueryCalendar(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("querying calendar: %w", err)
	}

	var events []Event
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, ev := range obj.Data.Events() {
			parsed, err := parseEvent(ev)
			if err != nil {
				m.logger.Warn("skipping unreadable event", "path", obj.Path, "error", err)
				continue
			}
			events = append(events, parsed)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, nil
}

func parseEvent(ev ical.Event) (Event, error) {
	var out Event
	if p := ev.Props.Get(ical.PropSummary); p != nil {
		out.Summary = p.Value
	}
	start, err := ev.DateTimeStart(time.Local)
	if err != nil {
		return out, fmt.Errorf("event start: %w", err)
	}
	out.Start = start
	if end, err := ev.DateTimeEnd(time.Local); err == nil {
		out.End = end
	}
	if p := ev.Props.Get(ical.PropLocation); p != nil {
		out.Location = p.Value
	}
	if p := ev.Props.Get(ical.PropDateTimeStart); p != nil {
		out.AllDay = p.ValueType() == ical.ValueDate
	}
	return out, nil
}

// parseISO accepts RFC 3339 or a zone-less local timestamp, the two
// forms the classifier produces.
func parseISO(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", s, time.Local)
}

// CreateEvent writes a new VEVENT to the calendar and confirms it.
func (m *Manager) CreateEvent(ctx context.Context, req dispatch.EventRequest) (string, error) {
	start, err := parseISO(req.StartISO)
	if err != nil {
		return "", fmt.Errorf("I couldn't understand the start time %q", req.StartISO)
	}
	end, err := parseISO(req.EndISO)
	if err != nil {
		return "", fmt.Errorf("I couldn't understand the end time %q", req.EndISO)
	}
	if !end.After(start) {
		return "", fmt.Errorf("the event's end time must be after its start time")
	}

	path, err := m.findCalendar(ctx)
	if err != nil {
		m.logger.Warn("calendar discovery failed", "error", err)
		return "", fmt.Errorf("I couldn't reach your calendar")
	}

	uid := uuid.NewString()

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, uid)
	event.Props.SetText(ical.PropSummary, req.Summary)
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start)
	event.Props.SetDateTime(ical.PropDateTimeEnd, end)
	if req.Description != "" {
		event.Props.SetText(ical.PropDescription, req.Description)
	}
	for _, attendee := range req.Attendees {
		prop := ical.NewProp(ical.PropAttendee)
		prop.Value = "mailto:" + attendee
		event.Props.Add(prop)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//steward//"+buildinfo.Version+"//EN")
	cal.Children = append(cal.Children, event.Component)

	objPath := strings.TrimRight(path, "/") + "/" + uid + ".ics"
	if _, err := m.client.PutCalendarObject(ctx, objPath, cal); err != nil {
		m.logger.Warn("event creation failed", "error", err)
		return "", fmt.Errorf("I couldn't create the event on your calendar")
	}
	return fmt.Sprintf("Created %q on %s.", req.Summary, start.Format("Mon Jan 2 at 15:04")), nil
}
