package google

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Event is the subset of a calendar event used by analysis steps.
type Event struct {
	ID        string
	Summary   string
	Start     string
	End       string
	Location  string
	Attendees int
}

// CalendarClient lists upcoming events from the user's primary calendar.
type CalendarClient struct {
	cred *Credential

	// now is swappable for tests.
	now func() time.Time
}

// NewCalendarClient creates a CalendarClient with the given credential.
func NewCalendarClient(cred *Credential) *CalendarClient {
	return &CalendarClient{cred: cred, now: time.Now}
}

// UpcomingEvents fetches up to max upcoming events ordered by start time.
func (c *CalendarClient) UpcomingEvents(ctx context.Context, max int64) ([]Event, error) {
	if c.cred == nil {
		return nil, ErrNotConnected
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(c.cred.HTTPClient(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	list, err := svc.Events.List("primary").
		MaxResults(max).
		TimeMin(c.now().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, classifyErr(err)
	}

	events := make([]Event, 0, len(list.Items))
	for _, item := range list.Items {
		ev := Event{
			ID:        item.Id,
			Summary:   item.Summary,
			Location:  item.Location,
			Attendees: len(item.Attendees),
		}
		if item.Start != nil {
			ev.Start = item.Start.DateTime
			if ev.Start == "" {
				ev.Start = item.Start.Date
			}
		}
		if item.End != nil {
			ev.End = item.End.DateTime
			if ev.End == "" {
				ev.End = item.End.Date
			}
		}
		events = append(events, ev)
	}

	return events, nil
}
