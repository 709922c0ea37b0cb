package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// CalendarEvent is the remote event created for a booking.
type CalendarEvent struct {
	RequestID     string
	Summary       string
	Description   string
	Start         time.Time
	End           time.Time
	TimeZone      string
	AttendeeName  string
	AttendeeEmail string
}

// CalendarSyncer creates the host-side calendar event for a booking and
// returns the remote event id.
type CalendarSyncer interface {
	CreateEvent(ctx context.Context, hostID string, evt CalendarEvent) (string, error)
}

// GoogleCalendar inserts events into the host's primary Google calendar using
// the OAuth token stored for that host.
type GoogleCalendar struct {
	config     *oauth2.Config
	tokens     TokenStore
	calendarID string
	endpoint   string
}

func NewGoogleCalendar(clientID, clientSecret, redirectURL string, tokens TokenStore) *GoogleCalendar {
	return &GoogleCalendar{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				calendar.CalendarEventsScope,
			},
			Endpoint: google.Endpoint,
		},
		tokens:     tokens,
		calendarID: "primary",
	}
}

func (g *GoogleCalendar) CreateEvent(ctx context.Context, hostID string, evt CalendarEvent) (string, error) {
	token, err := g.tokens.HostToken(ctx, hostID)
	if err != nil {
		return "", fmt.Errorf("load calendar token: %w", err)
	}

	opts := []option.ClientOption{option.WithHTTPClient(g.config.Client(ctx, token))}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create calendar service: %w", err)
	}

	created, err := srv.Events.Insert(g.calendarID, googleEvent(evt)).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}
	return created.Id, nil
}

func googleEvent(evt CalendarEvent) *calendar.Event {
	return &calendar.Event{
		Summary:     evt.Summary,
		Description: evt.Description,
		Start: &calendar.EventDateTime{
			DateTime: evt.Start.Format(time.RFC3339),
			TimeZone: evt.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: evt.End.Format(time.RFC3339),
			TimeZone: evt.TimeZone,
		},
		Attendees: []*calendar.EventAttendee{
			{Email: evt.AttendeeEmail, DisplayName: evt.AttendeeName},
		},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: evt.RequestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		},
	}
}

// NoopCalendar stands in when Google credentials are not configured.
type NoopCalendar struct{}

func (NoopCalendar) CreateEvent(context.Context, string, CalendarEvent) (string, error) {
	return "", nil
}
