package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/tilford/calhold/internal/domain"
)

// Client reads free/busy data from Google Calendar. It implements
// app.BusySource: busy periods are an opaque read-only overlay for conflict
// checking, the client never mutates calendar state.
type Client struct {
	oauth *oauth2.Config
}

// NewClient creates a free/busy client for the given OAuth application.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{calendar.CalendarReadonlyScope},
		},
	}
}

// BusyIntervals queries the account's calendar for busy periods inside the
// window. The account's stored credential blob is a JSON-encoded OAuth token;
// refreshes happen transparently through the token source.
func (c *Client) BusyIntervals(ctx context.Context, account domain.CalendarAccount, window domain.Interval) ([]domain.Interval, error) {
	token, err := decodeToken(account.Credentials)
	if err != nil {
		return nil, fmt.Errorf("credentials for %s: %w", account.CalendarEmail, err)
	}

	svc, err := calendar.NewService(ctx, option.WithTokenSource(c.oauth.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	req := &calendar.FreeBusyRequest{
		TimeMin: window.Start.Format(time.RFC3339),
		TimeMax: window.End.Format(time.RFC3339),
		Items: []*calendar.FreeBusyRequestItem{
			{Id: account.CalendarEmail},
		},
	}

	resp, err := svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query for %s: %w", account.CalendarEmail, err)
	}

	cal, ok := resp.Calendars[account.CalendarEmail]
	if !ok {
		return nil, nil
	}
	return parsePeriods(cal.Busy)
}

func decodeToken(blob []byte) (*oauth2.Token, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty credential blob")
	}
	var token oauth2.Token
	if err := json.Unmarshal(blob, &token); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	return &token, nil
}

// EncodeToken serializes an OAuth token into the opaque credential blob stored
// on a calendar account.
func EncodeToken(token *oauth2.Token) ([]byte, error) {
	return json.Marshal(token)
}

func parsePeriods(periods []*calendar.TimePeriod) ([]domain.Interval, error) {
	var out []domain.Interval
	for _, p := range periods {
		if p == nil {
			continue
		}
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return nil, fmt.Errorf("parse busy start %q: %w", p.Start, err)
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			return nil, fmt.Errorf("parse busy end %q: %w", p.End, err)
		}
		out = append(out, domain.Interval{Start: start, End: end})
	}
	return out, nil
}
