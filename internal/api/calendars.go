package api

import (
	"context"
	"fmt"
	"time"
)

// Calendar providers the backend can link.
const (
	CalendarGoogle    = "google"
	CalendarMicrosoft = "microsoft"
)

// LinkedCalendar is a third-party calendar account connected to a doctor.
// The backend owns the OAuth tokens and the sync; the dashboard only lists
// and unlinks.
type LinkedCalendar struct {
	ID       int64     `json:"id"`
	DoctorID int64     `json:"doctor_id"`
	Provider string    `json:"provider"`
	Email    string    `json:"email"`
	LinkedAt time.Time `json:"linked_at"`
}

// ListLinkedCalendars returns the calendar accounts linked to a doctor.
func (c *Client) ListLinkedCalendars(ctx context.Context, doctorID int64) ([]LinkedCalendar, error) {
	var out []LinkedCalendar
	if err := c.get(ctx, fmt.Sprintf("/dashboard/doctors/%d/calendars", doctorID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteCalendarLink hands the OAuth authorization code from the consent
// redirect to the backend, which performs the token exchange.
func (c *Client) CompleteCalendarLink(ctx context.Context, doctorID int64, provider, code, state string) (*LinkedCalendar, error) {
	var out LinkedCalendar
	body := map[string]string{"provider": provider, "code": code, "state": state}
	if err := c.post(ctx, fmt.Sprintf("/dashboard/doctors/%d/calendars", doctorID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnlinkCalendar disconnects a linked calendar account.
func (c *Client) UnlinkCalendar(ctx context.Context, doctorID, calendarID int64) error {
	return c.delete(ctx, fmt.Sprintf("/dashboard/doctors/%d/calendars/%d", doctorID, calendarID))
}
