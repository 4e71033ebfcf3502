package api

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// FrontDeskMessage is a message taken at the front desk awaiting triage.
type FrontDeskMessage struct {
	ID               int64     `json:"id"`
	PatientName      string    `json:"patient_name"`
	Phone            string    `json:"phone"`
	Body             string    `json:"body"`
	ReceivedAt       time.Time `json:"received_at"`
	Handled          bool      `json:"handled"`
	AssignedDoctorID *int64    `json:"assigned_doctor_id"`
}

// ListMessages returns front-desk messages. handled nil returns all;
// otherwise only handled/unhandled ones.
func (c *Client) ListMessages(ctx context.Context, handled *bool) ([]FrontDeskMessage, error) {
	v := url.Values{}
	if handled != nil {
		v.Set("handled", fmt.Sprintf("%t", *handled))
	}
	var out []FrontDeskMessage
	if err := c.get(ctx, "/dashboard/messages", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkMessageHandled closes out a front-desk message.
func (c *Client) MarkMessageHandled(ctx context.Context, id int64) (*FrontDeskMessage, error) {
	var out FrontDeskMessage
	body := map[string]bool{"handled": true}
	if err := c.patch(ctx, fmt.Sprintf("/dashboard/messages/%d", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssignMessage routes a front-desk message to a doctor.
func (c *Client) AssignMessage(ctx context.Context, id, doctorID int64) (*FrontDeskMessage, error) {
	var out FrontDeskMessage
	body := map[string]int64{"assigned_doctor_id": doctorID}
	if err := c.patch(ctx, fmt.Sprintf("/dashboard/messages/%d", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
