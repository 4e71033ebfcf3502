package api

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Refill request statuses.
const (
	RefillPending  = "pending"
	RefillApproved = "approved"
	RefillDenied   = "denied"
)

type RefillRequest struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	Medication  string    `json:"medication"`
	Dosage      string    `json:"dosage"`
	RequestedAt time.Time `json:"requested_at"`
	Status      string    `json:"status"`
	DenyReason  string    `json:"deny_reason,omitempty"`
}

// ListRefillRequests returns refill requests, optionally filtered by status.
func (c *Client) ListRefillRequests(ctx context.Context, status string) ([]RefillRequest, error) {
	v := url.Values{}
	if status != "" {
		v.Set("status", status)
	}
	var out []RefillRequest
	if err := c.get(ctx, "/dashboard/refills", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApproveRefill approves a pending refill request.
func (c *Client) ApproveRefill(ctx context.Context, id int64) (*RefillRequest, error) {
	var out RefillRequest
	if err := c.post(ctx, fmt.Sprintf("/dashboard/refills/%d/approve", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DenyRefill denies a pending refill request with a reason shown to the
// patient-facing side.
func (c *Client) DenyRefill(ctx context.Context, id int64, reason string) (*RefillRequest, error) {
	var out RefillRequest
	body := map[string]string{"reason": reason}
	if err := c.post(ctx, fmt.Sprintf("/dashboard/refills/%d/deny", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
