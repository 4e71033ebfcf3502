package api

import (
	"context"
	"net/url"
	"time"
)

// Call directions and outcomes recorded by the front desk phone system.
const (
	CallInbound  = "inbound"
	CallOutbound = "outbound"

	CallAnswered  = "answered"
	CallMissed    = "missed"
	CallVoicemail = "voicemail"
)

type CallLog struct {
	ID              int64     `json:"id"`
	PatientID       *int64    `json:"patient_id"`
	CallerName      string    `json:"caller_name"`
	CallerNumber    string    `json:"caller_number"`
	Direction       string    `json:"direction"`
	Outcome         string    `json:"outcome"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds int       `json:"duration_seconds"`
	Notes           string    `json:"notes"`
}

// CallQuery filters the call log list.
type CallQuery struct {
	Direction string
	Outcome   string
}

func (q CallQuery) values() url.Values {
	v := url.Values{}
	if q.Direction != "" {
		v.Set("direction", q.Direction)
	}
	if q.Outcome != "" {
		v.Set("outcome", q.Outcome)
	}
	return v
}

// ListCalls returns call log entries matching the query.
func (c *Client) ListCalls(ctx context.Context, q CallQuery) ([]CallLog, error) {
	var out []CallLog
	if err := c.get(ctx, "/dashboard/calls", q.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}
