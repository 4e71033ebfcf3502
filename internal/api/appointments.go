package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Appointment statuses used by both dashboards.
const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no_show"
)

type Appointment struct {
	ID          int64     `json:"id"`
	DoctorID    int64     `json:"doctor_id"`
	PatientID   int64     `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason"`
	Notes       string    `json:"notes"`
}

// AppointmentQuery filters the appointment list. Zero values are omitted.
type AppointmentQuery struct {
	DoctorID int64
	Day      string // "2026-08-31"
	Status   string
}

func (q AppointmentQuery) values() url.Values {
	v := url.Values{}
	if q.DoctorID != 0 {
		v.Set("doctor_id", strconv.FormatInt(q.DoctorID, 10))
	}
	if q.Day != "" {
		v.Set("day", q.Day)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	return v
}

// ListAppointments returns appointments matching the query.
func (c *Client) ListAppointments(ctx context.Context, q AppointmentQuery) ([]Appointment, error) {
	var out []Appointment
	if err := c.get(ctx, "/dashboard/appointments", q.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateAppointmentStatus transitions one appointment to a new status.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, id int64, status string) (*Appointment, error) {
	var out Appointment
	body := map[string]string{"status": status}
	if err := c.patch(ctx, fmt.Sprintf("/dashboard/appointments/%d", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
