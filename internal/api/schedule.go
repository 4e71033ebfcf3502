package api

import (
	"context"
	"fmt"
)

// DayHours represents the working hours for a single day.
// Nil means the doctor does not work that day.
type DayHours struct {
	Open  string `json:"open"`  // "09:00" in 24-hour format
	Close string `json:"close"` // "18:00" in 24-hour format
}

// WeeklyHours maps day names to their hours.
type WeeklyHours struct {
	Monday    *DayHours `json:"monday,omitempty"`
	Tuesday   *DayHours `json:"tuesday,omitempty"`
	Wednesday *DayHours `json:"wednesday,omitempty"`
	Thursday  *DayHours `json:"thursday,omitempty"`
	Friday    *DayHours `json:"friday,omitempty"`
	Saturday  *DayHours `json:"saturday,omitempty"`
	Sunday    *DayHours `json:"sunday,omitempty"`
}

// OffDay is a single full-day absence.
type OffDay struct {
	ID       int64  `json:"id"`
	DoctorID int64  `json:"doctor_id"`
	Date     string `json:"date"` // "2026-09-14"
	Reason   string `json:"reason,omitempty"`
}

// GetWorkingHours fetches a doctor's weekly working hours.
func (c *Client) GetWorkingHours(ctx context.Context, doctorID int64) (*WeeklyHours, error) {
	var out WeeklyHours
	if err := c.get(ctx, fmt.Sprintf("/dashboard/doctors/%d/hours", doctorID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetWorkingHours replaces a doctor's weekly working hours.
func (c *Client) SetWorkingHours(ctx context.Context, doctorID int64, hours WeeklyHours) error {
	return c.patch(ctx, fmt.Sprintf("/dashboard/doctors/%d/hours", doctorID), hours, nil)
}

// ListOffDays returns a doctor's scheduled off days.
func (c *Client) ListOffDays(ctx context.Context, doctorID int64) ([]OffDay, error) {
	var out []OffDay
	if err := c.get(ctx, fmt.Sprintf("/dashboard/doctors/%d/offdays", doctorID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddOffDay schedules a full-day absence.
func (c *Client) AddOffDay(ctx context.Context, doctorID int64, date, reason string) (*OffDay, error) {
	var out OffDay
	body := map[string]string{"date": date, "reason": reason}
	if err := c.post(ctx, fmt.Sprintf("/dashboard/doctors/%d/offdays", doctorID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveOffDay cancels a scheduled absence.
func (c *Client) RemoveOffDay(ctx context.Context, doctorID, offDayID int64) error {
	return c.delete(ctx, fmt.Sprintf("/dashboard/doctors/%d/offdays/%d", doctorID, offDayID))
}
