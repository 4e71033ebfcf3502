package api

import (
	"context"
	"fmt"
)

// Doctor is a doctor record as returned by the backend.
type Doctor struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
	ClinicID   *int64 `json:"clinic_id"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

// Clinic is a clinic record as returned by the backend.
type Clinic struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	LogoURL string `json:"logo_url"`
	Address string `json:"address"`
}

// GetDoctor fetches one doctor record.
func (c *Client) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	var out Doctor
	if err := c.get(ctx, fmt.Sprintf("/dashboard/doctors/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetClinic fetches one clinic record.
func (c *Client) GetClinic(ctx context.Context, id int64) (*Clinic, error) {
	var out Clinic
	if err := c.get(ctx, fmt.Sprintf("/dashboard/clinics/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
