package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

type Patient struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	ClinicID    *int64 `json:"clinic_id"`
}

// PatientQuery filters and pages the patient list.
type PatientQuery struct {
	Search  string
	Page    int
	PerPage int
}

func (q PatientQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	return v
}

// ListPatients returns patients matching the query.
func (c *Client) ListPatients(ctx context.Context, q PatientQuery) ([]Patient, error) {
	var out []Patient
	if err := c.get(ctx, "/dashboard/patients", q.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPatient fetches one patient record.
func (c *Client) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	var out Patient
	if err := c.get(ctx, fmt.Sprintf("/dashboard/patients/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
