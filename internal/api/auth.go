package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// LoginRequest carries dashboard credentials. MFACode is empty on the first
// submission; when the backend answers mfa_required, the caller re-submits
// with the 6-digit code filled in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfa_code,omitempty"`
}

// LoginResponse is the backend's answer to a login submission. When
// MFARequired is true no token has been issued yet.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	MFARequired bool   `json:"mfa_required"`
}

// ErrNoTokenInRefresh is returned when the refresh endpoint answers 2xx but
// carries no recognizable token field.
var ErrNoTokenInRefresh = errors.New("api: refresh response missing token")

// LoginAdmin authenticates an administrator.
func (c *Client) LoginAdmin(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	return c.login(ctx, "/dashboard/auth/admin/login", req)
}

// LoginDoctor authenticates a doctor.
func (c *Client) LoginDoctor(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	return c.login(ctx, "/dashboard/auth/doctor/login", req)
}

func (c *Client) login(ctx context.Context, path string, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, http.MethodPost, path, nil, req, &out, false)
	if err != nil {
		// A 401 on an MFA submission means the code was wrong, not the
		// credentials; the two must be distinguishable at the form.
		if req.MFACode != "" && IsStatus(err, http.StatusUnauthorized) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMFACode, err)
		}
		return nil, err
	}
	return &out, nil
}

// refreshResponse tolerates the field names the backend has used for the
// new token across versions.
type refreshResponse struct {
	AccessToken      string `json:"access_token"`
	Token            string `json:"token"`
	AccessTokenCamel string `json:"accessToken"`
}

func (r refreshResponse) token() string {
	switch {
	case r.AccessToken != "":
		return r.AccessToken
	case r.Token != "":
		return r.Token
	default:
		return r.AccessTokenCamel
	}
}

// Refresh asks the backend for a new access token using the HTTP-only
// refresh cookie held in the client's jar. No bearer header is sent.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	var out refreshResponse
	if err := c.do(ctx, http.MethodPost, "/dashboard/auth/refresh", nil, nil, &out, false); err != nil {
		return "", err
	}
	token := out.token()
	if token == "" {
		return "", ErrNoTokenInRefresh
	}
	return token, nil
}

// Logout asks the backend to revoke the refresh cookie. Best-effort; local
// session teardown does not depend on it succeeding.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/dashboard/auth/logout", nil, nil, nil, false)
}
