// Package session implements the dashboard's session lifecycle: token
// decoding, the in-memory credential store, the one-shot refresh bootstrap,
// cross-instance logout propagation, and role-based route gating.
package session

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role identifies which dashboard views a session may use.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
)

// Claims are the fields read out of a bearer token payload.
type Claims struct {
	Role      Role
	SubjectID *int64
	ClinicID  *int64
	Name      string
	Email     string
	ExpiresAt time.Time
}

// DecodeToken reads the claims out of a bearer token payload. The backend
// signs tokens; the client never holds the key, so the signature is not
// verified here. Returns nil when the token is malformed, the payload is not
// valid JSON, or the expiry is in the past at now.
//
// A `sub` that is not an integer yields a nil SubjectID rather than a failed
// decode; callers must treat a nil SubjectID as unauthenticated for
// data-fetch purposes. The role value is not validated against the known
// roles — gating happens in CanAccess.
func DecodeToken(token string, now time.Time) *Claims {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return nil
	}

	claims := &Claims{}

	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		if exp.Time.Before(now) {
			return nil
		}
		claims.ExpiresAt = exp.Time
	}

	if role, ok := mapClaims["role"].(string); ok {
		claims.Role = Role(role)
	}
	if sub, err := mapClaims.GetSubject(); err == nil && sub != "" {
		if id, err := strconv.ParseInt(sub, 10, 64); err == nil {
			claims.SubjectID = &id
		}
	}
	if id, ok := numericClaim(mapClaims, "clinic_id"); ok {
		claims.ClinicID = &id
	}
	if name, ok := mapClaims["name"].(string); ok {
		claims.Name = name
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	return claims
}

// numericClaim reads an integer claim that may arrive as a JSON number or a
// quoted string.
func numericClaim(claims jwt.MapClaims, key string) (int64, bool) {
	switch v := claims[key].(type) {
	case float64:
		return int64(v), true
	case string:
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return id, true
		}
	}
	return 0, false
}
