package session

import "github.com/medidesk/dashboard/internal/api"

// AuthState is the three-valued authentication state. Before the bootstrap
// sequencer has finished, the state is AuthUnknown — not unauthenticated —
// so consumers do not flash a false redirect to login on startup.
type AuthState int

const (
	AuthUnknown AuthState = iota
	AuthAuthenticated
	AuthUnauthenticated
)

func (s AuthState) String() string {
	switch s {
	case AuthAuthenticated:
		return "authenticated"
	case AuthUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// BootstrapState tracks the one-shot silent refresh. Terminal states are
// sticky for the lifetime of the manager.
type BootstrapState int

const (
	BootstrapNotAttempted BootstrapState = iota
	BootstrapAttempting
	BootstrapSucceeded
	BootstrapFailed
)

// AdminProfile is synthesized from token claims; admins have no backend
// profile record.
type AdminProfile struct {
	ID    *int64
	Name  string
	Email string
}

// Profile is the role-specific aggregate loaded after a token change.
// For doctors, Doctor and Clinic are each nil when their fetch failed;
// a failed clinic fetch never blocks doctor data, and vice versa.
type Profile struct {
	Role   Role
	Admin  *AdminProfile
	Doctor *api.Doctor
	Clinic *api.Clinic
}

// Snapshot is an immutable view of the session, safe to read from any
// goroutine. Route decisions and rendering read this, never the manager's
// internals.
type Snapshot struct {
	State              AuthState
	Claims             *Claims
	Profile            *Profile
	Loading            bool
	Error              string
	BootstrapAttempted bool
	// Expired is set when a backend call came back 401 mid-use. The UI
	// shows an explicit re-login prompt instead of silently redirecting,
	// since the user may have unsaved work.
	Expired bool
}

// Authoritative reports whether route decisions based on this snapshot are
// final. Before the bootstrap attempt settles (and absent a direct login),
// the session is still unknown.
func (s Snapshot) Authoritative() bool {
	return s.State == AuthAuthenticated || s.BootstrapAttempted
}

// Role returns the session role, or "" when unauthenticated.
func (s Snapshot) Role() Role {
	if s.Claims == nil {
		return ""
	}
	return s.Claims.Role
}
