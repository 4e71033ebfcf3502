package session

// Decision is the outcome of a route-guard check.
type Decision int

const (
	// Allow lets the navigation through.
	Allow Decision = iota
	// RedirectLogin sends the user to the login page: no usable session.
	RedirectLogin
	// RedirectHome sends a valid session to its own role's landing view
	// when it asked for a view belonging to the other role.
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	default:
		return "redirect_home"
	}
}

// CanAccess gates a navigation to a view restricted to requiredRoles. It is
// a pure function of the snapshot: no fetches, callable on every navigation.
// Callers should wait for snap.Authoritative() before treating the result
// as final on first load.
//
// A decoded role outside the known set still decodes (the codec does not
// validate the enum) but is rejected here.
func CanAccess(requiredRoles []Role, snap Snapshot) Decision {
	if snap.State != AuthAuthenticated || snap.Claims == nil {
		return RedirectLogin
	}
	role := snap.Claims.Role
	if role != RoleAdmin && role != RoleDoctor {
		return RedirectLogin
	}
	if len(requiredRoles) == 0 {
		return Allow
	}
	for _, r := range requiredRoles {
		if r == role {
			return Allow
		}
	}
	return RedirectHome
}
