package session

import "testing"

func authedSnapshot(role Role) Snapshot {
	return Snapshot{
		State:              AuthAuthenticated,
		Claims:             &Claims{Role: role},
		BootstrapAttempted: true,
	}
}

func TestCanAccess(t *testing.T) {
	tests := []struct {
		name     string
		required []Role
		snap     Snapshot
		want     Decision
	}{
		{
			name:     "unauthenticated redirects to login",
			required: []Role{RoleDoctor},
			snap:     Snapshot{State: AuthUnauthenticated, BootstrapAttempted: true},
			want:     RedirectLogin,
		},
		{
			name:     "unknown pre-bootstrap state redirects to login",
			required: []Role{RoleDoctor},
			snap:     Snapshot{State: AuthUnknown},
			want:     RedirectLogin,
		},
		{
			name:     "doctor on doctor view allowed",
			required: []Role{RoleDoctor},
			snap:     authedSnapshot(RoleDoctor),
			want:     Allow,
		},
		{
			name:     "doctor on admin view redirects home",
			required: []Role{RoleAdmin},
			snap:     authedSnapshot(RoleDoctor),
			want:     RedirectHome,
		},
		{
			name:     "admin on shared view allowed",
			required: []Role{RoleAdmin, RoleDoctor},
			snap:     authedSnapshot(RoleAdmin),
			want:     Allow,
		},
		{
			name:     "no required roles means any authenticated",
			required: nil,
			snap:     authedSnapshot(RoleAdmin),
			want:     Allow,
		},
		{
			name:     "unknown role decodes but is rejected",
			required: []Role{RoleDoctor},
			snap:     authedSnapshot(Role("superuser")),
			want:     RedirectLogin,
		},
		{
			name:     "authenticated state with nil claims rejected",
			required: []Role{RoleDoctor},
			snap:     Snapshot{State: AuthAuthenticated},
			want:     RedirectLogin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccess(tt.required, tt.snap); got != tt.want {
				t.Errorf("CanAccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSnapshotAuthoritative(t *testing.T) {
	if (Snapshot{State: AuthUnknown}).Authoritative() {
		t.Error("pre-bootstrap snapshot must not be authoritative")
	}
	if !(Snapshot{State: AuthUnauthenticated, BootstrapAttempted: true}).Authoritative() {
		t.Error("settled bootstrap must be authoritative")
	}
	if !authedSnapshot(RoleDoctor).Authoritative() {
		t.Error("authenticated snapshot must be authoritative")
	}
	// Direct login before any bootstrap attempt is authoritative too.
	if !(Snapshot{State: AuthAuthenticated, Claims: &Claims{Role: RoleAdmin}}).Authoritative() {
		t.Error("authenticated without bootstrap must be authoritative")
	}
}
