package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/medidesk/dashboard/internal/api"
	"github.com/medidesk/dashboard/internal/broadcast"
	"github.com/medidesk/dashboard/internal/observability/metrics"
	"github.com/medidesk/dashboard/pkg/logging"
)

// Manager owns the session lifecycle. It is constructed once at the
// application root and handed to consumers by reference; the credential
// store is the single source of truth and the only mutable shared state.
type Manager struct {
	store   *Store
	client  *api.Client
	bus     broadcast.Bus
	metrics *metrics.SessionMetrics
	logger  *logging.Logger
	now     func() time.Time

	mu        sync.Mutex
	bootstrap BootstrapState
	// gen increments on every token change and clear. In-flight profile
	// loads carry the gen they started under and are discarded on apply
	// when a newer token superseded them.
	gen     uint64
	claims  *Claims
	profile *Profile
	loading bool
	errMsg  string
	expired bool

	cancelToken func()
	cancelClear func()
	cancelBus   func()
}

// NewManager wires the manager to an existing store, backend client, and
// broadcast bus. A nil bus degrades to the no-op transport; a nil metrics
// receiver records nothing.
func NewManager(store *Store, client *api.Client, bus broadcast.Bus, m *metrics.SessionMetrics, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	if bus == nil {
		bus = broadcast.NewNoopBus(logger)
	}
	mgr := &Manager{
		store:   store,
		client:  client,
		bus:     bus,
		metrics: m,
		logger:  logger.Component("session"),
		now:     time.Now,
	}
	mgr.cancelToken = store.OnToken(mgr.handleToken)
	mgr.cancelClear = store.OnClear(mgr.handleClear)

	cancel, err := bus.Subscribe(context.Background(), mgr.handleBroadcast)
	if err != nil {
		mgr.logger.Warn("logout broadcast unavailable; cross-instance logout disabled", "error", err)
	} else {
		mgr.cancelBus = cancel
	}

	client.SetUnauthorizedHook(mgr.HandleUnauthorized)
	client.SetLatencyObserver(m.ObserveRequestLatency)
	return mgr
}

// Store returns the credential store backing this manager.
func (m *Manager) Store() *Store { return m.store }

// Close tears down subscriptions. The session itself is not cleared.
func (m *Manager) Close() {
	if m.cancelBus != nil {
		m.cancelBus()
	}
	m.cancelToken()
	m.cancelClear()
}

// Snapshot returns an immutable view of the current session.
func (m *Manager) Snapshot() Snapshot {
	token := m.store.Token()
	m.mu.Lock()
	defer m.mu.Unlock()
	attempted := m.bootstrap == BootstrapSucceeded || m.bootstrap == BootstrapFailed
	state := AuthUnknown
	switch {
	case token != "" && m.claims != nil:
		state = AuthAuthenticated
	case attempted:
		state = AuthUnauthenticated
	}
	return Snapshot{
		State:              state,
		Claims:             m.claims,
		Profile:            m.profile,
		Loading:            m.loading,
		Error:              m.errMsg,
		BootstrapAttempted: attempted,
		Expired:            m.expired,
	}
}

// BootstrapState returns the current state of the one-shot silent refresh.
func (m *Manager) BootstrapState() BootstrapState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bootstrap
}

// Bootstrap attempts the one-shot silent refresh against the cookie-based
// refresh endpoint. It runs at most once per manager lifetime: concurrent
// and repeated calls after the first are no-ops, so two consumers starting
// simultaneously produce exactly one network call. A failure is silent —
// the effective behavior is "show the login page."
func (m *Manager) Bootstrap(ctx context.Context) {
	m.mu.Lock()
	if m.bootstrap != BootstrapNotAttempted || m.store.Token() != "" {
		m.mu.Unlock()
		return
	}
	m.bootstrap = BootstrapAttempting
	m.mu.Unlock()

	token, err := m.client.Refresh(ctx)
	if err != nil {
		m.logger.Info("silent refresh failed; showing login", "error", err)
		m.mu.Lock()
		m.bootstrap = BootstrapFailed
		m.mu.Unlock()
		// Local cleanup only: other instances own their own sessions, so
		// a failed bootstrap here must not broadcast a logout.
		m.store.Clear(true)
		m.metrics.ObserveBootstrap("failed")
		return
	}

	// Install the token first: claims land synchronously via the OnToken
	// listener, so no snapshot taken after the attempt settles can observe
	// an unauthenticated session that is about to authenticate.
	m.store.SetToken(token)
	m.mu.Lock()
	m.bootstrap = BootstrapSucceeded
	m.mu.Unlock()
	m.metrics.ObserveBootstrap("succeeded")
}

// LoginAdmin submits administrator credentials. mfaRequired true means no
// token was issued yet and the caller must re-submit with the 6-digit code.
func (m *Manager) LoginAdmin(ctx context.Context, email, password, mfaCode string) (mfaRequired bool, err error) {
	return m.login(ctx, RoleAdmin, api.LoginRequest{Email: email, Password: password, MFACode: mfaCode})
}

// LoginDoctor submits doctor credentials.
func (m *Manager) LoginDoctor(ctx context.Context, email, password, mfaCode string) (mfaRequired bool, err error) {
	return m.login(ctx, RoleDoctor, api.LoginRequest{Email: email, Password: password, MFACode: mfaCode})
}

func (m *Manager) login(ctx context.Context, role Role, req api.LoginRequest) (bool, error) {
	var resp *api.LoginResponse
	var err error
	switch role {
	case RoleAdmin:
		resp, err = m.client.LoginAdmin(ctx, req)
	default:
		resp, err = m.client.LoginDoctor(ctx, req)
	}
	if err != nil {
		m.metrics.ObserveLogin(string(role), "failed")
		return false, err
	}
	if resp.MFARequired {
		m.metrics.ObserveLogin(string(role), "mfa_required")
		return true, nil
	}
	if resp.AccessToken == "" {
		m.metrics.ObserveLogin(string(role), "failed")
		return false, fmt.Errorf("session: login response missing token")
	}
	m.metrics.ObserveLogin(string(role), "ok")
	m.store.SetToken(resp.AccessToken)
	return false, nil
}

// Logout revokes the refresh cookie (best-effort) and clears the local
// session, broadcasting the logout to other instances.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.client.Logout(ctx); err != nil {
		m.logger.Warn("backend logout failed", "error", err)
	}
	m.store.Clear(false)
}

// handleToken runs synchronously after every non-empty SetToken.
func (m *Manager) handleToken(token string) {
	claims := DecodeToken(token, m.now())
	if claims == nil {
		// Malformed or expired: not authenticated, no user-facing error.
		m.logger.Warn("token failed to decode; clearing session")
		m.store.Clear(false)
		return
	}

	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.claims = claims
	m.profile = nil
	m.errMsg = ""
	m.expired = false
	m.loading = true
	m.mu.Unlock()

	switch claims.Role {
	case RoleAdmin:
		// No network fetch: the admin profile comes straight from claims.
		m.applyProfile(gen, &Profile{
			Role:  RoleAdmin,
			Admin: &AdminProfile{ID: claims.SubjectID, Name: claims.Name, Email: claims.Email},
		}, "")
		m.metrics.ObserveProfileLoad(string(RoleAdmin), "ok")
	case RoleDoctor:
		if claims.SubjectID == nil {
			// Valid token, non-numeric subject: nothing to fetch with.
			m.applyProfile(gen, nil, "doctor token missing subject id")
			m.metrics.ObserveProfileLoad(string(RoleDoctor), "missing_subject")
			return
		}
		go m.loadDoctorProfile(context.Background(), gen, claims)
	default:
		// Unknown role decodes but loads nothing; the route guard rejects it.
		m.applyProfile(gen, nil, "")
	}
}

// loadDoctorProfile fetches the doctor record and, when the token names a
// clinic, the clinic record concurrently. Each failure is isolated to a nil
// record; a transient profile failure is not an authentication failure and
// never clears the token.
func (m *Manager) loadDoctorProfile(ctx context.Context, gen uint64, claims *Claims) {
	var (
		doctor   *api.Doctor
		clinic   *api.Clinic
		fetchErr error
		errMu    sync.Mutex
	)

	recordErr := func(err error) {
		errMu.Lock()
		if fetchErr == nil {
			fetchErr = err
		}
		errMu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := m.client.GetDoctor(ctx, *claims.SubjectID)
		if err != nil {
			m.logger.Warn("doctor fetch failed", "doctor_id", *claims.SubjectID, "error", err)
			recordErr(err)
			return nil
		}
		doctor = d
		return nil
	})
	if claims.ClinicID != nil {
		g.Go(func() error {
			cl, err := m.client.GetClinic(ctx, *claims.ClinicID)
			if err != nil {
				m.logger.Warn("clinic fetch failed", "clinic_id", *claims.ClinicID, "error", err)
				recordErr(err)
				return nil
			}
			clinic = cl
			return nil
		})
	}
	_ = g.Wait()

	status := "ok"
	errMsg := ""
	if fetchErr != nil {
		status = "partial"
		errMsg = fmt.Sprintf("profile incomplete: %v", fetchErr)
	}
	m.applyProfile(gen, &Profile{Role: RoleDoctor, Doctor: doctor, Clinic: clinic}, errMsg)
	m.metrics.ObserveProfileLoad(string(RoleDoctor), status)
}

// applyProfile commits a load result unless a newer token superseded it.
func (m *Manager) applyProfile(gen uint64, profile *Profile, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	m.profile = profile
	m.errMsg = errMsg
	m.loading = false
}

// handleClear runs synchronously after every store Clear. Bootstrap state
// survives: the one-shot attempt never resets within a manager lifetime.
func (m *Manager) handleClear(suppressBroadcast bool) {
	m.mu.Lock()
	m.gen++
	m.claims = nil
	m.profile = nil
	m.errMsg = ""
	m.loading = false
	m.expired = false
	m.mu.Unlock()

	if suppressBroadcast {
		return
	}
	if err := m.bus.Publish(context.Background(), broadcast.Event{Type: broadcast.EventLogout}); err != nil {
		m.logger.Warn("logout broadcast failed", "error", err)
		return
	}
	m.metrics.ObserveBroadcast("sent")
}

// handleBroadcast reacts to logout events from other instances. The clear
// is suppressed so an inbound event never produces an outbound one.
func (m *Manager) handleBroadcast(ev broadcast.Event) {
	if ev.Type != broadcast.EventLogout {
		return
	}
	m.metrics.ObserveBroadcast("received")
	m.store.Clear(true)
}

// HandleUnauthorized flags the session when the backend reports it expired
// mid-use: a 401 on a bearer call (wired automatically) or a
// session_expired push event (callers wire the realtime handler here).
// The token is not cleared: the UI shows an explicit re-login prompt
// instead of a silent redirect, since the user may have unsaved work.
func (m *Manager) HandleUnauthorized() {
	m.mu.Lock()
	if m.claims == nil || m.expired {
		m.mu.Unlock()
		return
	}
	m.expired = true
	m.mu.Unlock()
	m.logger.Info("backend reported expired session during active use")
}
