package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/medidesk/dashboard/internal/api"
	"github.com/medidesk/dashboard/internal/broadcast"
	"github.com/medidesk/dashboard/pkg/logging"
)

// backendStub is a scriptable backend for manager tests. Handlers default to
// 404; individual tests install what they need and read the counters.
type backendStub struct {
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	hits     map[string]int
}

func newBackendStub() *backendStub {
	return &backendStub{
		handlers: make(map[string]http.HandlerFunc),
		hits:     make(map[string]int),
	}
}

func (b *backendStub) handle(path string, fn http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[path] = fn
}

func (b *backendStub) count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func (b *backendStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.hits[r.URL.Path]++
	fn, ok := b.handlers[r.URL.Path]
	b.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	fn(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type managerHarness struct {
	mgr    *Manager
	store  *Store
	client *api.Client
	stub   *backendStub
}

func newManagerHarness(t *testing.T, bus broadcast.Bus) *managerHarness {
	t.Helper()
	stub := newBackendStub()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	store := NewStore()
	logger := logging.New("error")
	client := api.NewClient(srv.URL, store, logger)
	mgr := NewManager(store, client, bus, nil, logger)
	t.Cleanup(mgr.Close)
	return &managerHarness{mgr: mgr, store: store, client: client, stub: stub}
}

// spyBus wraps another bus and records outbound publishes.
type spyBus struct {
	inner     broadcast.Bus
	mu        sync.Mutex
	published []broadcast.Event
}

func (s *spyBus) Publish(ctx context.Context, ev broadcast.Event) error {
	s.mu.Lock()
	s.published = append(s.published, ev)
	s.mu.Unlock()
	return s.inner.Publish(ctx, ev)
}

func (s *spyBus) Subscribe(ctx context.Context, fn func(broadcast.Event)) (func(), error) {
	return s.inner.Subscribe(ctx, fn)
}

func (s *spyBus) publishCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

func TestBootstrapRefreshRejected(t *testing.T) {
	h := newManagerHarness(t, nil)
	h.stub.handle("/dashboard/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "no_session", "message": "no refresh cookie"})
	})

	h.mgr.Bootstrap(context.Background())

	snap := h.mgr.Snapshot()
	require.Equal(t, AuthUnauthenticated, snap.State)
	require.True(t, snap.BootstrapAttempted)
	require.False(t, snap.Loading)
	require.Empty(t, h.store.Token())
	require.Equal(t, RedirectLogin, CanAccess([]Role{RoleDoctor}, snap))

	// Sticky: a second call performs no further network request.
	h.mgr.Bootstrap(context.Background())
	require.Equal(t, 1, h.stub.count("/dashboard/auth/refresh"))
	require.Equal(t, BootstrapFailed, h.mgr.BootstrapState())
}

func TestBootstrapAtMostOnceUnderConcurrency(t *testing.T) {
	h := newManagerHarness(t, nil)
	var refreshCalls atomic.Int32
	h.stub.handle("/dashboard/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		time.Sleep(50 * time.Millisecond)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "no_session"})
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.mgr.Bootstrap(context.Background())
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), refreshCalls.Load(), "two consumers mounting must produce one refresh call")
}

func TestBootstrapSuccessLoadsDoctorProfile(t *testing.T) {
	h := newManagerHarness(t, nil)
	token := doctorToken(t, "42", 7, time.Now().Add(time.Hour))
	h.stub.handle("/dashboard/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
	})
	h.stub.handle("/dashboard/doctors/42", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.Doctor{ID: 42, FirstName: "Mina", LastName: "Okafor"})
	})
	h.stub.handle("/dashboard/clinics/7", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.Clinic{ID: 7, Name: "Harborview Clinic"})
	})

	h.mgr.Bootstrap(context.Background())

	require.Eventually(t, func() bool {
		snap := h.mgr.Snapshot()
		return !snap.Loading && snap.Profile != nil
	}, 2*time.Second, 10*time.Millisecond)

	snap := h.mgr.Snapshot()
	require.Equal(t, AuthAuthenticated, snap.State)
	require.Equal(t, RoleDoctor, snap.Role())
	require.NotNil(t, snap.Claims.SubjectID)
	require.EqualValues(t, 42, *snap.Claims.SubjectID)
	require.EqualValues(t, 7, *snap.Claims.ClinicID)
	require.NotNil(t, snap.Profile.Doctor)
	require.NotNil(t, snap.Profile.Clinic)
	require.Equal(t, 1, h.stub.count("/dashboard/doctors/42"))
	require.Equal(t, 1, h.stub.count("/dashboard/clinics/7"))
}

func TestBootstrapSuccessNeverFlashesUnauthenticated(t *testing.T) {
	h := newManagerHarness(t, nil)
	token := doctorToken(t, "42", 7, time.Now().Add(time.Hour))
	h.stub.handle("/dashboard/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(30 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
	})
	h.stub.handle("/dashboard/doctors/42", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.Doctor{ID: 42, FirstName: "Mina"})
	})
	h.stub.handle("/dashboard/clinics/7", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.Clinic{ID: 7, Name: "Harborview Clinic"})
	})

	// Snapshot continuously while the bootstrap runs: a settled attempt with
	// the token already issued must never read as unauthenticated.
	var flashed atomic.Bool
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap := h.mgr.Snapshot()
			if snap.Authoritative() && snap.State == AuthUnauthenticated {
				flashed.Store(true)
				return
			}
		}
	}()

	h.mgr.Bootstrap(context.Background())
	require.Equal(t, BootstrapSucceeded, h.mgr.BootstrapState())
	require.Eventually(t, func() bool {
		snap := h.mgr.Snapshot()
		return !snap.Loading && snap.Profile != nil
	}, 2*time.Second, 10*time.Millisecond)

	close(stop)
	wg.Wait()
	require.False(t, flashed.Load(), "successful bootstrap must not pass through an authoritative unauthenticated state")
	require.Equal(t, AuthAuthenticated, h.mgr.Snapshot().State)
}

func TestClinicFetchFailureIsIsolated(t *testing.T) {
	h := newManagerHarness(t, nil)
	h.stub.handle("/dashboard/doctors/42", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.Doctor{ID: 42, FirstName: "Mina"})
	})
	h.stub.handle("/dashboard/clinics/7", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"code": "boom", "message": "clinic lookup failed"})
	})

	token := doctorToken(t, "42", 7, time.Now().Add(time.Hour))
	h.store.SetToken(token)

	require.Eventually(t, func() bool {
		return !h.mgr.Snapshot().Loading
	}, 2*time.Second, 10*time.Millisecond)

	snap := h.mgr.Snapshot()
	require.Equal(t, AuthAuthenticated, snap.State, "transient profile failure must not deauthenticate")
	require.NotNil(t, snap.Profile.Doctor)
	require.Nil(t, snap.Profile.Clinic)
	require.NotEmpty(t, snap.Error)
	require.Equal(t, token, h.store.Token())
}

func TestDoctorFetchFailureKeepsClinic(t *testing.T) {
	h := newManagerHarness(t, nil)
	h.stub.handle("/dashboard/doctors/42", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, map[string]string{"code": "upstream"})
	})
	h.stub.handle("/dashboard/clinics/7", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.Clinic{ID: 7, Name: "Harborview Clinic"})
	})

	h.store.SetToken(doctorToken(t, "42", 7, time.Now().Add(time.Hour)))

	require.Eventually(t, func() bool {
		return !h.mgr.Snapshot().Loading
	}, 2*time.Second, 10*time.Millisecond)

	snap := h.mgr.Snapshot()
	require.Nil(t, snap.Profile.Doctor)
	require.NotNil(t, snap.Profile.Clinic)
	require.Equal(t, AuthAuthenticated, snap.State)
}

func TestStaleProfileResponseDiscarded(t *testing.T) {
	h := newManagerHarness(t, nil)
	h.stub.handle("/dashboard/doctors/1", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, http.StatusOK, api.Doctor{ID: 1, FirstName: "Stale"})
	})
	h.stub.handle("/dashboard/doctors/2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.Doctor{ID: 2, FirstName: "Fresh"})
	})

	exp := time.Now().Add(time.Hour)
	h.store.SetToken(mintToken(t, jwt.MapClaims{"role": "doctor", "sub": "1", "exp": exp.Unix()}))
	h.store.SetToken(mintToken(t, jwt.MapClaims{"role": "doctor", "sub": "2", "exp": exp.Unix()}))

	require.Eventually(t, func() bool {
		snap := h.mgr.Snapshot()
		return snap.Profile != nil && snap.Profile.Doctor != nil
	}, 2*time.Second, 10*time.Millisecond)

	// Wait past the slow response, then confirm it did not win.
	time.Sleep(300 * time.Millisecond)
	snap := h.mgr.Snapshot()
	require.EqualValues(t, 2, snap.Profile.Doctor.ID, "slow earlier fetch must not overwrite newer token's data")
}

func TestUndecodableTokenClearsSession(t *testing.T) {
	h := newManagerHarness(t, nil)
	h.store.SetToken("garbage")
	require.Empty(t, h.store.Token())
	require.Nil(t, h.mgr.Snapshot().Claims)

	h.store.SetToken(doctorToken(t, "42", 7, time.Now().Add(-time.Minute)))
	require.Empty(t, h.store.Token(), "expired token must clear both token and claims")
}

func TestAdminProfileSynthesizedWithoutFetch(t *testing.T) {
	h := newManagerHarness(t, nil)
	token := mintToken(t, jwt.MapClaims{
		"role":  "admin",
		"sub":   "1",
		"name":  "Alex Morgan",
		"email": "admin@clinic.test",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	h.store.SetToken(token)

	snap := h.mgr.Snapshot()
	require.Equal(t, AuthAuthenticated, snap.State)
	require.False(t, snap.Loading)
	require.NotNil(t, snap.Profile)
	require.NotNil(t, snap.Profile.Admin)
	require.Equal(t, "Alex Morgan", snap.Profile.Admin.Name)
	require.Equal(t, "admin@clinic.test", snap.Profile.Admin.Email)
	require.Zero(t, h.stub.count("/dashboard/doctors/1"), "admin profile must not hit the network")
}

func TestLogoutBroadcastsOnce(t *testing.T) {
	inner := broadcast.NewMemoryBus()
	spy := &spyBus{inner: inner}
	h := newManagerHarness(t, spy)

	h.stub.handle("/dashboard/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h.store.SetToken(mintToken(t, jwt.MapClaims{"role": "admin", "sub": "1", "exp": time.Now().Add(time.Hour).Unix()}))

	h.mgr.Logout(context.Background())

	require.Empty(t, h.store.Token())
	require.Equal(t, 1, spy.publishCount(), "an inbound echo must not produce a second outbound message")
}

func TestCrossTabLogout(t *testing.T) {
	shared := broadcast.NewMemoryBus()
	spyA := &spyBus{inner: shared}
	spyB := &spyBus{inner: shared}
	tabA := newManagerHarness(t, spyA)
	tabB := newManagerHarness(t, spyB)

	exp := time.Now().Add(time.Hour).Unix()
	tabA.store.SetToken(mintToken(t, jwt.MapClaims{"role": "admin", "sub": "1", "exp": exp}))
	tabB.store.SetToken(mintToken(t, jwt.MapClaims{"role": "admin", "sub": "1", "exp": exp}))

	// Tab B logs out locally; tab A must follow without rebroadcasting.
	tabB.store.Clear(false)

	require.Eventually(t, func() bool {
		return tabA.store.Token() == ""
	}, 2*time.Second, 10*time.Millisecond)
	require.Nil(t, tabA.mgr.Snapshot().Claims)
	require.Equal(t, 0, spyA.publishCount(), "receiving tab must not rebroadcast")
	require.Equal(t, 1, spyB.publishCount())
}

func TestClearKeepsBootstrapAttempted(t *testing.T) {
	h := newManagerHarness(t, nil)
	h.stub.handle("/dashboard/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "no_session"})
	})
	h.mgr.Bootstrap(context.Background())
	require.True(t, h.mgr.Snapshot().BootstrapAttempted)

	h.store.Clear(false)
	h.store.Clear(false)
	snap := h.mgr.Snapshot()
	require.True(t, snap.BootstrapAttempted, "bootstrapAttempted never resets within a page load")
	require.Equal(t, AuthUnauthenticated, snap.State)
}

func TestMFAFlow(t *testing.T) {
	h := newManagerHarness(t, nil)
	h.stub.handle("/dashboard/auth/admin/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MFACode string `json:"mfa_code"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.MFACode {
		case "":
			writeJSON(w, http.StatusOK, map[string]any{"mfa_required": true})
		case "123456":
			token := mintToken(t, jwt.MapClaims{"role": "admin", "sub": "1", "exp": time.Now().Add(time.Hour).Unix()})
			writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "invalid_mfa", "message": "invalid mfa code"})
		}
	})

	// First submission: MFA demanded, no token set.
	mfaRequired, err := h.mgr.LoginAdmin(context.Background(), "admin@clinic.test", "pw", "")
	require.NoError(t, err)
	require.True(t, mfaRequired)
	require.Empty(t, h.store.Token())

	// Wrong code: distinguishable from bad credentials.
	_, err = h.mgr.LoginAdmin(context.Background(), "admin@clinic.test", "pw", "000000")
	require.Error(t, err)
	require.True(t, errors.Is(err, api.ErrInvalidMFACode))
	require.Empty(t, h.store.Token())

	// Correct code: session established.
	mfaRequired, err = h.mgr.LoginAdmin(context.Background(), "admin@clinic.test", "pw", "123456")
	require.NoError(t, err)
	require.False(t, mfaRequired)
	require.NotEmpty(t, h.store.Token())
	require.Equal(t, RoleAdmin, h.mgr.Snapshot().Role())
}

func TestMidUse401MarksExpired(t *testing.T) {
	h := newManagerHarness(t, nil)
	token := mintToken(t, jwt.MapClaims{"role": "admin", "sub": "1", "exp": time.Now().Add(time.Hour).Unix()})
	h.store.SetToken(token)

	h.stub.handle("/dashboard/patients", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "expired", "message": "session expired"})
	})
	_, err := h.client.ListPatients(context.Background(), api.PatientQuery{})
	require.Error(t, err)

	snap := h.mgr.Snapshot()
	require.True(t, snap.Expired, "a 401 during active use shows the re-login prompt")
	require.Equal(t, token, h.store.Token(), "token is kept so unsaved work is not lost")
	require.Equal(t, AuthAuthenticated, snap.State)
}
