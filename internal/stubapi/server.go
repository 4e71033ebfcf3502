// Package stubapi is a self-contained stand-in for the clinic dashboard
// backend, used by tests and local development. It implements the auth
// endpoints (login with optional MFA, cookie-based refresh, logout) and a
// small fixture-backed slice of every dashboard resource.
package stubapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/medidesk/dashboard/pkg/logging"
)

const refreshCookieName = "medidesk_refresh"

// Account is a seeded login. A non-empty MFACode makes the first login
// submission answer mfa_required until the code is re-submitted.
type Account struct {
	Email    string
	Password string
	Role     string
	ID       int64
	ClinicID *int64
	Name     string
	MFACode  string
}

// Options configures the stub server.
type Options struct {
	JWTSecret string
	TokenTTL  time.Duration
	Logger    *logging.Logger
	Now       func() time.Time
}

// Server is the fixture-backed stub backend. Safe for concurrent use.
type Server struct {
	secret []byte
	ttl    time.Duration
	logger *logging.Logger
	now    func() time.Time
	mux    *chi.Mux

	mu            sync.Mutex
	accounts      []Account
	refreshGrants map[string]Account // cookie value -> account
	fixtures      *fixtures
}

func NewServer(opts Options) *Server {
	if opts.JWTSecret == "" {
		opts.JWTSecret = "dev-secret"
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 15 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		secret:        []byte(opts.JWTSecret),
		ttl:           opts.TokenTTL,
		logger:        opts.Logger.Component("stubapi"),
		now:           opts.Now,
		accounts:      defaultAccounts(),
		refreshGrants: make(map[string]Account),
		fixtures:      defaultFixtures(),
	}
	s.routes()
	return s
}

// SeedAccount adds or replaces a login account.
func (s *Server) SeedAccount(a Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.accounts {
		if existing.Email == a.Email && existing.Role == a.Role {
			s.accounts[i] = a
			return
		}
	}
	s.accounts = append(s.accounts, a)
}

// GrantRefresh registers a refresh cookie value for an account without a
// login round-trip, so tests can start from "cookie session exists."
// Returns the cookie to install on the client.
func (s *Server) GrantRefresh(a Account) *http.Cookie {
	grant := uuid.NewString()
	s.mu.Lock()
	s.refreshGrants[grant] = a
	s.mu.Unlock()
	return s.refreshCookie(grant)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux = chi.NewRouter()
	s.mux.Use(s.requestLogger)

	s.mux.Route("/dashboard", func(r chi.Router) {
		r.Post("/auth/admin/login", s.handleLogin("admin"))
		r.Post("/auth/doctor/login", s.handleLogin("doctor"))
		r.Post("/auth/refresh", s.handleRefresh)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.bearerAuth)
			r.Get("/doctors/{id}", s.handleGetDoctor)
			r.Get("/clinics/{id}", s.handleGetClinic)
			r.Get("/appointments", s.handleListAppointments)
			r.Patch("/appointments/{id}", s.handlePatchAppointment)
			r.Get("/patients", s.handleListPatients)
			r.Get("/patients/{id}", s.handleGetPatient)
			r.Get("/calls", s.handleListCalls)
			r.Get("/messages", s.handleListMessages)
			r.Patch("/messages/{id}", s.handlePatchMessage)
			r.Get("/refills", s.handleListRefills)
			r.Post("/refills/{id}/approve", s.handleApproveRefill)
			r.Post("/refills/{id}/deny", s.handleDenyRefill)
			r.Get("/doctors/{id}/hours", s.handleGetHours)
			r.Patch("/doctors/{id}/hours", s.handleSetHours)
			r.Get("/doctors/{id}/offdays", s.handleListOffDays)
			r.Post("/doctors/{id}/offdays", s.handleAddOffDay)
			r.Delete("/doctors/{id}/offdays/{offDayID}", s.handleRemoveOffDay)
			r.Get("/doctors/{id}/calendars", s.handleListCalendars)
			r.Post("/doctors/{id}/calendars", s.handleLinkCalendar)
			r.Delete("/doctors/{id}/calendars/{calendarID}", s.handleUnlinkCalendar)
		})
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		next.ServeHTTP(w, r)
		s.logger.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", reqID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type claimsKey struct{}

// bearerAuth enforces a valid HMAC-signed bearer token.
func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			s.writeError(w, http.StatusUnauthorized, "missing_token", "missing authorization header")
			return
		}
		tokenString := strings.TrimPrefix(auth, "Bearer ")
		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.secret, nil
		}, jwt.WithTimeFunc(s.now))
		if err != nil || !token.Valid {
			s.writeError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleLogin(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
			MFACode  string `json:"mfa_code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
			return
		}

		s.mu.Lock()
		var account *Account
		for i := range s.accounts {
			if s.accounts[i].Role == role && s.accounts[i].Email == req.Email {
				account = &s.accounts[i]
				break
			}
		}
		s.mu.Unlock()

		if account == nil || account.Password != req.Password {
			s.writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
			return
		}
		if account.MFACode != "" {
			if req.MFACode == "" {
				s.writeJSON(w, http.StatusOK, map[string]any{"mfa_required": true})
				return
			}
			if req.MFACode != account.MFACode {
				s.writeError(w, http.StatusUnauthorized, "invalid_mfa", "invalid mfa code")
				return
			}
		}

		token, err := s.mintToken(*account)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "token_error", "could not issue token")
			return
		}
		grant := uuid.NewString()
		s.mu.Lock()
		s.refreshGrants[grant] = *account
		s.mu.Unlock()
		http.SetCookie(w, s.refreshCookie(grant))
		s.writeJSON(w, http.StatusOK, map[string]any{"access_token": token})
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "no_session", "no refresh cookie")
		return
	}
	s.mu.Lock()
	account, ok := s.refreshGrants[cookie.Value]
	s.mu.Unlock()
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "no_session", "unknown refresh cookie")
		return
	}
	token, err := s.mintToken(account)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "token_error", "could not issue token")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"access_token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		s.mu.Lock()
		delete(s.refreshGrants, cookie.Value)
		s.mu.Unlock()
	}
	expired := s.refreshCookie("")
	expired.MaxAge = -1
	http.SetCookie(w, expired)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) mintToken(a Account) (string, error) {
	claims := jwt.MapClaims{
		"role":  a.Role,
		"sub":   strconv.FormatInt(a.ID, 10),
		"name":  a.Name,
		"email": a.Email,
		"exp":   s.now().Add(s.ttl).Unix(),
	}
	if a.ClinicID != nil {
		claims["clinic_id"] = *a.ClinicID
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) refreshCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/dashboard/auth",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]string{"code": code, "message": message})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}

func defaultAccounts() []Account {
	clinicID := int64(7)
	return []Account{
		{
			Email:    "admin@clinic.test",
			Password: "admin-pass",
			Role:     "admin",
			ID:       1,
			Name:     "Alex Morgan",
			MFACode:  "123456",
		},
		{
			Email:    "m.okafor@clinic.test",
			Password: "doctor-pass",
			Role:     "doctor",
			ID:       42,
			ClinicID: &clinicID,
			Name:     "Dr. Mina Okafor",
		},
	}
}
