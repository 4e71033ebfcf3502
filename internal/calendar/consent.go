// Package calendar builds the OAuth consent URLs for linking Google and
// Microsoft calendar accounts. Only the consent redirect is constructed
// client-side; the backend performs the code exchange and owns the sync.
package calendar

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

const (
	googleCalendarScope    = "https://www.googleapis.com/auth/calendar.events"
	microsoftCalendarScope = "https://graph.microsoft.com/Calendars.ReadWrite"
)

// NewState returns a fresh unguessable state nonce for the consent
// redirect. Callers must hold on to it and pass it back with the
// authorization code so the backend can reject forged callbacks.
func NewState() string {
	return uuid.NewString()
}

// GoogleConsentURL builds the Google consent redirect for calendar access.
// Offline access is requested so the backend receives a refresh token.
func GoogleConsentURL(clientID, redirectURI, state string) string {
	cfg := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes:      []string{googleCalendarScope},
		Endpoint:    google.Endpoint,
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// MicrosoftConsentURL builds the Microsoft consent redirect for calendar
// access. tenant is usually "common" unless the clinic pins a directory.
func MicrosoftConsentURL(clientID, tenant, redirectURI, state string) string {
	if tenant == "" {
		tenant = "common"
	}
	cfg := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes:      []string{microsoftCalendarScope, "offline_access"},
		Endpoint:    microsoft.AzureADEndpoint(tenant),
	}
	return cfg.AuthCodeURL(state)
}

// ConsentURL dispatches on provider name as stored by the backend.
func ConsentURL(provider, clientID, tenant, redirectURI, state string) (string, error) {
	switch provider {
	case "google":
		return GoogleConsentURL(clientID, redirectURI, state), nil
	case "microsoft":
		return MicrosoftConsentURL(clientID, tenant, redirectURI, state), nil
	default:
		return "", fmt.Errorf("calendar: unknown provider %q", provider)
	}
}
