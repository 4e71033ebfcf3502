package calendar

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGoogleConsentURL(t *testing.T) {
	raw := GoogleConsentURL("client-abc", "https://app.clinic.test/callback", "state-123")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "accounts.google.com", u.Host)

	q := u.Query()
	require.Equal(t, "client-abc", q.Get("client_id"))
	require.Equal(t, "https://app.clinic.test/callback", q.Get("redirect_uri"))
	require.Equal(t, "state-123", q.Get("state"))
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "offline", q.Get("access_type"))
	require.Contains(t, q.Get("scope"), "calendar.events")
}

func TestMicrosoftConsentURL(t *testing.T) {
	raw := MicrosoftConsentURL("client-xyz", "", "https://app.clinic.test/callback", "state-456")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "login.microsoftonline.com", u.Host)
	require.True(t, strings.HasPrefix(u.Path, "/common/"))

	q := u.Query()
	require.Equal(t, "client-xyz", q.Get("client_id"))
	require.Equal(t, "state-456", q.Get("state"))
	require.Contains(t, q.Get("scope"), "Calendars.ReadWrite")
	require.Contains(t, q.Get("scope"), "offline_access")
}

func TestMicrosoftConsentURLPinnedTenant(t *testing.T) {
	raw := MicrosoftConsentURL("client-xyz", "clinic-tenant-id", "https://app.clinic.test/callback", "s")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u.Path, "/clinic-tenant-id/"))
}

func TestConsentURLDispatch(t *testing.T) {
	googleURL, err := ConsentURL("google", "id", "", "https://cb", "s")
	require.NoError(t, err)
	require.Contains(t, googleURL, "accounts.google.com")

	msURL, err := ConsentURL("microsoft", "id", "common", "https://cb", "s")
	require.NoError(t, err)
	require.Contains(t, msURL, "login.microsoftonline.com")

	_, err = ConsentURL("caldav", "id", "", "https://cb", "s")
	require.Error(t, err)
}

func TestNewStateUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := NewState()
		require.NotEmpty(t, s)
		require.False(t, seen[s])
		seen[s] = true
	}
}
