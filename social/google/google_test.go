package google_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/martinmarchese/login-example/social/google"
)

func newProvider(userInfoURL string) *google.Provider {
	return google.New(google.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CallbackURL:  "http://localhost:3000/auth/google/callback",
		UserInfoURL:  userInfoURL,
	})
}

func TestAuthCodeURLCarriesState(t *testing.T) {
	provider := newProvider("")

	u := provider.AuthCodeURL("opaque-state")
	assert.Contains(t, u, "state=opaque-state")
	assert.Contains(t, u, "client_id=client-id")
	assert.Contains(t, u, "accounts.google.com")
}

func TestUserInfoMapsProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"sub": "1234567890",
			"email": "ada@example.com",
			"email_verified": true,
			"name": "Ada Lovelace",
			"picture": "https://example.com/ada.png"
		}`))
	}))
	defer srv.Close()

	provider := newProvider(srv.URL)

	profile, err := provider.UserInfo(context.Background(), &oauth2.Token{AccessToken: "access-token"})
	require.NoError(t, err)

	assert.Equal(t, "google", profile.Provider)
	assert.Equal(t, "1234567890", profile.Subject)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, "Ada Lovelace", profile.Name)
}

func TestUserInfoBuildsNameFromParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"sub": "1234567890",
			"email": "ada@example.com",
			"given_name": "Ada",
			"family_name": "Lovelace"
		}`))
	}))
	defer srv.Close()

	provider := newProvider(srv.URL)

	profile, err := provider.UserInfo(context.Background(), &oauth2.Token{AccessToken: "access-token"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", profile.Name)
}

func TestUserInfoRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	provider := newProvider(srv.URL)

	_, err := provider.UserInfo(context.Background(), &oauth2.Token{AccessToken: "expired"})
	assert.Error(t, err)
}
