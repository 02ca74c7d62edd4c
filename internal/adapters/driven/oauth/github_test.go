package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// fakeGitHub serves the token endpoint and the two user endpoints.
type fakeGitHub struct {
	form        url.Values
	profile     map[string]any
	emails      []map[string]any
	tokenStatus int
}

func (f *fakeGitHub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.form = r.PostForm
		if f.tokenStatus != 0 {
			w.WriteHeader(f.tokenStatus)
			_, _ = w.Write([]byte(`{"error":"bad_verification_code"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gho_test","token_type":"bearer","scope":"read:user,user:email"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gho_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.profile)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.emails)
	})
	return mux
}

func newTestProvider(t *testing.T, fake *fakeGitHub) *GitHubProvider {
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	return NewGitHubProvider(
		domain.GitHubAuthSettings{ClientID: "client-id", ClientSecret: "client-secret"},
		WithEndpoint(oauth2.Endpoint{
			AuthURL:   srv.URL + "/login/oauth/authorize",
			TokenURL:  srv.URL + "/login/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		}),
		WithAPIURL(srv.URL),
	)
}

func TestGitHubProvider_AuthCodeURL(t *testing.T) {
	p := NewGitHubProvider(domain.GitHubAuthSettings{ClientID: "client-id", ClientSecret: "s"})

	raw := p.AuthCodeURL("state-1", "verifier-1", "http://localhost:8001/auth/callback")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "http://localhost:8001/auth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "read:user user:email", q.Get("scope"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier("verifier-1"), q.Get("code_challenge"))
}

func TestGitHubProvider_Exchange(t *testing.T) {
	fake := &fakeGitHub{
		profile: map[string]any{"id": 583231, "login": "octocat", "name": "The Octocat", "email": "octo@example.com"},
	}
	p := newTestProvider(t, fake)

	identity, err := p.Exchange(context.Background(), "code-1", "verifier-1", "http://localhost:8001/auth/callback")

	require.NoError(t, err)
	assert.Equal(t, int64(583231), identity.ID)
	assert.Equal(t, "octocat", identity.Login)
	assert.Equal(t, "The Octocat", identity.Name)
	assert.Equal(t, "octo@example.com", identity.Email)

	assert.Equal(t, "code-1", fake.form.Get("code"))
	assert.Equal(t, "verifier-1", fake.form.Get("code_verifier"))
	assert.Equal(t, "client-id", fake.form.Get("client_id"))
	assert.Equal(t, "http://localhost:8001/auth/callback", fake.form.Get("redirect_uri"))
}

func TestGitHubProvider_Exchange_PrivateEmail(t *testing.T) {
	fake := &fakeGitHub{
		profile: map[string]any{"id": 1, "login": "octocat"},
		emails: []map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "main@example.com", "primary": true, "verified": true},
		},
	}
	p := newTestProvider(t, fake)

	identity, err := p.Exchange(context.Background(), "code", "verifier", "http://localhost:8001/auth/callback")

	require.NoError(t, err)
	assert.Equal(t, "main@example.com", identity.Email)
}

func TestGitHubProvider_Exchange_TokenError(t *testing.T) {
	fake := &fakeGitHub{tokenStatus: http.StatusBadRequest}
	p := newTestProvider(t, fake)

	_, err := p.Exchange(context.Background(), "stale", "verifier", "http://localhost:8001/auth/callback")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}
