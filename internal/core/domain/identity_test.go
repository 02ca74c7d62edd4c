package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentity_UserID(t *testing.T) {
	var none *Identity
	assert.Empty(t, none.UserID())
	assert.Empty(t, none.DisplayName())

	id := &Identity{ID: 7, Login: "octocat"}
	assert.Equal(t, "octocat", id.UserID())
	assert.Equal(t, "octocat", id.DisplayName())

	id.Name = "The Octocat"
	assert.Equal(t, "The Octocat", id.DisplayName())
}

func TestGitHubAuthSettings_IsConfigured(t *testing.T) {
	assert.False(t, GitHubAuthSettings{}.IsConfigured())
	assert.False(t, GitHubAuthSettings{ClientID: "id"}.IsConfigured())
	assert.True(t, GitHubAuthSettings{ClientID: "id", ClientSecret: "secret"}.IsConfigured())
}

func TestRedirectURI(t *testing.T) {
	assert.Equal(t, "http://localhost:8001/auth/callback", RedirectURI(DefaultCallbackPort))
}
