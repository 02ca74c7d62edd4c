package domain

import (
	"fmt"
	"time"
)

// GitHub sign-in defaults.
const (
	// DefaultCallbackPort is the local port GitHub redirects to after consent.
	DefaultCallbackPort = 8001

	// CallbackPath is the path of the local redirect URI.
	CallbackPath = "/auth/callback"

	// DefaultLoginTimeout bounds how long a login waits for the browser.
	DefaultLoginTimeout = 5 * time.Minute
)

// GitHubScopes are requested on sign-in.
var GitHubScopes = []string{"read:user", "user:email"}

// Identity is the signed-in GitHub user.
// Questions asked while signed in carry the login as their user id.
type Identity struct {
	// ID is the numeric GitHub user id.
	ID int64

	// Login is the GitHub handle.
	Login string

	// Name is the display name, may be empty.
	Name string

	// Email is the primary verified address, may be empty.
	Email string

	// SignedInAt is when the login completed.
	SignedInAt time.Time
}

// UserID returns the id recorded with questions, empty when signed out.
func (i *Identity) UserID() string {
	if i == nil {
		return ""
	}
	return i.Login
}

// DisplayName returns the name, or the login when no name is set.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if i.Name != "" {
		return i.Name
	}
	return i.Login
}

// GitHubAuthSettings holds the OAuth app used for sign-in.
type GitHubAuthSettings struct {
	// ClientID is the OAuth app client id.
	ClientID string

	// ClientSecret is the OAuth app client secret.
	ClientSecret string

	// CallbackPort is the local redirect port.
	CallbackPort int
}

// IsConfigured returns true if both app credentials are set.
func (g GitHubAuthSettings) IsConfigured() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// RedirectURI returns the local callback URL for port.
func RedirectURI(port int) string {
	return fmt.Sprintf("http://localhost:%d%s", port, CallbackPath)
}

// LoginFlow is a sign-in in progress.
type LoginFlow struct {
	// AuthURL is the consent page opened in the browser.
	AuthURL string

	// State guards the callback against forgery.
	State string

	// Verifier is the PKCE code verifier.
	Verifier string

	// RedirectURI is where GitHub sends the code.
	RedirectURI string

	// Port is the local callback port.
	Port int
}
