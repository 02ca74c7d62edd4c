package driven

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// IdentityProvider runs the OAuth code exchange against GitHub.
type IdentityProvider interface {
	// AuthCodeURL returns the consent page URL for a flow.
	AuthCodeURL(state, verifier, redirectURI string) string

	// Exchange trades the authorization code for a token and returns the
	// profile of the user who granted it. The token is not kept.
	Exchange(ctx context.Context, code, verifier, redirectURI string) (*domain.Identity, error)
}

// IdentityProviderFactory builds a provider for the configured OAuth app.
type IdentityProviderFactory func(settings domain.GitHubAuthSettings) IdentityProvider
