// Package oauth exchanges GitHub authorization codes for the signed-in profile.
package oauth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	githubendpoint "golang.org/x/oauth2/github"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Ensure GitHubProvider implements the interface.
var _ driven.IdentityProvider = (*GitHubProvider)(nil)

// GitHubProvider runs the authorization code flow against github.com.
type GitHubProvider struct {
	config oauth2.Config
	apiURL *url.URL
}

// Option configures a GitHubProvider.
type Option func(*GitHubProvider)

// WithEndpoint overrides the OAuth endpoints, for GitHub Enterprise or tests.
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(p *GitHubProvider) {
		p.config.Endpoint = endpoint
	}
}

// WithAPIURL overrides the REST API base URL.
func WithAPIURL(raw string) Option {
	return func(p *GitHubProvider) {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		if u, err := url.Parse(raw); err == nil {
			p.apiURL = u
		}
	}
}

// NewGitHubProvider creates a provider for the given OAuth app.
func NewGitHubProvider(settings domain.GitHubAuthSettings, opts ...Option) *GitHubProvider {
	p := &GitHubProvider{
		config: oauth2.Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			Endpoint:     githubendpoint.Endpoint,
			Scopes:       domain.GitHubScopes,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Factory adapts NewGitHubProvider to driven.IdentityProviderFactory.
func Factory(settings domain.GitHubAuthSettings) driven.IdentityProvider {
	return NewGitHubProvider(settings)
}

// AuthCodeURL returns the GitHub consent page with an S256 PKCE challenge.
func (p *GitHubProvider) AuthCodeURL(state, verifier, redirectURI string) string {
	cfg := p.config
	cfg.RedirectURL = redirectURI
	return cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades the code for a token and looks up the user.
// GitHub omits private emails from the profile, so the primary verified
// address is fetched separately.
func (p *GitHubProvider) Exchange(
	ctx context.Context,
	code, verifier, redirectURI string,
) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	cfg := p.config
	cfg.RedirectURL = redirectURI
	token, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %w", domain.ErrAuthFailed, err)
	}

	client := gh.NewClient(cfg.Client(ctx, token))
	if p.apiURL != nil {
		client.BaseURL = p.apiURL
	}

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%w: get user: %w", domain.ErrAuthFailed, err)
	}

	identity := &domain.Identity{
		ID:    user.GetID(),
		Login: user.GetLogin(),
		Name:  user.GetName(),
		Email: user.GetEmail(),
	}
	if identity.Email == "" {
		identity.Email = primaryEmail(ctx, client)
	}
	return identity, nil
}

// primaryEmail returns the primary verified address, or empty on any error.
func primaryEmail(ctx context.Context, client *gh.Client) string {
	emails, _, err := client.Users.ListEmails(ctx, nil)
	if err != nil {
		return ""
	}
	for _, e := range emails {
		if e.GetPrimary() && e.GetVerified() {
			return e.GetEmail()
		}
	}
	return ""
}
