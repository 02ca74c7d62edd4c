package driving

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// IdentityService manages GitHub sign-in.
// Signing in only labels recorded questions, it grants no access.
type IdentityService interface {
	// Settings returns the OAuth app configuration, environment applied.
	Settings() domain.GitHubAuthSettings

	// SetApp stores the OAuth app credentials.
	SetApp(clientID, clientSecret string) error

	// BeginLogin prepares a flow redirecting to the given local port.
	// A zero port uses the configured one.
	BeginLogin(port int) (*domain.LoginFlow, error)

	// CompleteLogin exchanges the callback code and stores the identity.
	CompleteLogin(ctx context.Context, flow *domain.LoginFlow, code string) (*domain.Identity, error)

	// Current returns the signed-in user, or nil when signed out.
	Current() (*domain.Identity, error)

	// Logout forgets the signed-in user.
	Logout() error
}
