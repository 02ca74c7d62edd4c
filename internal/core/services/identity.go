package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
	"github.com/custodia-labs/paperqa/internal/logger"
)

// Ensure IdentityService implements the interface.
var _ driving.IdentityService = (*IdentityService)(nil)

// Config keys for sign-in.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyGitHubClientID     = "github.client_id"
	keyGitHubClientSecret = "github.client_secret"
	keyGitHubCallbackPort = "github.callback_port"
	keyIdentityID         = "identity.id"
	keyIdentityLogin      = "identity.login"
	keyIdentityName       = "identity.name"
	keyIdentityEmail      = "identity.email"
	keyIdentitySignedInAt = "identity.signed_in_at"
)

// Environment fallbacks for the OAuth app.
const (
	envGitHubClientID     = "GITHUB_CLIENT_ID"
	envGitHubClientSecret = "GITHUB_CLIENT_SECRET"
)

// IdentityService signs the user in with GitHub and remembers who they are.
// Only the profile is stored; the access token is dropped after the lookup.
type IdentityService struct {
	configStore driven.ConfigStore
	newProvider driven.IdentityProviderFactory
	getenv      func(string) string
	now         func() time.Time
}

// NewIdentityService creates an identity service.
func NewIdentityService(configStore driven.ConfigStore, newProvider driven.IdentityProviderFactory) *IdentityService {
	return &IdentityService{
		configStore: configStore,
		newProvider: newProvider,
		getenv:      os.Getenv,
		now:         time.Now,
	}
}

// Settings returns the OAuth app, falling back to the environment.
func (s *IdentityService) Settings() domain.GitHubAuthSettings {
	settings := domain.GitHubAuthSettings{
		ClientID:     s.configStore.GetString(keyGitHubClientID),
		ClientSecret: s.configStore.GetString(keyGitHubClientSecret),
		CallbackPort: s.configStore.GetInt(keyGitHubCallbackPort),
	}
	if settings.ClientID == "" {
		settings.ClientID = s.getenv(envGitHubClientID)
	}
	if settings.ClientSecret == "" {
		settings.ClientSecret = s.getenv(envGitHubClientSecret)
	}
	if settings.CallbackPort <= 0 {
		settings.CallbackPort = domain.DefaultCallbackPort
	}
	return settings
}

// SetApp stores the OAuth app credentials.
func (s *IdentityService) SetApp(clientID, clientSecret string) error {
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("%w: client id and secret are required", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(keyGitHubClientID, clientID); err != nil {
		return err
	}
	return s.configStore.Set(keyGitHubClientSecret, clientSecret)
}

// BeginLogin prepares the consent URL with fresh state and PKCE verifier.
func (s *IdentityService) BeginLogin(port int) (*domain.LoginFlow, error) {
	settings := s.Settings()
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: set %s and %s", domain.ErrAuthNotConfigured, envGitHubClientID, envGitHubClientSecret)
	}
	if s.newProvider == nil {
		return nil, domain.ErrAuthNotConfigured
	}
	if port <= 0 {
		port = settings.CallbackPort
	}

	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}
	verifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("generate verifier: %w", err)
	}

	redirect := domain.RedirectURI(port)
	return &domain.LoginFlow{
		AuthURL:     s.newProvider(settings).AuthCodeURL(state, verifier, redirect),
		State:       state,
		Verifier:    verifier,
		RedirectURI: redirect,
		Port:        port,
	}, nil
}

// CompleteLogin exchanges the code and persists the profile.
func (s *IdentityService) CompleteLogin(
	ctx context.Context,
	flow *domain.LoginFlow,
	code string,
) (*domain.Identity, error) {
	if flow == nil || code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", domain.ErrInvalidInput)
	}
	settings := s.Settings()
	if !settings.IsConfigured() || s.newProvider == nil {
		return nil, domain.ErrAuthNotConfigured
	}

	identity, err := s.newProvider(settings).Exchange(ctx, code, flow.Verifier, flow.RedirectURI)
	if err != nil {
		if !errors.Is(err, domain.ErrAuthFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrAuthFailed, err)
		}
		return nil, err
	}
	identity.SignedInAt = s.now().UTC()

	if err := s.save(identity); err != nil {
		return nil, fmt.Errorf("save identity: %w", err)
	}
	logger.Info("Signed in as %s", identity.Login)
	return identity, nil
}

// Current returns the stored identity, or nil when signed out.
func (s *IdentityService) Current() (*domain.Identity, error) {
	login := s.configStore.GetString(keyIdentityLogin)
	if login == "" {
		return nil, nil
	}
	identity := &domain.Identity{
		ID:    int64(s.configStore.GetInt(keyIdentityID)),
		Login: login,
		Name:  s.configStore.GetString(keyIdentityName),
		Email: s.configStore.GetString(keyIdentityEmail),
	}
	if at := s.configStore.GetString(keyIdentitySignedInAt); at != "" {
		if t, err := time.Parse(time.RFC3339, at); err == nil {
			identity.SignedInAt = t
		}
	}
	return identity, nil
}

// Logout clears the stored identity. The OAuth app is kept.
func (s *IdentityService) Logout() error {
	return s.save(&domain.Identity{})
}

func (s *IdentityService) save(identity *domain.Identity) error {
	signedIn := ""
	if !identity.SignedInAt.IsZero() {
		signedIn = identity.SignedInAt.Format(time.RFC3339)
	}
	values := []struct {
		key   string
		value any
	}{
		{keyIdentityID, identity.ID},
		{keyIdentityLogin, identity.Login},
		{keyIdentityName, identity.Name},
		{keyIdentityEmail, identity.Email},
		{keyIdentitySignedInAt, signedIn},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return err
		}
	}
	return nil
}
