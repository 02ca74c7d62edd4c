package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/oauth"
	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/logger"
)

// errNoIdentityService is returned when sign-in is not wired.
var errNoIdentityService = errors.New("sign-in is not available")

var (
	loginPort         int
	loginNoBrowser    bool
	loginClientID     string
	loginClientSecret string

	// openBrowser and loginTimeout are replaced in tests.
	openBrowser  = oauth.OpenBrowser
	loginTimeout = domain.DefaultLoginTimeout
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with GitHub",
	Long: `Sign in with GitHub so questions are recorded under your login.

The OAuth app is read from GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET, or
saved once with --client-id and --client-secret. Its callback URL must be
http://localhost:8001/auth/callback unless --port says otherwise.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the signed-in GitHub user",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in GitHub user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().IntVarP(&loginPort, "port", "p", 0, "local callback port (default from settings, 8001)")
	loginCmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "print the URL instead of opening a browser")
	loginCmd.Flags().StringVar(&loginClientID, "client-id", "", "save this GitHub OAuth app client id")
	loginCmd.Flags().StringVar(&loginClientSecret, "client-secret", "", "save this GitHub OAuth app client secret")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if identityService == nil {
		return errNoIdentityService
	}

	if loginClientID != "" || loginClientSecret != "" {
		if err := identityService.SetApp(loginClientID, loginClientSecret); err != nil {
			return fmt.Errorf("failed to save OAuth app: %w", err)
		}
		cmd.Println("GitHub OAuth app saved")
	}

	flow, err := identityService.BeginLogin(loginPort)
	if err != nil {
		if errors.Is(err, domain.ErrAuthNotConfigured) {
			return fmt.Errorf("%w\nCreate an OAuth app at https://github.com/settings/developers", err)
		}
		return err
	}

	server := oauth.NewCallbackServer(flow.Port, flow.State)
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logger.Debug("Stopping callback server: %v", err)
		}
	}()

	cmd.Println("Open this URL to authorise paperqa:")
	cmd.Printf("  %s\n", flow.AuthURL)
	if !loginNoBrowser {
		if err := openBrowser(flow.AuthURL); err != nil {
			logger.Debug("Opening browser: %v", err)
		}
	}
	cmd.Println(mutedStyle.Render("Waiting for GitHub..."))

	ctx := commandContext(cmd)
	code, err := server.WaitForCode(ctx, loginTimeout)
	if err != nil {
		return fmt.Errorf("sign-in did not complete: %w", err)
	}

	identity, err := identityService.CompleteLogin(ctx, flow, code)
	if err != nil {
		return err
	}
	cmd.Println(renderSuccess(fmt.Sprintf("Signed in as %s", identity.Login)))
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if identityService == nil {
		return errNoIdentityService
	}
	if err := identityService.Logout(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	cmd.Println("Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	if identityService == nil {
		return errNoIdentityService
	}
	identity, err := identityService.Current()
	if err != nil {
		return err
	}
	if identity == nil {
		cmd.Println("Not signed in. Run 'paperqa login' to sign in with GitHub.")
		return nil
	}

	cmd.Printf("Login:  %s\n", identity.Login)
	if identity.Name != "" {
		cmd.Printf("Name:   %s\n", identity.Name)
	}
	if identity.Email != "" {
		cmd.Printf("Email:  %s\n", identity.Email)
	}
	if !identity.SignedInAt.IsZero() {
		cmd.Printf("Since:  %s\n", identity.SignedInAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
