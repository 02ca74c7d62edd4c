// Package cli is the paperqa command line.
//
// Commands call the driving ports only. Core services are built lazily by
// the loader set with SetServiceLoader, so commands such as version and
// settings work before any API key is configured.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
	"github.com/custodia-labs/paperqa/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// Services holds the core driving ports used by commands.
type Services struct {
	Index   driving.IndexManager
	Query   driving.QueryEngine
	History driving.HistoryService

	// Close releases the underlying adapters, optional.
	Close func() error
}

// ServiceLoader builds the core services on first use.
type ServiceLoader func() (*Services, error)

var (
	services        *Services
	serviceLoader   ServiceLoader
	settingsService driving.SettingsService
	identityService driving.IdentityService
)

var (
	verbose bool
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "paperqa",
	Short: "Ask questions about your PDFs",
	Long: `paperqa ingests PDF files, embeds their text through an
OpenAI-compatible embedding API and answers questions with a chat
completion model, citing the retrieved passages.

Get started:
  paperqa settings wizard
  paperqa ingest paper.pdf
  paperqa ask "What problem does the paper solve?"`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return loadEnv(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with API keys")
}

// Execute runs the root command. Commands stop when ctx is cancelled.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// SetServiceLoader sets the function that builds the core services.
func SetServiceLoader(loader ServiceLoader) {
	serviceLoader = loader
	services = nil
}

// SetSettingsService sets the settings service.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetIdentityService sets the GitHub sign-in service.
func SetIdentityService(s driving.IdentityService) {
	identityService = s
}

// currentUserID returns the signed-in login, empty when signed out.
func currentUserID() string {
	if identityService == nil {
		return ""
	}
	identity, err := identityService.Current()
	if err != nil {
		logger.Warn("Reading identity: %v", err)
		return ""
	}
	return identity.UserID()
}

// loadEnv reads a dotenv file. Existing variables win, a missing file is fine.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// core returns the core services, building them on first use.
func core() (*Services, error) {
	if services != nil {
		return services, nil
	}
	if serviceLoader == nil {
		return nil, errors.New("services not configured")
	}
	s, err := serviceLoader()
	if err != nil {
		return nil, err
	}
	services = s
	return services, nil
}

func closeServices() {
	if services == nil || services.Close == nil {
		return
	}
	if err := services.Close(); err != nil {
		logger.Warn("Closing services: %v", err)
	}
}
