// Package cli provides the authkit command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/authkit/internal/adapters/driven/config/file"
	"github.com/custodia-labs/authkit/internal/core/domain"
	"github.com/custodia-labs/authkit/internal/core/ports/driving"
	"github.com/custodia-labs/authkit/internal/core/services"
	"github.com/custodia-labs/authkit/internal/logger"
)

var (
	version   = "dev"
	verbose   bool
	configDir string

	// settingsService is built from --config-dir unless already set.
	settingsService driving.SettingsService
)

var rootCmd = &cobra.Command{
	Use:   "authkit",
	Short: "Log in to an OAuth2 identity provider from the terminal",
	Long: `authkit runs the OAuth2 Authorization Code flow with PKCE against your
identity provider tenant, caches the resulting credentials and keeps them
fresh with the refresh token.

Get started:
  authkit configure --domain tenant.example.com --client-id YOUR_CLIENT_ID
  authkit login
  authkit token`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.authkit)")
}

// SetVersion sets the version reported by `authkit version`.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command. Command output goes to stdout so that
// `authkit token` can be captured by scripts.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if settingsService != nil {
		return nil
	}
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("failed to open configuration: %w", err)
	}
	logger.Debug("using configuration %s", store.Path())
	settingsService = services.NewSettingsService(store)
	return nil
}

// loadSettings returns validated settings for commands that talk to the tenant.
func loadSettings() (*domain.AppSettings, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		if !settings.Tenant.IsConfigured() {
			return nil, fmt.Errorf("%w (run 'authkit configure')", err)
		}
		return nil, err
	}
	return settings, nil
}

// dataDir returns the directory holding the database and lock file.
func dataDir() (string, error) {
	dir := configDir
	if dir == "" {
		var err error
		if dir, err = file.DefaultDir(); err != nil {
			return "", err
		}
	}
	return dir, nil
}
