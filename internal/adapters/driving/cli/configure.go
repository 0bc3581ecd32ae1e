package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/authkit/internal/core/domain"
)

var (
	configureDomain       string
	configureClientID     string
	configureClientSecret bool
	configureStorage      string
	configureScope        string
	configureAudience     string
	configurePort         int
	configureRedisAddr    string
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure the tenant and storage",
	Long: `Configure the identity provider tenant and where credentials are cached.

Missing values are prompted for. The client secret is only needed for
confidential clients; it is read without echo when --client-secret is set.

Storage backends:
  sqlite   - SQLite database in the config directory (default)
  keyring  - OS keyring
  redis    - Redis server, shared between hosts
  memory   - Not persisted

Examples:
  authkit configure --domain tenant.example.com --client-id abc123
  authkit configure --client-secret
  authkit configure --storage redis --redis-addr localhost:6379`,
	Args: cobra.NoArgs,
	RunE: runConfigure,
}

var configureShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigureShow,
}

func init() {
	configureCmd.Flags().StringVar(&configureDomain, "domain", "", "tenant domain, e.g. tenant.example.com")
	configureCmd.Flags().StringVar(&configureClientID, "client-id", "", "OAuth client ID")
	configureCmd.Flags().BoolVar(&configureClientSecret, "client-secret", false, "prompt for a client secret")
	configureCmd.Flags().StringVar(&configureStorage, "storage", "", "storage backend (sqlite, keyring, redis, memory)")
	configureCmd.Flags().StringVar(&configureScope, "scope", "", "default scope")
	configureCmd.Flags().StringVar(&configureAudience, "audience", "", "default API audience")
	configureCmd.Flags().IntVar(&configurePort, "port", -1, "callback port (0 picks a free port)")
	configureCmd.Flags().StringVar(&configureRedisAddr, "redis-addr", "", "redis address for the redis backend")
	configureCmd.AddCommand(configureShowCmd)
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	tenantDomain := firstSet(configureDomain, settings.Tenant.Domain)
	if tenantDomain == "" {
		cmd.Print("Tenant domain: ")
		tenantDomain = readLine(reader)
	}
	clientID := firstSet(configureClientID, settings.Tenant.ClientID)
	if clientID == "" {
		cmd.Print("Client ID: ")
		clientID = readLine(reader)
	}
	clientSecret := settings.Tenant.ClientSecret
	if configureClientSecret {
		cmd.Print("Client secret (empty for a public client): ")
		clientSecret = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
	}

	if err := settingsService.SetTenant(tenantDomain, clientID, clientSecret); err != nil {
		return fmt.Errorf("invalid tenant: %w", err)
	}

	if configureStorage != "" {
		backend := domain.StorageBackend(configureStorage)
		if err := settingsService.SetStorageBackend(backend); err != nil {
			return err
		}
	}

	if err := applyConfigureFlags(cmd); err != nil {
		return err
	}

	if err := settingsService.Validate(); err != nil {
		return err
	}

	cmd.Println(successStyle.Render("Configuration saved") + " " + mutedStyle.Render(settingsService.ConfigPath()))
	return nil
}

// applyConfigureFlags saves the optional settings that were given as flags.
func applyConfigureFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if !flags.Changed("scope") && !flags.Changed("audience") &&
		!flags.Changed("port") && !flags.Changed("redis-addr") {
		return nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if flags.Changed("scope") {
		settings.Authorize.Scope = configureScope
	}
	if flags.Changed("audience") {
		settings.Authorize.Audience = configureAudience
	}
	if flags.Changed("port") {
		settings.Callback.Port = configurePort
	}
	if flags.Changed("redis-addr") {
		settings.Storage.RedisAddr = configureRedisAddr
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	return settingsService.Save(settings)
}

func runConfigureShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(headerStyle.Render("Tenant"))
	cmd.Println(field("Domain", orNotSet(settings.Tenant.Domain)))
	cmd.Println(field("Client ID", orNotSet(settings.Tenant.ClientID)))
	if settings.Tenant.ClientSecret != "" {
		cmd.Println(field("Client secret", maskSecret(settings.Tenant.ClientSecret)))
	} else {
		cmd.Println(field("Client secret", "(not set, public client)"))
	}
	cmd.Println()

	cmd.Println(headerStyle.Render("Authorize"))
	cmd.Println(field("Scope", settings.Authorize.Scope))
	cmd.Println(field("Audience", orNotSet(settings.Authorize.Audience)))
	cmd.Println(field("Connection", orNotSet(settings.Authorize.Connection)))
	cmd.Println(field("PKCE", fmt.Sprintf("%t", settings.Authorize.PKCE)))
	cmd.Println()

	cmd.Println(headerStyle.Render("Callback"))
	if settings.Callback.Port == 0 {
		cmd.Println(field("Port", fmt.Sprintf("first free in %d-%d", callbackPortStart, callbackPortEnd)))
	} else {
		cmd.Println(field("Port", fmt.Sprintf("%d", settings.Callback.Port)))
	}
	cmd.Println(field("Timeout", settings.Callback.Timeout.String()))
	cmd.Println()

	cmd.Println(headerStyle.Render("Storage"))
	cmd.Println(field("Backend", settings.Storage.Backend.Description()))
	switch settings.Storage.Backend {
	case domain.StorageRedis:
		cmd.Println(field("Address", settings.Storage.RedisAddr))
	case domain.StorageKeyring:
		cmd.Println(field("Service", settings.Storage.KeyringService))
	}
	cmd.Println()

	cmd.Println(mutedStyle.Render("Config file: " + settingsService.ConfigPath()))
	return nil
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n') //nolint:errcheck // EOF yields what was read
	return strings.TrimSpace(input)
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orNotSet(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}
