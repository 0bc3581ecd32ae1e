package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/authkit/internal/adapters/driven/oauth"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and login status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	cmd.Println(headerStyle.Render("Tenant"))
	cmd.Println(field("Domain", settings.Tenant.Domain))
	cmd.Println(field("Client ID", settings.Tenant.ClientID))
	cmd.Println(field("Storage", settings.Storage.Backend.Description()))
	cmd.Println()

	env, err := openEnvironment(cmd.Context(), *settings)
	if err != nil {
		return err
	}
	defer env.Close()

	cmd.Println(headerStyle.Render("Credentials"))
	if !env.credentials.HasValid(cmd.Context()) {
		cmd.Println(field("Status", errorStyle.Render("not logged in")))
		return nil
	}

	cred, err := env.credentials.Get(cmd.Context())
	if err != nil {
		cmd.Println(field("Status", errorStyle.Render("login required")))
		cmd.Println(field("Reason", credentialsError(err).Error()))
		return nil
	}

	cmd.Println(field("Status", successStyle.Render("logged in")))
	cmd.Println(field("Expires in", cred.Lifetime().Round(time.Second).String()))
	cmd.Println(field("Refreshable", fmt.Sprintf("%t", cred.HasRefreshToken())))
	if cred.Scope != "" {
		cmd.Println(field("Scope", cred.Scope))
	}
	if cred.IDToken != "" {
		if claims, err := oauth.ParseIDTokenClaims(cred.IDToken); err == nil {
			cmd.Println(field("Subject", claims.Subject))
		}
	}
	return nil
}
