package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/authkit/internal/adapters/driven/oauth"
	"github.com/custodia-labs/authkit/internal/core/domain"
	"github.com/custodia-labs/authkit/internal/logger"
)

var whoamiJSON bool

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Long: `Show the profile of the logged-in user from the userinfo endpoint.
Falls back to the ID token claims when the endpoint cannot be reached.`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "print the profile as JSON")
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	env, err := openEnvironment(cmd.Context(), *settings)
	if err != nil {
		return err
	}
	defer env.Close()

	cred, err := env.credentials.Get(cmd.Context())
	if err != nil {
		return credentialsError(err)
	}

	profile, err := env.userInfo.UserInfo(cmd.Context(), cred.AccessToken)
	if err != nil {
		logger.Warn("userinfo request failed: %v", err)
		if profile, err = profileFromIDToken(cred.IDToken); err != nil {
			return fmt.Errorf("failed to get user profile: %w", err)
		}
	}

	if whoamiJSON {
		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode profile: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(headerStyle.Render(profile.AccountIdentifier()))
	cmd.Println(field("Subject", profile.Subject))
	if profile.Name != "" {
		cmd.Println(field("Name", profile.Name))
	}
	if profile.Email != "" {
		verified := ""
		if profile.EmailVerified {
			verified = mutedStyle.Render(" (verified)")
		}
		cmd.Println(field("Email", profile.Email+verified))
	}
	return nil
}

func profileFromIDToken(idToken string) (*domain.UserProfile, error) {
	if idToken == "" {
		return nil, fmt.Errorf("%w: no ID token was issued", domain.ErrNotFound)
	}
	claims, err := oauth.ParseIDTokenClaims(idToken)
	if err != nil {
		return nil, err
	}
	return &domain.UserProfile{
		Subject: claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
	}, nil
}
