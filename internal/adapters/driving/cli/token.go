package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/authkit/internal/core/domain"
)

var (
	tokenJSON    bool
	tokenIDToken bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a valid access token",
	Long: `Print the cached access token, refreshing it first if it has expired.

The token is written to stdout without decoration so it can be used in scripts:
  curl -H "Authorization: Bearer $(authkit token)" https://api.example.com/me`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().BoolVar(&tokenJSON, "json", false, "print the full credential as JSON")
	tokenCmd.Flags().BoolVar(&tokenIDToken, "id-token", false, "print the ID token instead of the access token")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
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

	switch {
	case tokenJSON:
		data, err := json.MarshalIndent(cred, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode credential: %w", err)
		}
		cmd.Println(string(data))
	case tokenIDToken:
		if cred.IDToken == "" {
			return errors.New("no ID token was issued (request the openid scope)")
		}
		cmd.Println(cred.IDToken)
	default:
		if cred.AccessToken == "" {
			return errors.New("no access token was issued")
		}
		cmd.Println(cred.AccessToken)
	}
	return nil
}

// credentialsError adds a next step to cache failures that need a new login.
func credentialsError(err error) error {
	switch {
	case errors.Is(err, domain.ErrCredentialsNotFound):
		return fmt.Errorf("not logged in (run 'authkit login'): %w", err)
	case errors.Is(err, domain.ErrExpiredNoRefreshToken), errors.Is(err, domain.ErrRefreshFailed):
		return fmt.Errorf("%w; run 'authkit login' again", err)
	default:
		return err
	}
}
