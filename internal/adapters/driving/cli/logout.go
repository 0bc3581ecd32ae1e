package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove cached credentials",
	Long: `Remove the cached credentials from the storage backend.
The session at the identity provider is not ended.`,
	Args: cobra.NoArgs,
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	env, err := openEnvironment(cmd.Context(), *settings)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.credentials.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	cmd.Println(successStyle.Render("Logged out"))
	return nil
}
