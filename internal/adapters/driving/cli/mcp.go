package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/authkit/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start a Model Context Protocol server that hands the logged-in user's
access token and profile to AI assistants.

By default, the server communicates over stdio using JSON-RPC. Use --port to
serve over HTTP on 127.0.0.1 instead.

Tools:
  get_access_token  a valid access token, refreshed when needed
  whoami            the user profile

Resources:
  authkit://status  login status without tokens

Examples:
  authkit mcp serve
  authkit mcp serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	env, err := openEnvironment(cmd.Context(), *settings)
	if err != nil {
		return err
	}
	defer env.Close()

	server, err := mcp.NewServer(&mcp.Ports{
		Credentials: env.credentials,
		UserInfo:    env.userInfo,
	}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		cmd.Printf("MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
