package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/authkit/internal/adapters/driven/oauth"
	"github.com/custodia-labs/authkit/internal/core/domain"
	"github.com/custodia-labs/authkit/internal/logger"
)

// TokenInput is the input schema for the get_access_token tool.
type TokenInput struct{}

// TokenOutput is the output schema for the get_access_token tool.
type TokenOutput struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in" jsonschema:"seconds until the token expires"`
	Scope       string `json:"scope,omitempty"`
}

// WhoamiInput is the input schema for the whoami tool.
type WhoamiInput struct{}

// WhoamiOutput is the output schema for the whoami tool.
type WhoamiOutput struct {
	Subject       string `json:"sub"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Source        string `json:"source" jsonschema:"userinfo or id_token"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_access_token",
		Description: "Return a valid access token for the logged-in user, refreshing it if needed",
	}, s.handleGetAccessToken)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "whoami",
		Description: "Return the profile of the logged-in user",
	}, s.handleWhoami)
}

func (s *Server) handleGetAccessToken(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ TokenInput,
) (*mcp.CallToolResult, TokenOutput, error) {
	cred, err := s.ports.Credentials.Get(ctx)
	if err != nil {
		return nil, TokenOutput{}, err
	}
	if cred.AccessToken == "" {
		return nil, TokenOutput{}, fmt.Errorf("%w: no access token was issued", domain.ErrCredentialsNotFound)
	}

	return nil, TokenOutput{
		AccessToken: cred.AccessToken,
		TokenType:   cred.TokenType,
		ExpiresIn:   int64(cred.Lifetime().Seconds()),
		Scope:       cred.Scope,
	}, nil
}

func (s *Server) handleWhoami(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ WhoamiInput,
) (*mcp.CallToolResult, WhoamiOutput, error) {
	cred, err := s.ports.Credentials.Get(ctx)
	if err != nil {
		return nil, WhoamiOutput{}, err
	}

	if s.ports.UserInfo != nil {
		profile, err := s.ports.UserInfo.UserInfo(ctx, cred.AccessToken)
		if err == nil {
			return nil, WhoamiOutput{
				Subject:       profile.Subject,
				Name:          profile.Name,
				Email:         profile.Email,
				EmailVerified: profile.EmailVerified,
				Source:        "userinfo",
			}, nil
		}
		logger.Warn("userinfo request failed: %v", err)
	}

	if cred.IDToken == "" {
		return nil, WhoamiOutput{}, fmt.Errorf("%w: no profile available", domain.ErrNotFound)
	}
	claims, err := oauth.ParseIDTokenClaims(cred.IDToken)
	if err != nil {
		return nil, WhoamiOutput{}, err
	}
	return nil, WhoamiOutput{
		Subject: claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Source:  "id_token",
	}, nil
}
