package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "authkit://"

// statusInfo is the body of the status resource. It never carries tokens.
type statusInfo struct {
	LoggedIn    bool   `json:"logged_in"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
	Refreshable bool   `json:"refreshable"`
	Scope       string `json:"scope,omitempty"`
	Error       string `json:"error,omitempty"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Login status of the cached credential",
		MIMEType:    "application/json",
	}, s.handleStatusResource)
}

// handleStatusResource reports whether a usable credential is cached.
func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	var info statusInfo
	if s.ports.Credentials.HasValid(ctx) {
		cred, err := s.ports.Credentials.Get(ctx)
		if err != nil {
			info.Error = err.Error()
		} else {
			info.LoggedIn = true
			info.ExpiresIn = int64(cred.Lifetime().Seconds())
			info.Refreshable = cred.HasRefreshToken()
			info.Scope = cred.Scope
		}
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
