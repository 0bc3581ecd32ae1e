package mcp

import (
	"github.com/custodia-labs/authkit/internal/core/ports/driven"
	"github.com/custodia-labs/authkit/internal/core/ports/driving"
)

// Ports aggregates the services the MCP server reads from.
type Ports struct {
	// Credentials provides the cached credential.
	Credentials driving.CredentialsManager

	// UserInfo fetches the user profile. Optional; the ID token is used
	// when it is nil or fails.
	UserInfo driven.UserInfoClient
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Credentials == nil {
		return ErrMissingCredentials
	}
	return nil
}
