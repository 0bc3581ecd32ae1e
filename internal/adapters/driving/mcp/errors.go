// Package mcp provides an MCP (Model Context Protocol) server that lets AI
// assistants use the logged-in user's credentials.
package mcp

import "errors"

// ErrMissingCredentials is returned when the credentials manager is not provided.
var ErrMissingCredentials = errors.New("mcp: credentials manager is required")
