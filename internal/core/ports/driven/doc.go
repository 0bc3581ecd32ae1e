// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CredentialStorage: Opaque key/value persistence for cached credentials
//   - SessionStore: Persistence for in-flight authorization sessions
//   - TokenExchanger: Token endpoint client (code and refresh grants)
//   - UserAgent: Opens the authorization URL in an external browser
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - UserInfoClient: Fetches the user profile. Only `authkit whoami` needs it.
//   - TokenProvider: Supplies bearer tokens to downstream HTTP clients.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
