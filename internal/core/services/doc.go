// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// AuthorizationService runs the browser-based authorization code flow and
// CredentialsManager caches and renews the resulting credential. Both
// coordinate concurrent callers with golang.org/x/sync/singleflight.
package services
