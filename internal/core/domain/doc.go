// Package domain defines the core business entities for authkit.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Credential: Tokens produced by a successful exchange
//   - CachedRecord: The persisted projection of a Credential with its expiry
//   - AuthorizationSession: In-flight state of one authorization attempt
//   - Account / AuthorizeRequest: Validated client and request configuration
//   - FlowError, ExchangeError, CacheError: Typed failures
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
