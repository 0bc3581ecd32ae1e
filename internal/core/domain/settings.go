package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// StorageBackend identifies where cached credentials are persisted.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite stores credentials in the local SQLite database.
	StorageSQLite StorageBackend = "sqlite"

	// StorageKeyring stores credentials in the OS keychain.
	StorageKeyring StorageBackend = "keyring"

	// StorageRedis stores credentials in a Redis server.
	StorageRedis StorageBackend = "redis"

	// StorageMemory keeps credentials for the lifetime of the process only.
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StorageKeyring, StorageRedis, StorageMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StorageBackend) Description() string {
	switch b {
	case StorageSQLite:
		return "SQLite (local database file)"
	case StorageKeyring:
		return "Keyring (OS credential store)"
	case StorageRedis:
		return "Redis (shared server)"
	case StorageMemory:
		return "Memory (not persisted)"
	default:
		return unknownDescription
	}
}

// AllStorageBackends returns all available storage backends.
func AllStorageBackends() []StorageBackend {
	return []StorageBackend{StorageSQLite, StorageKeyring, StorageRedis, StorageMemory}
}

// TenantSettings identifies the OAuth client.
type TenantSettings struct {
	// Domain is the tenant host or URL.
	Domain string
	// ClientID is the OAuth client ID.
	ClientID string
	// ClientSecret is set only for confidential clients.
	ClientSecret string
}

// IsConfigured returns true if the tenant has the minimum required fields.
func (t TenantSettings) IsConfigured() bool {
	return t.Domain != "" && t.ClientID != ""
}

// AuthorizeSettings holds the default authorization parameters.
type AuthorizeSettings struct {
	Scope      string
	Audience   string
	Connection string
	// PKCE enables the code challenge. Defaults to true.
	PKCE bool
}

// CallbackSettings configures the loopback redirect server.
type CallbackSettings struct {
	// Port is the loopback port. Zero picks a free port.
	Port int
	// Timeout bounds how long login waits for the redirect.
	Timeout time.Duration
}

// StorageSettings selects and configures the credential storage.
type StorageSettings struct {
	Backend        StorageBackend
	RedisAddr      string
	KeyringService string
}

// CredentialSettings tunes the credentials manager.
type CredentialSettings struct {
	// RefreshLeeway treats credentials as expired this long before expiry.
	RefreshLeeway time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Tenant      TenantSettings
	Authorize   AuthorizeSettings
	Callback    CallbackSettings
	Storage     StorageSettings
	Credentials CredentialSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The tenant is left unconfigured; users must run `authkit configure`.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Authorize: AuthorizeSettings{
			Scope: "openid profile email offline_access",
			PKCE:  true,
		},
		Callback: CallbackSettings{
			Port:    0,
			Timeout: 5 * time.Minute,
		},
		Storage: StorageSettings{
			Backend:        StorageSQLite,
			RedisAddr:      "localhost:6379",
			KeyringService: "authkit",
		},
	}
}

// Validate checks that the settings are usable for login.
func (s AppSettings) Validate() error {
	if !s.Tenant.IsConfigured() {
		return fmt.Errorf("%w: tenant domain and client ID must be configured", ErrInvalidInput)
	}
	if !s.Storage.Backend.IsValid() {
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidInput, s.Storage.Backend)
	}
	if s.Storage.Backend == StorageRedis && s.Storage.RedisAddr == "" {
		return fmt.Errorf("%w: redis storage requires an address", ErrInvalidInput)
	}
	if s.Callback.Port < 0 || s.Callback.Port > 65535 {
		return fmt.Errorf("%w: callback port %d out of range", ErrInvalidInput, s.Callback.Port)
	}
	if s.Credentials.RefreshLeeway < 0 {
		return fmt.Errorf("%w: refresh leeway must not be negative", ErrInvalidInput)
	}
	return nil
}

// Account builds the validated Account for the configured tenant.
func (s AppSettings) Account() (Account, error) {
	return NewAccount(s.Tenant.Domain, s.Tenant.ClientID, s.Tenant.ClientSecret)
}

// AuthorizeOptions converts the defaults into request options.
func (s AppSettings) AuthorizeOptions() []AuthorizeOption {
	opts := []AuthorizeOption{WithScope(s.Authorize.Scope)}
	if s.Authorize.Audience != "" {
		opts = append(opts, WithAudience(s.Authorize.Audience))
	}
	if s.Authorize.Connection != "" {
		opts = append(opts, WithConnection(s.Authorize.Connection))
	}
	if !s.Authorize.PKCE {
		opts = append(opts, WithoutPKCE())
	}
	return opts
}
