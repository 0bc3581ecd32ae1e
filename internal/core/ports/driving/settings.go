package driving

import "github.com/custodia-labs/authkit/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetTenant updates the tenant domain and client credentials.
	SetTenant(domain, clientID, clientSecret string) error

	// SetStorageBackend selects where credentials are cached.
	SetStorageBackend(backend domain.StorageBackend) error

	// Validate checks if current settings are usable for login.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ConfigPath returns the path of the backing configuration file.
	ConfigPath() string
}
