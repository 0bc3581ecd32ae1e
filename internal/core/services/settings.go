package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/authkit/internal/core/domain"
	"github.com/custodia-labs/authkit/internal/core/ports/driven"
	"github.com/custodia-labs/authkit/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyTenantDomain       = "tenant.domain"
	keyTenantClientID     = "tenant.client_id"
	keyTenantClientSecret = "tenant.client_secret"
	keyAuthorizeScope     = "authorize.scope"
	keyAuthorizeAudience  = "authorize.audience"
	keyAuthorizeConn      = "authorize.connection"
	keyAuthorizePKCE      = "authorize.pkce"
	keyCallbackPort       = "callback.port"
	keyCallbackTimeout    = "callback.timeout_seconds"
	keyStorageBackend     = "storage.backend"
	keyStorageRedisAddr   = "storage.redis_addr"
	keyStorageKeyringSvc  = "storage.keyring_service"
	keyRefreshLeeway      = "credentials.refresh_leeway_seconds"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Tenant: domain.TenantSettings{
			Domain:       s.configStore.GetString(keyTenantDomain),
			ClientID:     s.configStore.GetString(keyTenantClientID),
			ClientSecret: s.configStore.GetString(keyTenantClientSecret),
		},
		Authorize: domain.AuthorizeSettings{
			Scope:      s.getString(keyAuthorizeScope, defaults.Authorize.Scope),
			Audience:   s.configStore.GetString(keyAuthorizeAudience),
			Connection: s.configStore.GetString(keyAuthorizeConn),
			PKCE:       s.getBool(keyAuthorizePKCE, defaults.Authorize.PKCE),
		},
		Callback: domain.CallbackSettings{
			Port:    s.getInt(keyCallbackPort, defaults.Callback.Port),
			Timeout: s.getSeconds(keyCallbackTimeout, defaults.Callback.Timeout),
		},
		Storage: domain.StorageSettings{
			Backend:        s.getBackend(defaults.Storage.Backend),
			RedisAddr:      s.getString(keyStorageRedisAddr, defaults.Storage.RedisAddr),
			KeyringService: s.getString(keyStorageKeyringSvc, defaults.Storage.KeyringService),
		},
		Credentials: domain.CredentialSettings{
			RefreshLeeway: s.getSeconds(keyRefreshLeeway, defaults.Credentials.RefreshLeeway),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyTenantDomain, settings.Tenant.Domain},
		{keyTenantClientID, settings.Tenant.ClientID},
		{keyTenantClientSecret, settings.Tenant.ClientSecret},
		{keyAuthorizeScope, settings.Authorize.Scope},
		{keyAuthorizeAudience, settings.Authorize.Audience},
		{keyAuthorizeConn, settings.Authorize.Connection},
		{keyAuthorizePKCE, settings.Authorize.PKCE},
		{keyCallbackPort, settings.Callback.Port},
		{keyCallbackTimeout, int(settings.Callback.Timeout / time.Second)},
		{keyStorageBackend, settings.Storage.Backend.String()},
		{keyStorageRedisAddr, settings.Storage.RedisAddr},
		{keyStorageKeyringSvc, settings.Storage.KeyringService},
		{keyRefreshLeeway, int(settings.Credentials.RefreshLeeway / time.Second)},
	}

	// Unchanged keys are skipped so environment overrides are not persisted.
	for _, v := range values {
		if current, ok := s.configStore.Get(v.key); ok && current == v.value {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetTenant updates the tenant domain and client credentials.
func (s *SettingsService) SetTenant(tenantDomain, clientID, clientSecret string) error {
	if _, err := domain.NewAccount(tenantDomain, clientID, clientSecret); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Tenant = domain.TenantSettings{
		Domain:       tenantDomain,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}

	// Confidential clients authenticate with the secret instead of PKCE.
	settings.Authorize.PKCE = clientSecret == ""

	return s.Save(settings)
}

// SetStorageBackend selects where credentials are cached.
func (s *SettingsService) SetStorageBackend(backend domain.StorageBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: invalid storage backend %q (want one of %v)",
			domain.ErrInvalidInput, backend, domain.AllStorageBackends())
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Storage.Backend = backend
	return s.Save(settings)
}

// Validate checks if current settings are usable for login.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	_, err = settings.Account()
	return err
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ConfigPath returns the path of the backing configuration file.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Second
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.configStore.GetString(keyStorageBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StorageBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
