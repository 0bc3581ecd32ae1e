package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageBackend_IsValid(t *testing.T) {
	for _, backend := range AllStorageBackends() {
		t.Run(backend.String(), func(t *testing.T) {
			assert.True(t, backend.IsValid())
			assert.NotEqual(t, unknownDescription, backend.Description())
		})
	}

	assert.False(t, StorageBackend("floppy").IsValid())
	assert.Equal(t, unknownDescription, StorageBackend("floppy").Description())
}

func TestDefaultAppSettings(t *testing.T) {
	settings := DefaultAppSettings()

	assert.Equal(t, StorageSQLite, settings.Storage.Backend)
	assert.True(t, settings.Authorize.PKCE)
	assert.Contains(t, settings.Authorize.Scope, "openid")
	assert.Equal(t, 5*time.Minute, settings.Callback.Timeout)
	assert.False(t, settings.Tenant.IsConfigured())
}

func TestAppSettings_Validate(t *testing.T) {
	valid := func() AppSettings {
		s := DefaultAppSettings()
		s.Tenant = TenantSettings{Domain: "tenant.example.com", ClientID: "client"}
		return s
	}

	tests := []struct {
		name    string
		mutate  func(*AppSettings)
		wantErr bool
	}{
		{name: "valid", mutate: func(*AppSettings) {}},
		{name: "no tenant", mutate: func(s *AppSettings) { s.Tenant = TenantSettings{} }, wantErr: true},
		{name: "bad backend", mutate: func(s *AppSettings) { s.Storage.Backend = "floppy" }, wantErr: true},
		{name: "redis without address", mutate: func(s *AppSettings) {
			s.Storage.Backend = StorageRedis
			s.Storage.RedisAddr = ""
		}, wantErr: true},
		{name: "port out of range", mutate: func(s *AppSettings) { s.Callback.Port = 70000 }, wantErr: true},
		{name: "negative leeway", mutate: func(s *AppSettings) { s.Credentials.RefreshLeeway = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAppSettings_AuthorizeOptions(t *testing.T) {
	s := DefaultAppSettings()
	s.Authorize.Audience = "https://api"
	s.Authorize.Connection = "github"
	s.Authorize.PKCE = false

	req, err := NewAuthorizeRequest("http://127.0.0.1/callback", s.AuthorizeOptions()...)
	require.NoError(t, err)
	assert.Equal(t, s.Authorize.Scope, req.Scope)
	assert.Equal(t, "https://api", req.Audience)
	assert.Equal(t, "github", req.Connection)
	assert.False(t, req.UsePKCE)
}
