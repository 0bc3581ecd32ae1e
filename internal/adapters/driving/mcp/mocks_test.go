package mcp

import (
	"context"

	"github.com/custodia-labs/authkit/internal/core/domain"
)

// mockCredentials is a mock implementation of driving.CredentialsManager.
type mockCredentials struct {
	cred  *domain.Credential
	err   error
	valid bool
}

func (m *mockCredentials) Save(_ context.Context, _ domain.Credential) error {
	return m.err
}

func (m *mockCredentials) Get(_ context.Context) (*domain.Credential, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.cred, nil
}

func (m *mockCredentials) HasValid(_ context.Context) bool {
	return m.valid
}

func (m *mockCredentials) Clear(_ context.Context) error {
	return m.err
}

// mockUserInfo is a mock implementation of driven.UserInfoClient.
type mockUserInfo struct {
	profile *domain.UserProfile
	err     error
	token   string
}

func (m *mockUserInfo) UserInfo(_ context.Context, accessToken string) (*domain.UserProfile, error) {
	m.token = accessToken
	return m.profile, m.err
}

func loggedIn() *mockCredentials {
	cred := domain.NewCredential("", "access-token", "Bearer", "refresh-token", 3600)
	cred.Scope = "openid profile"
	return &mockCredentials{cred: &cred, valid: true}
}
