package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionStatus(t *testing.T) {
	tests := []struct {
		status   SessionStatus
		terminal bool
	}{
		{SessionCreated, false},
		{SessionLaunched, false},
		{SessionSucceeded, true},
		{SessionFailed, true},
		{SessionCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, tt.status.IsValid())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}

	assert.False(t, SessionStatus("pending").IsValid())
}

func TestAuthorizationSession_UsesPKCE(t *testing.T) {
	assert.True(t, (&AuthorizationSession{CodeVerifier: "v"}).UsesPKCE())
	assert.False(t, (&AuthorizationSession{}).UsesPKCE())
}

func TestUserProfile_AccountIdentifier(t *testing.T) {
	assert.Equal(t, "a@example.com", (&UserProfile{Subject: "s", Email: "a@example.com", Name: "A"}).AccountIdentifier())
	assert.Equal(t, "nick", (&UserProfile{Subject: "s", Nickname: "nick"}).AccountIdentifier())
	assert.Equal(t, "s", (&UserProfile{Subject: "s"}).AccountIdentifier())
}

func TestTelemetry_Value(t *testing.T) {
	assert.Empty(t, Telemetry{}.Value())
	// {"name":"authkit","version":"1.0.0"}
	assert.Equal(t,
		"eyJuYW1lIjoiYXV0aGtpdCIsInZlcnNpb24iOiIxLjAuMCJ9",
		Telemetry{Name: "authkit", Version: "1.0.0"}.Value())
}
