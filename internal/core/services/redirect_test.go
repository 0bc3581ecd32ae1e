package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRedirectURI(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected map[string]string
	}{
		{
			name:     "query parameters",
			uri:      "https://app.example.com/callback?error=unauthorized&state=abc",
			expected: map[string]string{"error": "unauthorized", "state": "abc"},
		},
		{
			name:     "fragment parameters",
			uri:      "com.example.app://callback#code=XYZ&state=123",
			expected: map[string]string{"code": "XYZ", "state": "123"},
		},
		{
			name:     "no query or fragment",
			uri:      "https://app.example.com/callback",
			expected: map[string]string{},
		},
		{
			name:     "query wins over fragment",
			uri:      "https://app.example.com/callback?code=q#code=f",
			expected: map[string]string{"code": "q"},
		},
		{
			name:     "percent and plus decoding",
			uri:      "https://app.example.com/callback?error_description=User%20did+not%20consent&st%61te=a%2Fb",
			expected: map[string]string{"error_description": "User did not consent", "state": "a/b"},
		},
		{
			name:     "last occurrence wins",
			uri:      "https://app.example.com/callback?code=first&code=second",
			expected: map[string]string{"code": "second"},
		},
		{
			name:     "splits on first equals only",
			uri:      "https://app.example.com/callback?code=a=b",
			expected: map[string]string{"code": "a=b"},
		},
		{
			name:     "skips segments without equals or key",
			uri:      "https://app.example.com/callback?flag&=orphan&code=c&",
			expected: map[string]string{"code": "c"},
		},
		{
			name:     "empty value is kept",
			uri:      "https://app.example.com/callback?code=&state=s",
			expected: map[string]string{"code": "", "state": "s"},
		},
		{
			name:     "skips undecodable segment",
			uri:      "https://app.example.com/callback?code=%zz&state=s",
			expected: map[string]string{"state": "s"},
		},
		{
			name:     "malformed uri",
			uri:      "://bad uri\x7f",
			expected: map[string]string{},
		},
		{
			name:     "empty string",
			uri:      "",
			expected: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRedirectURI(tt.uri)
			assert.NotNil(t, got)
			assert.Equal(t, tt.expected, got)
		})
	}
}
