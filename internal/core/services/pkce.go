package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/custodia-labs/authkit/internal/core/domain"
)

// PKCE code verifier length in bytes (RFC 7636 allows 43-128 characters
// after encoding; 64 bytes encode to 86).
const codeVerifierLength = 64

// stateLength is the number of random bytes in a state value.
const stateLength = 32

// randReader is the entropy source. Tests replace it to simulate failure.
var randReader io.Reader = rand.Reader

// GeneratePKCE creates a code verifier and its S256 challenge.
func GeneratePKCE() (domain.PKCE, error) {
	verifier, err := randomString(codeVerifierLength)
	if err != nil {
		return domain.PKCE{}, err
	}
	return domain.PKCE{
		Verifier:  verifier,
		Challenge: codeChallenge(verifier),
	}, nil
}

// codeChallenge creates a S256 code challenge from the verifier.
func codeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// generateState creates a random state parameter for CSRF protection.
func generateState() (string, error) {
	return randomString(stateLength)
}

func randomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(randReader, buf); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEntropyUnavailable, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
