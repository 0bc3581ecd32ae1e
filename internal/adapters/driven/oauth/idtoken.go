package oauth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/authkit/internal/core/domain"
)

// idTokenClaims adds the OIDC profile claims to the registered ones.
type idTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Nonce string `json:"nonce,omitempty"`
}

// ParseIDTokenClaims decodes the claims of an ID token without verifying
// its signature. The result is for display only and must not be used for
// authorization decisions.
func ParseIDTokenClaims(idToken string) (*domain.IDTokenClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	var claims idTokenClaims
	if _, _, err := parser.ParseUnverified(idToken, &claims); err != nil {
		return nil, fmt.Errorf("%w: parse id token: %v", domain.ErrInvalidInput, err)
	}

	result := &domain.IDTokenClaims{
		Issuer:   claims.Issuer,
		Subject:  claims.Subject,
		Audience: []string(claims.Audience),
		Email:    claims.Email,
		Name:     claims.Name,
		Nonce:    claims.Nonce,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}
