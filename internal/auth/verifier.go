// Package auth verifies the Google OIDC identity tokens Cloud Tasks attaches
// to the execution requests it delivers.
package auth

import (
	"context"

	"google.golang.org/api/idtoken"
)

// googleIssuers are the accepted issuer claim values for Google-minted
// identity tokens. Both string forms denote the same issuer.
var googleIssuers = []string{
	"https://accounts.google.com",
	"accounts.google.com",
}

// Claims is the subset of identity token claims the module inspects.
type Claims struct {
	Issuer  string
	Subject string
	Email   string
}

// TokenVerifier checks an identity token's cryptographic validity and
// audience. Implementations must never panic; every problem is an error.
type TokenVerifier interface {
	Verify(ctx context.Context, token, audience string) (*Claims, error)
}

// GoogleVerifier verifies tokens against Google's published signing keys.
// Key caching is handled inside the idtoken library.
type GoogleVerifier struct{}

// Verify implements TokenVerifier.
func (GoogleVerifier) Verify(ctx context.Context, token, audience string) (*Claims, error) {
	payload, err := idtoken.Validate(ctx, token, audience)
	if err != nil {
		return nil, err
	}

	claims := &Claims{
		Issuer:  payload.Issuer,
		Subject: payload.Subject,
	}
	if email, ok := payload.Claims["email"].(string); ok {
		claims.Email = email
	}
	return claims, nil
}

// trustedIssuer reports whether iss is an accepted Google issuer.
func trustedIssuer(iss string) bool {
	for _, trusted := range googleIssuers {
		if iss == trusted {
			return true
		}
	}
	return false
}
