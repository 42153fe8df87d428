package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// RequestVerifier authenticates inbound HTTP requests by the identity token
// in their Authorization header, bound to one expected audience.
type RequestVerifier struct {
	verifier TokenVerifier
	audience string
	logger   *slog.Logger
}

// NewRequestVerifier builds a RequestVerifier for the given audience.
func NewRequestVerifier(verifier TokenVerifier, audience string, logger *slog.Logger) *RequestVerifier {
	return &RequestVerifier{
		verifier: verifier,
		audience: audience,
		logger:   logger.With("component", "oidc_auth"),
	}
}

// VerifyRequest checks the request's bearer identity token. It returns
// whether the request is authentic and, when it is not, a reason suitable for
// the response body. Verification failures are logged but never panic or
// propagate as errors.
func (v *RequestVerifier) VerifyRequest(r *http.Request) (bool, string) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return false, "Missing or invalid Authorization header"
	}
	token := authHeader[len(bearerPrefix):]

	claims, err := v.verifier.Verify(r.Context(), token, v.audience)
	if err != nil {
		v.logger.Error("OIDC token verification failed", "error", err)
		return false, err.Error()
	}

	if !trustedIssuer(claims.Issuer) {
		return false, fmt.Sprintf("Invalid issuer: %s", claims.Issuer)
	}

	return true, ""
}
