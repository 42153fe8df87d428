package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taskbridge/cloudtasks/internal/api/shared"
	"github.com/taskbridge/cloudtasks/internal/auth"
)

// OIDCAuthMiddleware rejects task execution requests whose Google OIDC
// identity token is missing or invalid for the configured audience.
//
// When no audience is configured the middleware passes every request through
// unverified. That fallback exists for local development against the Cloud
// Tasks emulator or curl; a production deployment must always configure an
// audience.
type OIDCAuthMiddleware struct {
	requestVerifier *auth.RequestVerifier
	logger          *slog.Logger
}

// NewOIDCAuthMiddleware creates the middleware for the given audience. An
// empty audience disables verification (and logs a warning, once, here).
func NewOIDCAuthMiddleware(verifier auth.TokenVerifier, audience string, logger *slog.Logger) *OIDCAuthMiddleware {
	m := &OIDCAuthMiddleware{
		logger: logger.With("component", "oidc_middleware"),
	}
	if audience == "" {
		m.logger.Warn("no OIDC audience configured, task execution requests will not be authenticated")
		return m
	}
	m.requestVerifier = auth.NewRequestVerifier(verifier, audience, logger)
	return m
}

// Authenticate verifies the request's identity token before passing it on.
func (m *OIDCAuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.requestVerifier == nil {
			next.ServeHTTP(w, r)
			return
		}

		valid, reason := m.requestVerifier.VerifyRequest(r)
		if !valid {
			m.logger.Warn("authentication failed", "detail", reason, "remote_addr", r.RemoteAddr)
			shared.RespondWithDetail(w, r, http.StatusUnauthorized, "Unauthorized", reason)
			return
		}

		next.ServeHTTP(w, r)
	})
}
