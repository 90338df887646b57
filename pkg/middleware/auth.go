package middleware

import (
	"net/http"
	"strings"

	"tibacare/pkg/auth"
	apperrors "tibacare/pkg/errors"
	"tibacare/pkg/logger"
)

type TokenVerifier interface {
	Verify(token string) (auth.Capability, error)
}

// Authenticate resolves the bearer token into an auth.Capability on the
// request context. Requests without a token continue as anonymous; a
// token that fails verification is rejected.
func Authenticate(verifier TokenVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r.WithContext(auth.WithCapability(r.Context(), auth.Anonymous())))
				return
			}

			capability, err := verifier.Verify(token)
			if err != nil {
				log.Warn("Rejected bearer token",
					"request_id", RequestID(r),
					"path", r.URL.Path,
					"error", err,
				)
				reject(w, apperrors.Unauthorized("Invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithCapability(r.Context(), capability)))
		})
	}
}

// bearerToken also accepts ?access_token= because browsers cannot set
// headers on websocket handshakes.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if isWebSocketUpgrade(r) {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
