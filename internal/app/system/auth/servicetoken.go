// internal/app/system/auth/servicetoken.go
package auth

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ServiceTokenHeader carries the shared secret for internal callers
// (the external streak-reminder scheduler, ops tooling).
const ServiceTokenHeader = "X-Service-Token"

// HashServiceToken produces the bcrypt hash that belongs in config.
// Plaintext tokens are never stored server-side.
func HashServiceToken(token string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// RequireServiceToken gates internal endpoints on a bcrypt-hashed shared
// token. An empty configured hash disables the routes entirely rather
// than leaving them open.
func RequireServiceToken(tokenHash string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				http.Error(w, "service endpoints disabled", http.StatusForbidden)
				return
			}
			got := r.Header.Get(ServiceTokenHeader)
			if got == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(got)); err != nil {
				logger.Warn("service token rejected", zap.String("path", r.URL.Path))
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
