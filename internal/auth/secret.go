package auth

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SecretHeader carries the shared secret on webhook and cron calls.
const SecretHeader = "X-Webhook-Secret"

// SecretChecker compares a presented shared secret with a bcrypt hash so
// the plain secret never sits in the service environment.
type SecretChecker struct {
	hash []byte
}

func NewSecretChecker(hash string) (*SecretChecker, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("webhook secret hash: %w", err)
	}
	return &SecretChecker{hash: []byte(hash)}, nil
}

func (c *SecretChecker) Check(secret string) bool {
	if secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(c.hash, []byte(secret)) == nil
}

// RequireSecret rejects requests without a valid SecretHeader. A nil
// checker lets every request through.
func RequireSecret(c *SecretChecker, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if c == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !c.Check(r.Header.Get(SecretHeader)) {
				logger.Warnw("rejected request with bad webhook secret", "path", r.URL.Path, "remote", r.RemoteAddr)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
