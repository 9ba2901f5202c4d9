package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Principal is the authenticated app user behind a request.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

type userClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// UserVerifier validates HS256 session tokens issued by the app's auth
// server and extracts the user id from sub.
type UserVerifier struct {
	secret   []byte
	audience string
	clock    clockwork.Clock
}

// NewUserVerifier builds a verifier. An empty audience disables the aud check.
func NewUserVerifier(secret, audience string, clock clockwork.Clock) *UserVerifier {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &UserVerifier{secret: []byte(secret), audience: audience, clock: clock}
}

func (v *UserVerifier) Verify(token string) (*Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	var claims userClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return &Principal{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < len("bearer ") || !strings.EqualFold(h[:len("bearer ")], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(h[len("bearer "):])
	return token, token != ""
}
