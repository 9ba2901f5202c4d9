package fcm

import (
	"crypto/rsa"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MessagingScope is the OAuth2 scope required by the FCM v1 send API.
	MessagingScope = "https://www.googleapis.com/auth/firebase.messaging"
	// DefaultTokenURL is Google's OAuth2 token endpoint, also the assertion audience.
	DefaultTokenURL = "https://oauth2.googleapis.com/token"
	// JWTBearerGrant is the RFC 7523 grant type used for the exchange.
	JWTBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	assertionLifetime = 3600 * time.Second
)

// assertionClaims is the payload of the JWT-bearer assertion. Field order
// is the serialized order.
type assertionClaims struct {
	Issuer   string `json:"iss"`
	Scope    string `json:"scope"`
	Audience string `json:"aud"`
	IssuedAt int64  `json:"iat"`
	Expiry   int64  `json:"exp"`
}

func newAssertionClaims(issuer, audience string, now time.Time) assertionClaims {
	iat := now.Unix()
	return assertionClaims{
		Issuer:   issuer,
		Scope:    MessagingScope,
		Audience: audience,
		IssuedAt: iat,
		Expiry:   iat + int64(assertionLifetime/time.Second),
	}
}

func (c assertionClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Expiry, 0)), nil
}

func (c assertionClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

func (c assertionClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

func (c assertionClaims) GetIssuer() (string, error) { return c.Issuer, nil }

func (c assertionClaims) GetSubject() (string, error) { return "", nil }

func (c assertionClaims) GetAudience() (jwt.ClaimStrings, error) {
	return jwt.ClaimStrings{c.Audience}, nil
}

// signAssertion returns header.payload.signature, RS256 over the first two parts.
func signAssertion(key *rsa.PrivateKey, claims assertionClaims) (string, error) {
	if key == nil {
		return "", &SigningError{Err: errors.New("no signing key")}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", &SigningError{Err: err}
	}
	return signed, nil
}

// ParsePrivateKey decodes a PEM private key (PKCS#8 or PKCS#1). Escaped
// newlines, as found in env files, are expanded first.
func ParsePrivateKey(pemData string) (*rsa.PrivateKey, error) {
	if strings.TrimSpace(pemData) == "" {
		return nil, &ConfigError{Key: "FIREBASE_PRIVATE_KEY"}
	}
	pemData = strings.ReplaceAll(pemData, `\n`, "\n")
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pemData))
	if err != nil {
		return nil, &SigningError{Err: err}
	}
	return key, nil
}
