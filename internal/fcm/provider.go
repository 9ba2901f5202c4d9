package fcm

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const defaultTokenLifetime int64 = 3600

// TokenSource yields a bearer token for the messaging gateway.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// ProviderConfig configures a TokenProvider. ClientEmail and Key are required.
type ProviderConfig struct {
	ClientEmail string
	Key         *rsa.PrivateKey
	// TokenURL defaults to DefaultTokenURL and is also the assertion audience.
	TokenURL   string
	HTTPClient *http.Client
	Cache      TokenCache
	Clock      clockwork.Clock
	Logger     *zap.SugaredLogger
}

// TokenProvider exchanges signed service-account assertions for access
// tokens and caches the result until it nears expiry.
type TokenProvider struct {
	clientEmail string
	key         *rsa.PrivateKey
	tokenURL    string
	httpClient  *http.Client
	cache       TokenCache
	clock       clockwork.Clock
	logger      *zap.SugaredLogger
}

func NewTokenProvider(cfg ProviderConfig) (*TokenProvider, error) {
	if cfg.ClientEmail == "" {
		return nil, &ConfigError{Key: "FIREBASE_CLIENT_EMAIL"}
	}
	if cfg.Key == nil {
		return nil, &ConfigError{Key: "FIREBASE_PRIVATE_KEY"}
	}
	p := &TokenProvider{
		clientEmail: cfg.ClientEmail,
		key:         cfg.Key,
		tokenURL:    cfg.TokenURL,
		httpClient:  cfg.HTTPClient,
		cache:       cfg.Cache,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
	}
	if p.tokenURL == "" {
		p.tokenURL = DefaultTokenURL
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if p.cache == nil {
		p.cache = NewMemoryCache()
	}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	if p.logger == nil {
		p.logger = zap.NewNop().Sugar()
	}
	return p, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// lifetime is expires_in in whole seconds. Some servers send it as a string
// or with a fractional part; absent means the default hour.
func (tr tokenResponse) lifetime() (int64, error) {
	if tr.ExpiresIn == "" {
		return defaultTokenLifetime, nil
	}
	if n, err := tr.ExpiresIn.Int64(); err == nil {
		return n, nil
	}
	f, err := tr.ExpiresIn.Float64()
	if err != nil {
		return 0, fmt.Errorf("expires_in %q: %w", tr.ExpiresIn, err)
	}
	return int64(f), nil
}

// AccessToken returns the cached token while it is outside the expiry
// margin, otherwise signs a fresh assertion and exchanges it. Failures are
// *SigningError or *ExchangeError and leave the cache untouched.
func (p *TokenProvider) AccessToken(ctx context.Context) (string, error) {
	now := p.clock.Now()
	if tok, ok := p.cache.Get(now); ok {
		return tok, nil
	}

	assertion, err := signAssertion(p.key, newAssertionClaims(p.clientEmail, p.tokenURL, now))
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", JWTBearerGrant)
	form.Set("assertion", assertion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.Warnw("token exchange rejected", "status", resp.StatusCode)
		return "", &ExchangeError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("decode token response: access_token missing")
	}
	lifetime, err := tr.lifetime()
	if err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	p.cache.Set(tr.AccessToken, time.Unix(now.Unix()+lifetime, 0))
	p.logger.Debugw("access token refreshed", "expires_in", lifetime)
	return tr.AccessToken, nil
}
