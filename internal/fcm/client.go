package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the FCM HTTP v1 API host.
const DefaultBaseURL = "https://fcm.googleapis.com"

type ClientConfig struct {
	ProjectID  string
	BaseURL    string
	Tokens     TokenSource
	HTTPClient *http.Client
	Logger     *zap.SugaredLogger
}

// Client sends messages through the FCM HTTP v1 API.
type Client struct {
	sendURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, &ConfigError{Key: "FIREBASE_PROJECT_ID"}
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("fcm: token source is required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		sendURL:    fmt.Sprintf("%s/v1/projects/%s/messages:send", base, url.PathEscape(cfg.ProjectID)),
		tokens:     cfg.Tokens,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if c.logger == nil {
		c.logger = zap.NewNop().Sugar()
	}
	return c, nil
}

// Send delivers msg and returns the raw gateway response body. A rejected
// message yields a *SendError.
func (c *Client) Send(ctx context.Context, msg *Message) (string, error) {
	accessToken, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(sendRequest{Message: msg})
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sendURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read send response: %w", err)
	}
	text := string(body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		sendErr := &SendError{StatusCode: resp.StatusCode, Body: text}
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && len(er.Error.Details) > 0 {
			sendErr.ErrorCode = er.Error.Details[0].ErrorCode
		}
		return "", sendErr
	}
	return text, nil
}
