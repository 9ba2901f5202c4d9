package fcm

import (
	"errors"
	"fmt"
)

// ConfigError reports a required provider setting that is absent.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("fcm: missing configuration %s", e.Key)
}

// SigningError reports key material that could not be parsed or used to
// sign an assertion.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("fcm: sign assertion: %v", e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// ExchangeError is returned when the token endpoint answers with a
// non-2xx status. Body holds the raw response text.
type ExchangeError struct {
	StatusCode int
	Body       string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("fcm: token exchange failed: %d %s", e.StatusCode, e.Body)
}

// SendError is returned when the messaging gateway rejects a message.
// ErrorCode is the first error detail code reported by the gateway, if any.
type SendError struct {
	StatusCode int
	Body       string
	ErrorCode  string
}

func (e *SendError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("fcm: send failed: %d %s: %s", e.StatusCode, e.ErrorCode, e.Body)
	}
	return fmt.Sprintf("fcm: send failed: %d %s", e.StatusCode, e.Body)
}

// ErrorCodeUnregistered marks a device token the gateway no longer accepts.
const ErrorCodeUnregistered = "UNREGISTERED"

// IsUnregistered reports whether err is a *SendError for a dead device token.
func IsUnregistered(err error) bool {
	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr.ErrorCode == ErrorCodeUnregistered
	}
	return false
}
