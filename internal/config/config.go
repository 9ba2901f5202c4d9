package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ovaphlow/pitchfork/service-push-go/internal/fcm"
	"github.com/ovaphlow/pitchfork/service-push-go/internal/notification"
	"github.com/ovaphlow/pitchfork/service-push-go/internal/pushtoken"
)

// MissingError lists required environment variables that are unset.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Keys, ", "))
}

// Config is the process-wide service configuration read once at startup.
type Config struct {
	HTTPAddr string

	FirebaseProjectID   string
	FirebaseClientEmail string
	FirebasePrivateKey  string
	OAuthTokenURL       string
	FCMBaseURL          string

	AndroidChannel string
	DefaultBody    string

	AuthJWTSecret string
	AuthAudience  string

	WebhookSecretHash string
	TokenRetention    time.Duration
}

// FromEnv reads the service configuration. Every absent required key is
// reported in a single *MissingError.
func FromEnv() (Config, error) {
	var missing []string
	require := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		HTTPAddr:            getenv("HTTP_ADDR", "0.0.0.0:8431"),
		FirebaseProjectID:   require("FIREBASE_PROJECT_ID"),
		FirebaseClientEmail: require("FIREBASE_CLIENT_EMAIL"),
		FirebasePrivateKey:  require("FIREBASE_PRIVATE_KEY"),
		OAuthTokenURL:       getenv("OAUTH_TOKEN_URL", fcm.DefaultTokenURL),
		FCMBaseURL:          getenv("FCM_BASE_URL", fcm.DefaultBaseURL),
		AndroidChannel:      getenv("FCM_ANDROID_CHANNEL", notification.DefaultAndroidChannel),
		DefaultBody:         getenv("PUSH_DEFAULT_BODY", notification.DefaultBody),
		AuthJWTSecret:       require("SUPABASE_JWT_SECRET"),
		AuthAudience:        getenv("AUTH_AUDIENCE", "authenticated"),
		WebhookSecretHash:   os.Getenv("WEBHOOK_SECRET_HASH"),
	}
	retention, err := RetentionFromEnv()
	if err != nil {
		return cfg, err
	}
	cfg.TokenRetention = retention
	if len(missing) > 0 {
		return cfg, &MissingError{Keys: missing}
	}
	return cfg, nil
}

// RetentionFromEnv reads only the prune window, for tools that do not send pushes.
func RetentionFromEnv() (time.Duration, error) {
	v := os.Getenv("PUSH_TOKEN_RETENTION")
	if v == "" {
		return pushtoken.DefaultRetention, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid PUSH_TOKEN_RETENTION %q", v)
	}
	return d, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
