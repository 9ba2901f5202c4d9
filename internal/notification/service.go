package notification

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-push-go/internal/fcm"
	"github.com/ovaphlow/pitchfork/service-push-go/internal/pushtoken/entity"
)

const (
	DefaultAndroidChannel = "cervejas_high"
	DefaultBody           = "Você recebeu uma nova notificação"

	kindNewBeer      = "Cadastro Cerveja"
	actionOpenSearch = "abrir_pesquisa_filtrada"
	actionUnknown    = "acao_desconhecida"
)

var (
	ErrNotInsert             = errors.New("event is not INSERT or record is missing")
	ErrInvalidRecord         = errors.New("record has no recipient or notification type")
	ErrNoActiveToken         = errors.New("no active push token for recipient")
	ErrNotificationsDisabled = errors.New("recipient does not allow notifications")
)

// TokenStore is the slice of the push token repo the relay uses.
type TokenStore interface {
	ListActiveByUser(ctx context.Context, userID string) ([]entity.PushToken, error)
	DeactivateToken(ctx context.Context, token string) error
}

// PreferenceStore answers whether a user opted in to push notifications.
type PreferenceStore interface {
	AllowsNotifications(ctx context.Context, userID string) (bool, error)
}

// Sender delivers a message to the messaging gateway.
type Sender interface {
	Send(ctx context.Context, msg *fcm.Message) (string, error)
}

type Options struct {
	AndroidChannel string
	DefaultBody    string
}

// Service turns notification row inserts into push messages.
type Service struct {
	tokens TokenStore
	prefs  PreferenceStore
	sender Sender
	opts   Options
	logger *zap.SugaredLogger
}

func NewService(tokens TokenStore, prefs PreferenceStore, sender Sender, opts Options, logger *zap.SugaredLogger) *Service {
	if opts.AndroidChannel == "" {
		opts.AndroidChannel = DefaultAndroidChannel
	}
	if opts.DefaultBody == "" {
		opts.DefaultBody = DefaultBody
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{tokens: tokens, prefs: prefs, sender: sender, opts: opts, logger: logger}
}

// Relay sends the push for an INSERT event and returns the gateway
// response. When the gateway reports the device token as unregistered,
// the token is deactivated before the *fcm.SendError is returned.
func (s *Service) Relay(ctx context.Context, ev *WebhookEvent) (string, error) {
	if ev == nil || ev.Type != EventInsert || ev.Record == nil {
		return "", ErrNotInsert
	}
	rec := ev.Record
	if rec.RecipientID == "" || rec.Kind == "" {
		return "", ErrInvalidRecord
	}

	tokens, err := s.tokens.ListActiveByUser(ctx, rec.RecipientID.String())
	if err != nil {
		return "", fmt.Errorf("list push tokens: %w", err)
	}
	if len(tokens) == 0 {
		return "", ErrNoActiveToken
	}
	target := tokens[0]

	allowed, err := s.prefs.AllowsNotifications(ctx, target.UserID)
	if err != nil {
		return "", fmt.Errorf("load notification preference: %w", err)
	}
	if !allowed {
		return "", ErrNotificationsDisabled
	}

	msg := BuildMessage(target.Token, rec, s.opts)
	result, err := s.sender.Send(ctx, msg)
	if err != nil {
		if fcm.IsUnregistered(err) {
			s.logger.Warnw("device token unregistered, deactivating", "user_id", target.UserID)
			if derr := s.tokens.DeactivateToken(ctx, target.Token); derr != nil {
				s.logger.Errorw("deactivate push token failed", "user_id", target.UserID, "err", derr)
			}
		}
		return "", err
	}
	s.logger.Infow("notification sent", "user_id", target.UserID, "notification_id", rec.NotificationID.String())
	return result, nil
}

// whitespaceRun matches Unicode whitespace runs, not just ASCII. RE2's \s
// is ASCII-only, so spaces like U+00A0 and the line separators are listed.
var whitespaceRun = regexp.MustCompile(`[\s\x0B\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)

// BuildMessage maps a notification row to an FCM message for one device.
func BuildMessage(deviceToken string, rec *Record, opts Options) *fcm.Message {
	body := opts.DefaultBody
	if rec.PushMessage != nil {
		body = *rec.PushMessage
	}
	action := actionUnknown
	if rec.Kind == kindNewBeer {
		action = actionOpenSearch
	}
	return &fcm.Message{
		Token:        deviceToken,
		Notification: &fcm.Notification{Title: rec.Kind, Body: body},
		Android: &fcm.AndroidConfig{
			Priority:     fcm.AndroidPriorityHigh,
			Notification: &fcm.AndroidNotification{ChannelID: opts.AndroidChannel},
		},
		Data: map[string]string{
			"tipo":           whitespaceRun.ReplaceAllString(strings.ToLower(rec.Kind), "_"),
			"acao":           action,
			"usuario_id":     rec.SenderID.String(),
			"id_notificacao": rec.NotificationID.String(),
		},
	}
}
