package pushtoken

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-push-go/internal/pushtoken/entity"
	"github.com/ovaphlow/pitchfork/service-push-go/pkg/utilities"
)

// DefaultRetention is how long inactive tokens are kept before pruning.
const DefaultRetention = 7 * 24 * time.Hour

var (
	ErrUserRequired  = errors.New("user id required")
	ErrTokenRequired = errors.New("push token required")
)

// Store is the persistence the service needs; *repo.PushTokenRepo implements it.
type Store interface {
	DeactivateBefore(ctx context.Context, userID string, before time.Time) (int64, error)
	Upsert(ctx context.Context, t *entity.PushToken) error
	DeleteInactiveBefore(ctx context.Context, before time.Time) (int64, error)
}

// Service registers device tokens and prunes stale ones.
type Service struct {
	store     Store
	retention time.Duration
	clock     clockwork.Clock
	logger    *zap.SugaredLogger
	newID     func() string
}

func NewService(store Store, retention time.Duration, clock clockwork.Clock, logger *zap.SugaredLogger) *Service {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{store: store, retention: retention, clock: clock, logger: logger, newID: utilities.NewSnowflakeID}
}

// Register makes token the user's current device token: every older token
// of the user is deactivated, then the token is upserted as active.
func (s *Service) Register(ctx context.Context, userID, token string) (*entity.PushToken, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenRequired
	}
	now := s.clock.Now().UTC()

	n, err := s.store.DeactivateBefore(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("deactivate old tokens: %w", err)
	}
	pt := &entity.PushToken{
		ID:        s.newID(),
		UserID:    userID,
		Token:     token,
		Active:    true,
		CreatedAt: now,
	}
	if err := s.store.Upsert(ctx, pt); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	s.logger.Debugw("push token registered", "user_id", userID, "deactivated", n)
	return pt, nil
}

// Prune deletes inactive tokens older than the retention window.
func (s *Service) Prune(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().UTC().Add(-s.retention)
	n, err := s.store.DeleteInactiveBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune tokens: %w", err)
	}
	s.logger.Infow("pruned inactive push tokens", "removed", n, "cutoff", cutoff)
	return n, nil
}
