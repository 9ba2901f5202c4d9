package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-push-go/internal/pushtoken/entity"
)

// NOTE: expected table schema (Postgres):
// CREATE TABLE tb_push_tokens (
//   id varchar(32) PRIMARY KEY,
//   user_id TEXT NOT NULL,
//   token TEXT NOT NULL UNIQUE,
//   ativo BOOLEAN NOT NULL DEFAULT true,
//   criado_em TIMESTAMPTZ NOT NULL DEFAULT NOW()
// );

type PushTokenRepo struct {
	db *sqlx.DB
}

func NewPushTokenRepo(db *sqlx.DB) *PushTokenRepo {
	return &PushTokenRepo{db: db}
}

// EnsureTable creates tb_push_tokens and its user index if missing.
func (r *PushTokenRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tb_push_tokens (
  id varchar(32) PRIMARY KEY,
  user_id TEXT NOT NULL,
  token TEXT NOT NULL UNIQUE,
  ativo BOOLEAN NOT NULL DEFAULT true,
  criado_em TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_push_tokens_user_active ON tb_push_tokens (user_id, ativo);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// ListActiveByUser returns the user's active tokens, newest first.
func (r *PushTokenRepo) ListActiveByUser(ctx context.Context, userID string) ([]entity.PushToken, error) {
	const q = `SELECT id, user_id, token, ativo, criado_em FROM tb_push_tokens
		WHERE user_id = $1 AND ativo = true ORDER BY criado_em DESC`
	var out []entity.PushToken
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}

// DeactivateBefore marks the user's tokens created before the given time inactive.
func (r *PushTokenRepo) DeactivateBefore(ctx context.Context, userID string, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE tb_push_tokens SET ativo = false WHERE user_id = $1 AND criado_em < $2`, userID, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Upsert inserts the token or, when it already exists, moves it to this
// user and reactivates it. The id is kept on conflict.
func (r *PushTokenRepo) Upsert(ctx context.Context, t *entity.PushToken) error {
	const q = `INSERT INTO tb_push_tokens (id, user_id, token, ativo, criado_em)
		VALUES (:id, :user_id, :token, :ativo, :criado_em)
		ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, ativo = EXCLUDED.ativo, criado_em = EXCLUDED.criado_em`
	_, err := r.db.NamedExecContext(ctx, q, t)
	return err
}

// DeactivateToken marks a single device token inactive.
func (r *PushTokenRepo) DeactivateToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tb_push_tokens SET ativo = false WHERE token = $1`, token)
	return err
}

// DeleteInactiveBefore removes inactive tokens created before the cutoff
// and returns how many rows went.
func (r *PushTokenRepo) DeleteInactiveBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tb_push_tokens WHERE ativo = false AND criado_em < $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
