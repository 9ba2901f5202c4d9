package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-push-go/internal/user/entity"
)

// UserRepo reads brewer rows (tb_cervejeiro) using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// GetByID returns the brewer or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.Brewer, error) {
	const q = `SELECT id, COALESCE(permite_notificacoes, false) AS permite_notificacoes FROM tb_cervejeiro WHERE id = $1`
	var b entity.Brewer
	if err := r.db.GetContext(ctx, &b, q, id); err != nil {
		return nil, err
	}
	return &b, nil
}

// AllowsNotifications reports the brewer's opt-in flag. A missing row counts as opted out.
func (r *UserRepo) AllowsNotifications(ctx context.Context, id string) (bool, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return b.AllowsNotifications, nil
}
