package entity

import "time"

// PushToken is a device delivery token registered by a user (tb_push_tokens).
// Column names follow the existing table.
type PushToken struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Token     string    `db:"token" json:"token"`
	Active    bool      `db:"ativo" json:"ativo"`
	CreatedAt time.Time `db:"criado_em" json:"criado_em"`
}
