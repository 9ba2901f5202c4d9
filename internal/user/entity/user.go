package entity

// Brewer is an app user row in tb_cervejeiro. Only the fields the push
// relay reads are mapped.
type Brewer struct {
	ID                  string `db:"id"`
	AllowsNotifications bool   `db:"permite_notificacoes"`
}
