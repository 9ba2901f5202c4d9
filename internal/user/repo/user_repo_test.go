package repo

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

const selectBrewer = `SELECT id, COALESCE(permite_notificacoes, false) AS permite_notificacoes FROM tb_cervejeiro WHERE id = $1`

func newMockRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestAllowsNotifications(t *testing.T) {
	dbErr := errors.New("connection reset")
	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		err     error
		want    bool
		wantErr error
	}{
		{"opted in", sqlmock.NewRows([]string{"id", "permite_notificacoes"}).AddRow("42", true), nil, true, nil},
		{"opted out", sqlmock.NewRows([]string{"id", "permite_notificacoes"}).AddRow("42", false), nil, false, nil},
		{"missing row counts as opted out", sqlmock.NewRows([]string{"id", "permite_notificacoes"}), nil, false, nil},
		{"query error", nil, dbErr, false, dbErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, mock := newMockRepo(t)
			exp := mock.ExpectQuery(regexp.QuoteMeta(selectBrewer)).WithArgs("42")
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnRows(tt.rows)
			}

			got, err := r.AllowsNotifications(context.Background(), "42")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AllowsNotifications() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("AllowsNotifications() = %v, want %v", got, tt.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestGetByID(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectBrewer)).WithArgs("7").
		WillReturnRows(sqlmock.NewRows([]string{"id", "permite_notificacoes"}).AddRow("7", true))

	b, err := r.GetByID(context.Background(), "7")
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if b.ID != "7" || !b.AllowsNotifications {
		t.Errorf("GetByID() = %+v", b)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
