package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shandysiswandi/crmotp/internal/credential/entity"
	"github.com/shandysiswandi/crmotp/internal/pkg/goerror"
)

const accountColumns = `id, email, full_name, role, status, password_hash, last_login_at, created_at, updated_at`

func scanAccount(row pgx.Row) (*entity.Account, error) {
	var (
		a    entity.Account
		role string
	)
	err := row.Scan(&a.ID, &a.Email, &a.FullName, &role, &a.Status, &a.PasswordHash, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Role = entity.Role(role)

	return &a, nil
}

func (s *DB) GetAccountByEmail(ctx context.Context, email string) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountByEmail")
	defer func() { s.endSpan(span, err) }()

	account, err := scanAccount(s.conn.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM credential_accounts WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, s.mapError(err)
	}

	return account, nil
}

func (s *DB) CreateAccount(ctx context.Context, a entity.Account) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAccount")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO credential_accounts (id, email, full_name, role, status, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		a.ID, a.Email, a.FullName, a.Role.String(), int16(a.Status), a.PasswordHash, a.CreatedAt,
	)
	return s.mapError(err)
}

// DeleteAccount removes an account that could not be fully provisioned.
func (s *DB) DeleteAccount(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteAccount")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM credential_accounts WHERE id = $1`, id)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) UpdateLastLogin(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateLastLogin")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE credential_accounts SET last_login_at = $2, updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
