package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/krishignan/krishignan/internal/pkg/goerror"
	"github.com/krishignan/krishignan/internal/recovery/entity"
)

const queryGetAccountByEmail = `
SELECT id::text, email, COALESCE(full_name, ''), password, updated_at
FROM users
WHERE lower(email) = $1
LIMIT 1`

const queryUpdatePasswordHash = `
UPDATE users
SET password = $1, updated_at = $2
WHERE id::text = $3`

func (s *DB) GetAccountByEmail(ctx context.Context, email string) (_ *entity.Account, err error) {
	ctx, done := s.observe(ctx, "GetAccountByEmail")
	defer func() { done(err) }()

	var (
		acc       entity.Account
		updatedAt pgtype.Timestamptz
	)
	if err := s.conn.QueryRow(ctx, queryGetAccountByEmail, email).Scan(
		&acc.ID,
		&acc.Email,
		&acc.FullName,
		&acc.PasswordHash,
		&updatedAt,
	); err != nil {
		return nil, translate(err)
	}

	if updatedAt.Valid {
		acc.UpdatedAt = updatedAt.Time
	}

	return &acc, nil
}

func (s *DB) UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) (err error) {
	ctx, done := s.observe(ctx, "UpdatePasswordHash")
	defer func() { done(err) }()

	tag, err := s.conn.Exec(ctx, queryUpdatePasswordHash, hash, pgtype.Timestamptz{Time: at, Valid: true}, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
