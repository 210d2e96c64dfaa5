package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/krishignan/krishignan/internal/pkg/goerror"
	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

// pgUniqueViolation is the SQLSTATE raised when a UNIQUE constraint is hit.
const pgUniqueViolation = "23505"

// DB reads and updates accounts in the users table:
//
//	users(id TEXT PRIMARY KEY, email TEXT UNIQUE, full_name TEXT, password TEXT, updated_at TIMESTAMPTZ)
type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

// observe opens a span for one query. The returned func closes it and marks
// the span failed unless the error is an expected not-found or conflict.
func (s *DB) observe(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := s.ins.Tracer("recovery.outbound.db").Start(ctx, op)

	return ctx, func(err error) {
		defer span.End()
		if err == nil || errors.Is(err, goerror.ErrNotFound) || errors.Is(err, goerror.ErrConflict) {
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func translate(err error) error {
	var pgErr *pgconn.PgError

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return goerror.ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		return goerror.ErrConflict
	default:
		return err
	}
}
