package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/krishignan/krishignan/internal/pkg/goerror"
	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const schema = `
CREATE TABLE users (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	full_name  TEXT,
	password   TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
INSERT INTO users (id, email, full_name, password) VALUES ('u-1', 'a@x.com', 'Anil Kumar', 'old-hash');`

func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("krishignan"),
		tcpostgres.WithUsername("krishignan"),
		tcpostgres.WithPassword("secret"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres dsn: %v", err)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, schema); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return pool
}

func TestDB_Accounts(t *testing.T) {
	// Arrange
	pool := newPool(t)
	ctx := context.Background()
	s := NewDB(pool, instrument.NewNoop())
	at := time.Date(2026, 3, 1, 9, 9, 0, 0, time.UTC)

	// Act
	acc, getErr := s.GetAccountByEmail(ctx, "a@x.com")
	_, missingErr := s.GetAccountByEmail(ctx, "nobody@x.com")
	updateErr := s.UpdatePasswordHash(ctx, "u-1", "new-hash", at)
	unknownErr := s.UpdatePasswordHash(ctx, "u-404", "new-hash", at)
	after, _ := s.GetAccountByEmail(ctx, "a@x.com")

	// Assert
	if getErr != nil {
		t.Fatalf("get: %v", getErr)
	}
	if acc.ID != "u-1" || acc.FullName != "Anil Kumar" || acc.PasswordHash != "old-hash" {
		t.Fatalf("unexpected account %+v", acc)
	}
	if !errors.Is(missingErr, goerror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", missingErr)
	}
	if updateErr != nil {
		t.Fatalf("update: %v", updateErr)
	}
	if !errors.Is(unknownErr, goerror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", unknownErr)
	}
	if after.PasswordHash != "new-hash" || !after.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected account after update %+v", after)
	}
}
