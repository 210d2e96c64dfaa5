// Package session keeps password-reset codes and enforces their lifecycle:
// issue, verify, consume and sweep.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

var (
	// ErrNotFound means no live session exists for the email.
	ErrNotFound = errors.New("session: not found")
	// ErrExpired means the session existed but its expiry has passed.
	ErrExpired = errors.New("session: expired")
	// ErrMismatch means the submitted code is not the latest issued one.
	ErrMismatch = errors.New("session: code mismatch")
	// ErrNotVerified means consume was called before a successful verify.
	ErrNotVerified = errors.New("session: not verified")
	// ErrTooManyAttempts means the mismatch limit was reached and the session is gone.
	ErrTooManyAttempts = errors.New("session: too many attempts")

	// ErrDiscard is wrapped by an ApplyFunc error when retrying can never
	// succeed; Consume then drops the session instead of keeping it.
	ErrDiscard = errors.New("session: discard")
)

// Ticket is what a store hands back to the caller. Code is only set by Issue;
// Token is only set by the stateless store.
type Ticket struct {
	Email     string
	Code      string
	Token     string
	ExpiresAt time.Time
}

// ApplyFunc performs the credential update inside Consume.
type ApplyFunc func(ctx context.Context) error

// Store is implemented by the stateful and the stateless store. Emails must
// already be normalized. token is ignored by the stateful store.
type Store interface {
	// Issue replaces any session for email with a fresh code.
	Issue(ctx context.Context, email string) (Ticket, error)
	// Verify marks the session verified when code matches before expiry.
	Verify(ctx context.Context, email, code, token string) (Ticket, error)
	// Consume runs apply for a verified session and removes the session only
	// when apply succeeds or fails with ErrDiscard. apply's error is returned
	// unchanged.
	Consume(ctx context.Context, email, code, token string, apply ApplyFunc) error
	// Sweep removes expired sessions and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
}

// subject is the storage and lock key for an email, so raw addresses never appear in Redis.
func subject(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}
