package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/krishignan/krishignan/internal/pkg/clock"
	"github.com/krishignan/krishignan/internal/pkg/hash"
	"github.com/krishignan/krishignan/internal/pkg/keylock"
	"github.com/krishignan/krishignan/internal/pkg/otp"
	"github.com/krishignan/krishignan/internal/recovery/entity"
)

// Config tunes a Stateful store.
type Config struct {
	// TTL is how long an issued code stays valid. Zero means ten minutes.
	TTL time.Duration
	// MaxAttempts is the number of wrong codes tolerated per session. Zero disables the limit.
	MaxAttempts int
	// ApplyTimeout bounds the ApplyFunc run inside Consume while the email is
	// locked. Keep it well under the lock TTL. Zero means no bound.
	ApplyTimeout time.Duration
}

const DefaultTTL = 10 * time.Minute

// Stateful keeps one session per email in a Backend and serializes every
// operation on the same email through a keylock.Locker.
type Stateful struct {
	backend Backend
	locker  keylock.Locker
	digest  hash.Hash
	gen     otp.Generator
	clock   clock.Clocker
	cfg     Config
}

// NewStateful builds a Stateful store. digest hashes "email:code" so plaintext
// codes are never persisted.
func NewStateful(backend Backend, locker keylock.Locker, digest hash.Hash, gen otp.Generator, clk clock.Clocker, cfg Config) *Stateful {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxAttempts < 0 {
		cfg.MaxAttempts = 0
	}

	return &Stateful{
		backend: backend,
		locker:  locker,
		digest:  digest,
		gen:     gen,
		clock:   clk,
		cfg:     cfg,
	}
}

func (s *Stateful) lock(ctx context.Context, email string) (keylock.Unlock, error) {
	unlock, err := s.locker.Lock(ctx, subject(email))
	if err != nil {
		return nil, fmt.Errorf("session: lock: %w", err)
	}
	return unlock, nil
}

func (s *Stateful) matches(sess entity.Session, code string) bool {
	return s.digest.Verify(sess.CodeDigest, sess.Email+":"+code)
}

// load returns the live session for email. Expired sessions are deleted on sight.
func (s *Stateful) load(ctx context.Context, email string, now time.Time) (entity.Session, error) {
	sess, err := s.backend.Get(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return entity.Session{}, ErrNotFound
	}
	if err != nil {
		return entity.Session{}, fmt.Errorf("session: get: %w", err)
	}

	if sess.ExpiredAt(now) {
		if err := s.backend.Delete(ctx, email); err != nil {
			slog.WarnContext(ctx, "failed to delete expired session", "error", err)
		}
		return entity.Session{}, ErrExpired
	}

	return sess, nil
}

// Issue stores a fresh code for email, replacing any earlier session.
func (s *Stateful) Issue(ctx context.Context, email string) (Ticket, error) {
	code, err := s.gen.Generate()
	if err != nil {
		return Ticket{}, fmt.Errorf("session: generate code: %w", err)
	}

	digest, err := s.digest.Hash(email + ":" + code)
	if err != nil {
		return Ticket{}, fmt.Errorf("session: digest code: %w", err)
	}

	unlock, err := s.lock(ctx, email)
	if err != nil {
		return Ticket{}, err
	}
	defer unlock()

	now := s.clock.Now()
	sess := entity.Session{
		Email:      email,
		CodeDigest: string(digest),
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.cfg.TTL),
	}

	if err := s.backend.Save(ctx, sess); err != nil {
		return Ticket{}, fmt.Errorf("session: save: %w", err)
	}

	return Ticket{Email: email, Code: code, ExpiresAt: sess.ExpiresAt}, nil
}

// Verify marks the session verified when code matches; a wrong code counts as an attempt.
func (s *Stateful) Verify(ctx context.Context, email, code, _ string) (Ticket, error) {
	unlock, err := s.lock(ctx, email)
	if err != nil {
		return Ticket{}, err
	}
	defer unlock()

	sess, err := s.load(ctx, email, s.clock.Now())
	if err != nil {
		return Ticket{}, err
	}

	if !s.matches(sess, code) {
		return Ticket{}, s.rejectAttempt(ctx, sess)
	}

	sess.Verified = true
	if err := s.backend.Save(ctx, sess); err != nil {
		return Ticket{}, fmt.Errorf("session: save: %w", err)
	}

	return Ticket{Email: email, ExpiresAt: sess.ExpiresAt}, nil
}

// rejectAttempt records a wrong code and drops the session once the limit is hit.
func (s *Stateful) rejectAttempt(ctx context.Context, sess entity.Session) error {
	sess.Attempts++

	if s.cfg.MaxAttempts > 0 && sess.Attempts >= s.cfg.MaxAttempts {
		if err := s.backend.Delete(ctx, sess.Email); err != nil {
			return fmt.Errorf("session: delete: %w", err)
		}
		return ErrTooManyAttempts
	}

	if err := s.backend.Save(ctx, sess); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}

	return ErrMismatch
}

// Consume leaves the session untouched unless apply succeeds, so a failed
// update can be retried with the same code. An apply error wrapping ErrDiscard
// drops the session as well.
func (s *Stateful) Consume(ctx context.Context, email, code, _ string, apply ApplyFunc) error {
	unlock, err := s.lock(ctx, email)
	if err != nil {
		return err
	}
	defer unlock()

	sess, err := s.load(ctx, email, s.clock.Now())
	if err != nil {
		return err
	}

	if !sess.Verified {
		return ErrNotVerified
	}

	if !s.matches(sess, code) {
		return s.rejectAttempt(ctx, sess)
	}

	if err := s.runApply(ctx, apply); err != nil {
		if errors.Is(err, ErrDiscard) {
			if derr := s.backend.Delete(ctx, email); derr != nil {
				slog.WarnContext(ctx, "failed to delete discarded session", "error", derr)
			}
		}
		return err
	}

	if err := s.backend.Delete(ctx, email); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}

	return nil
}

func (s *Stateful) runApply(ctx context.Context, apply ApplyFunc) error {
	if s.cfg.ApplyTimeout <= 0 {
		return apply(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ApplyTimeout)
	defer cancel()

	return apply(ctx)
}

// Sweep skips emails that are busy right now; the next sweep picks them up.
func (s *Stateful) Sweep(ctx context.Context) (int, error) {
	now := s.clock.Now()

	candidates, err := s.backend.Expired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("session: list expired: %w", err)
	}

	removed := 0
	for _, email := range candidates {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}

		ok, err := s.sweepOne(ctx, email, now)
		if err != nil {
			slog.WarnContext(ctx, "failed to sweep session", "error", err)
			continue
		}
		if ok {
			removed++
		}
	}

	return removed, nil
}

func (s *Stateful) sweepOne(ctx context.Context, email string, now time.Time) (bool, error) {
	unlock, ok, err := s.locker.TryLock(ctx, subject(email))
	if err != nil || !ok {
		return false, err
	}
	defer unlock()

	sess, err := s.backend.Get(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// Re-issued while we were listing.
	if !sess.ExpiredAt(now) {
		return false, nil
	}

	return true, s.backend.Delete(ctx, email)
}
