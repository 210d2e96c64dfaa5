package session

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/krishignan/krishignan/internal/pkg/clock"
	"github.com/krishignan/krishignan/internal/pkg/otp"
	"github.com/krishignan/krishignan/internal/pkg/throttle"
)

// Stateless keeps nothing server side: the session lives in a sealed token the
// client echoes back. Issuing again does not revoke older tokens and wrong
// codes cannot be counted.
type Stateless struct {
	codec *otp.Codec
	gen   otp.Generator
	clock clock.Clocker
	spent throttle.Throttle
}

// NewStateless builds a token store. spent is optional; when set, a consumed
// session is remembered until it expires so neither Verify nor Consume accept
// it again, whichever token text carries it.
func NewStateless(codec *otp.Codec, gen otp.Generator, clk clock.Clocker, spent throttle.Throttle) *Stateless {
	return &Stateless{codec: codec, gen: gen, clock: clk, spent: spent}
}

// Issue generates a code and seals it with the email into a fresh token.
func (s *Stateless) Issue(_ context.Context, email string) (Ticket, error) {
	code, err := s.gen.Generate()
	if err != nil {
		return Ticket{}, fmt.Errorf("session: generate code: %w", err)
	}

	token, exp, err := s.codec.Encode(email, code)
	if err != nil {
		return Ticket{}, fmt.Errorf("session: encode token: %w", err)
	}

	return Ticket{Email: email, Code: code, Token: token, ExpiresAt: exp}, nil
}

// open checks the token in the same order the stateful store checks a session.
func (s *Stateless) open(email, code, token string) (otp.Claims, error) {
	if token == "" {
		return otp.Claims{}, ErrNotFound
	}

	cl, err := s.codec.Open(token)
	if err != nil || subtle.ConstantTimeCompare([]byte(cl.Email), []byte(email)) != 1 {
		return otp.Claims{}, ErrNotFound
	}

	if !s.clock.Now().Before(cl.ExpiresAt) {
		return otp.Claims{}, ErrExpired
	}

	if subtle.ConstantTimeCompare([]byte(cl.Code), []byte(code)) != 1 {
		return otp.Claims{}, ErrMismatch
	}

	return cl, nil
}

// spentSession reports whether the session behind cl was already consumed.
func (s *Stateless) spentSession(ctx context.Context, cl otp.Claims) error {
	if s.spent == nil {
		return nil
	}

	spent, err := s.spent.Active(ctx, spentKey(cl))
	if err != nil {
		return fmt.Errorf("session: spent guard: %w", err)
	}
	if spent {
		return ErrNotFound
	}
	return nil
}

// Verify returns a new token marked verified; the caller must use it for Consume.
// A consumed session is reported as ErrNotFound.
func (s *Stateless) Verify(ctx context.Context, email, code, token string) (Ticket, error) {
	cl, err := s.open(email, code, token)
	if err != nil {
		return Ticket{}, err
	}
	if err := s.spentSession(ctx, cl); err != nil {
		return Ticket{}, err
	}

	cl.Verified = true
	verified, err := s.codec.Seal(cl)
	if err != nil {
		return Ticket{}, fmt.Errorf("session: seal token: %w", err)
	}

	return Ticket{Email: email, Token: verified, ExpiresAt: cl.ExpiresAt}, nil
}

// Consume runs apply once per session for a verified token. The spent mark is
// dropped again when apply fails so the same code can be retried, unless the
// failure wraps ErrDiscard.
func (s *Stateless) Consume(ctx context.Context, email, code, token string, apply ApplyFunc) error {
	cl, err := s.open(email, code, token)
	if err != nil {
		return err
	}

	if !cl.Verified {
		return ErrNotVerified
	}

	key := spentKey(cl)
	if s.spent != nil {
		ok, err := s.spent.Allow(ctx, key, cl.ExpiresAt.Sub(s.clock.Now()))
		if err != nil {
			return fmt.Errorf("session: spent guard: %w", err)
		}
		if !ok {
			return ErrNotFound
		}
	}

	if err := apply(ctx); err != nil {
		if s.spent != nil && !errors.Is(err, ErrDiscard) {
			if rerr := s.spent.Reset(ctx, key); rerr != nil {
				slog.WarnContext(ctx, "failed to release spent token", "error", rerr)
			}
		}
		return err
	}

	return nil
}

// Sweep has nothing to remove.
func (s *Stateless) Sweep(context.Context) (int, error) {
	return 0, nil
}

// spentKey identifies a session by its claims. Every token Verify seals for
// the same session differs in text but maps to the same key.
func spentKey(cl otp.Claims) string {
	sum := sha256.Sum256([]byte(cl.Email + ":" + cl.Code + ":" + strconv.FormatInt(cl.ExpiresAt.UnixMilli(), 10)))
	return "spent:" + hex.EncodeToString(sum[:])
}

var (
	_ Store   = (*Stateful)(nil)
	_ Store   = (*Stateless)(nil)
	_ Backend = (*MemoryBackend)(nil)
	_ Backend = (*RedisBackend)(nil)
)
