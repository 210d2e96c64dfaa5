package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/krishignan/krishignan/internal/recovery/entity"
	"github.com/redis/go-redis/v9"
)

const (
	fieldEmail     = "email"
	fieldDigest    = "digest"
	fieldIssuedAt  = "issued_at"
	fieldExpiresAt = "expires_at"
	fieldVerified  = "verified"
	fieldAttempts  = "attempts"
)

// RedisBackend stores each session as a hash that Redis expires Grace after
// the session itself, so late callers still see ErrExpired instead of ErrNotFound.
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
	grace  time.Duration
}

// RedisBackendConfig configures NewRedisBackend.
type RedisBackendConfig struct {
	Prefix string
	Grace  time.Duration
}

func NewRedisBackend(client redis.UniversalClient, cfg RedisBackendConfig) *RedisBackend {
	if cfg.Prefix == "" {
		cfg.Prefix = "recovery:otp:"
	}
	if cfg.Grace <= 0 {
		cfg.Grace = time.Hour
	}

	return &RedisBackend{client: client, prefix: cfg.Prefix, grace: cfg.Grace}
}

func (r *RedisBackend) key(email string) string {
	return r.prefix + subject(email)
}

func (r *RedisBackend) Get(ctx context.Context, email string) (entity.Session, error) {
	values, err := r.client.HGetAll(ctx, r.key(email)).Result()
	if err != nil {
		return entity.Session{}, err
	}
	if len(values) == 0 {
		return entity.Session{}, ErrNotFound
	}

	return decodeSession(values)
}

// decodeSession rebuilds a session from its hash fields. A field that does not
// parse is reported rather than read as zero, which would look expired.
func decodeSession(values map[string]string) (entity.Session, error) {
	issued, err := strconv.ParseInt(values[fieldIssuedAt], 10, 64)
	if err != nil {
		return entity.Session{}, fmt.Errorf("session: decode %s: %w", fieldIssuedAt, err)
	}
	expires, err := strconv.ParseInt(values[fieldExpiresAt], 10, 64)
	if err != nil {
		return entity.Session{}, fmt.Errorf("session: decode %s: %w", fieldExpiresAt, err)
	}
	attempts, err := strconv.Atoi(values[fieldAttempts])
	if err != nil {
		return entity.Session{}, fmt.Errorf("session: decode %s: %w", fieldAttempts, err)
	}

	return entity.Session{
		Email:      values[fieldEmail],
		CodeDigest: values[fieldDigest],
		IssuedAt:   time.UnixMilli(issued),
		ExpiresAt:  time.UnixMilli(expires),
		Verified:   values[fieldVerified] == "1",
		Attempts:   attempts,
	}, nil
}

func (r *RedisBackend) Save(ctx context.Context, s entity.Session) error {
	key := r.key(s.Email)
	verified := "0"
	if s.Verified {
		verified = "1"
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldEmail, s.Email,
			fieldDigest, s.CodeDigest,
			fieldIssuedAt, strconv.FormatInt(s.IssuedAt.UnixMilli(), 10),
			fieldExpiresAt, strconv.FormatInt(s.ExpiresAt.UnixMilli(), 10),
			fieldVerified, verified,
			fieldAttempts, strconv.Itoa(s.Attempts),
		)
		pipe.PExpireAt(ctx, key, s.ExpiresAt.Add(r.grace))
		return nil
	})

	return err
}

func (r *RedisBackend) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, r.key(email)).Err()
}

// Expired returns nothing: Redis reclaims keys once their grace period ends.
func (r *RedisBackend) Expired(context.Context, time.Time) ([]string, error) {
	return nil, nil
}
