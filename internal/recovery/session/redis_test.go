package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/krishignan/krishignan/internal/pkg/clock"
	"github.com/krishignan/krishignan/internal/pkg/hash"
	"github.com/krishignan/krishignan/internal/pkg/keylock"
	"github.com/krishignan/krishignan/internal/recovery/entity"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis uri: %v", err)
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse redis uri: %v", err)
	}

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisBackend_RoundTrip(t *testing.T) {
	// Arrange
	client := newRedisClient(t)
	ctx := context.Background()
	backend := NewRedisBackend(client, RedisBackendConfig{Prefix: "test:otp:"})
	now := time.Now().Truncate(time.Millisecond)
	want := entity.Session{
		Email:      "a@x.com",
		CodeDigest: "digest",
		IssuedAt:   now,
		ExpiresAt:  now.Add(10 * time.Minute),
		Verified:   true,
		Attempts:   2,
	}

	// Act
	saveErr := backend.Save(ctx, want)
	got, getErr := backend.Get(ctx, "a@x.com")
	ttl := client.PTTL(ctx, "test:otp:"+subject("a@x.com")).Val()

	// Assert
	if saveErr != nil || getErr != nil {
		t.Fatalf("save=%v get=%v", saveErr, getErr)
	}
	if got.Email != want.Email || got.CodeDigest != want.CodeDigest || !got.Verified || got.Attempts != 2 {
		t.Fatalf("unexpected session %+v", got)
	}
	if !got.ExpiresAt.Equal(want.ExpiresAt) || !got.IssuedAt.Equal(want.IssuedAt) {
		t.Fatalf("unexpected times %+v", got)
	}
	if ttl <= 10*time.Minute {
		t.Fatalf("expected key to outlive the session by the grace period, ttl=%v", ttl)
	}

	if err := backend.Delete(ctx, "a@x.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := backend.Get(ctx, "a@x.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisBackend_WithStatefulStore(t *testing.T) {
	// Arrange
	client := newRedisClient(t)
	ctx := context.Background()
	clk := clock.NewManual(time.Now())
	store := NewStateful(
		NewRedisBackend(client, RedisBackendConfig{}),
		keylock.NewRedis(client, keylock.RedisConfig{}),
		hash.NewHMACSHA256("test-secret"),
		&sequence{codes: []string{"482913"}},
		clk,
		Config{},
	)

	// Act
	_, issueErr := store.Issue(ctx, "a@x.com")
	_, verifyErr := store.Verify(ctx, "a@x.com", "482913", "")
	consumeErr := store.Consume(ctx, "a@x.com", "482913", "", succeed)
	_, lateErr := store.Verify(ctx, "a@x.com", "482913", "")

	// Assert
	if issueErr != nil || verifyErr != nil || consumeErr != nil {
		t.Fatalf("issue=%v verify=%v consume=%v", issueErr, verifyErr, consumeErr)
	}
	if !errors.Is(lateErr, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", lateErr)
	}
}

func TestDecodeSession(t *testing.T) {
	valid := func() map[string]string {
		return map[string]string{
			fieldEmail:     "a@x.com",
			fieldDigest:    "d",
			fieldIssuedAt:  "1772355600000",
			fieldExpiresAt: "1772356200000",
			fieldVerified:  "1",
			fieldAttempts:  "2",
		}
	}

	t.Run("valid", func(t *testing.T) {
		sess, err := decodeSession(valid())
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !sess.Verified || sess.Attempts != 2 || sess.ExpiresAt.UnixMilli() != 1772356200000 {
			t.Fatalf("unexpected session %+v", sess)
		}
	})

	for _, field := range []string{fieldIssuedAt, fieldExpiresAt, fieldAttempts} {
		t.Run("corrupt "+field, func(t *testing.T) {
			values := valid()
			values[field] = "garbage"

			_, err := decodeSession(values)

			if err == nil || errors.Is(err, ErrExpired) || errors.Is(err, ErrNotFound) {
				t.Fatalf("expected a decode error, got %v", err)
			}
		})
	}
}
