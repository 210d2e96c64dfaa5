package keylock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// releaseScript deletes the key only when it still holds our token, so a lock
// that expired and was taken by another replica is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig tunes the distributed lock.
type RedisConfig struct {
	// Prefix is prepended to every key.
	Prefix string
	// TTL bounds how long a crashed holder can block a key. There is no
	// renewal, so work done under the lock must finish well within it.
	TTL time.Duration
	// RetryInterval is the wait between acquisition attempts.
	RetryInterval time.Duration
	// MaxRetries caps acquisition attempts after the first one.
	MaxRetries uint64
}

// Redis is a Locker backed by SET NX PX with token-checked release.
type Redis struct {
	client redis.UniversalClient
	cfg    RedisConfig
}

// NewRedis returns a Redis locker, filling zero config fields with defaults.
func NewRedis(client redis.UniversalClient, cfg RedisConfig) *Redis {
	if cfg.Prefix == "" {
		cfg.Prefix = "lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 50 * time.Millisecond
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 100
	}

	return &Redis{client: client, cfg: cfg}
}

func newToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

func (r *Redis) acquire(ctx context.Context, key, token string) (bool, error) {
	return r.client.SetNX(ctx, r.cfg.Prefix+key, token, r.cfg.TTL).Result()
}

func (r *Redis) unlocker(key, token string) Unlock {
	var once sync.Once
	return func() {
		once.Do(func() {
			// Release must run even when the caller's context is already canceled.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			if err := releaseScript.Run(ctx, r.client, []string{r.cfg.Prefix + key}, token).Err(); err != nil {
				slog.WarnContext(ctx, "failed to release redis lock", "key", key, "error", err)
			}
		})
	}
}

// Lock retries at RetryInterval up to MaxRetries times, then returns ErrNotAcquired.
func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("keylock: token: %w", err)
	}

	backoff := retry.WithMaxRetries(r.cfg.MaxRetries, retry.NewConstant(r.cfg.RetryInterval))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		ok, err := r.acquire(ctx, key, token)
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(ErrNotAcquired)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.unlocker(key, token), nil
}

// TryLock makes a single acquisition attempt.
func (r *Redis) TryLock(ctx context.Context, key string) (Unlock, bool, error) {
	token, err := newToken()
	if err != nil {
		return nil, false, fmt.Errorf("keylock: token: %w", err)
	}

	ok, err := r.acquire(ctx, key, token)
	if err != nil || !ok {
		return nil, false, err
	}

	return r.unlocker(key, token), true, nil
}
