// Package throttle enforces a cooldown window per key: the first call in a
// window is allowed, later calls are refused until the window passes.
package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/krishignan/krishignan/internal/pkg/clock"
	"github.com/redis/go-redis/v9"
)

// Throttle admits at most one call per key per window.
type Throttle interface {
	// Allow reports whether the call may proceed and, if so, opens a new window.
	Allow(ctx context.Context, key string, window time.Duration) (bool, error)
	// Reset closes the window for key early.
	Reset(ctx context.Context, key string) error
	// Active reports whether a window is open for key without opening one.
	Active(ctx context.Context, key string) (bool, error)
}

// Redis keeps windows as expiring keys so replicas share them.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis returns a Redis throttle storing keys under prefix.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "throttle:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}
	return r.client.SetNX(ctx, r.prefix+key, "1", window).Result()
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

func (r *Redis) Active(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+key).Result()
	return n > 0, err
}

// Memory keeps windows in a map. Expired entries are pruned lazily on Allow.
type Memory struct {
	mu    sync.Mutex
	until map[string]time.Time
	clock clock.Clocker
}

// NewMemory returns an in-process throttle reading time from clk.
func NewMemory(clk clock.Clocker) *Memory {
	return &Memory{until: make(map[string]time.Time), clock: clk}
}

func (m *Memory) Allow(_ context.Context, key string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}

	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if end, ok := m.until[key]; ok && now.Before(end) {
		return false, nil
	}

	for k, end := range m.until {
		if !now.Before(end) {
			delete(m.until, k)
		}
	}
	m.until[key] = now.Add(window)

	return true, nil
}

func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.until, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Active(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	end, ok := m.until[key]
	m.mu.Unlock()

	return ok && m.clock.Now().Before(end), nil
}
