package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/krishignan/krishignan/internal/pkg/clock"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func exercise(t *testing.T, th Throttle, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	ok, err := th.Allow(ctx, "a@x.com", 300*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("first call: ok=%v err=%v", ok, err)
	}

	ok, err = th.Allow(ctx, "a@x.com", 300*time.Millisecond)
	if err != nil || ok {
		t.Fatalf("second call inside window: ok=%v err=%v", ok, err)
	}

	ok, _ = th.Allow(ctx, "b@x.com", 300*time.Millisecond)
	if !ok {
		t.Fatalf("expected independent key to pass")
	}

	if active, err := th.Active(ctx, "a@x.com"); err != nil || !active {
		t.Fatalf("expected open window to be active: active=%v err=%v", active, err)
	}
	if active, _ := th.Active(ctx, "c@x.com"); active {
		t.Fatalf("expected unseen key to be inactive")
	}

	if err := th.Reset(ctx, "a@x.com"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	ok, _ = th.Allow(ctx, "a@x.com", 300*time.Millisecond)
	if !ok {
		t.Fatalf("expected pass after reset")
	}

	advance(400 * time.Millisecond)
	if active, _ := th.Active(ctx, "a@x.com"); active {
		t.Fatalf("expected window to close after it passed")
	}
	ok, _ = th.Allow(ctx, "a@x.com", 300*time.Millisecond)
	if !ok {
		t.Fatalf("expected pass after window")
	}

	ok, _ = th.Allow(ctx, "a@x.com", 0)
	if !ok {
		t.Fatalf("expected zero window to always pass")
	}
}

func TestMemory_Allow(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	exercise(t, NewMemory(clk), clk.Advance)
}

func TestRedis_Allow(t *testing.T) {
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
		t.Fatalf("parse uri: %v", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	exercise(t, NewRedis(client, "test:throttle:"), time.Sleep)
}
