package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/krishignan/krishignan/internal/pkg/goroutine"
)

func (s *Usecase) Sweep(ctx context.Context) (int, error) {
	ctx, span := s.startSpan(ctx, "Sweep")
	defer span.End()

	n, err := s.store.Sweep(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sweep reset sessions", "error", err)
		return n, err
	}
	if n > 0 {
		add(ctx, s.metrics.swept, int64(n))
		slog.DebugContext(ctx, "swept expired reset sessions", "count", n)
	}

	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Usecase) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}

	return goroutine.Tick(ctx, interval, func(ctx context.Context) {
		//nolint:errcheck // logged inside Sweep
		s.Sweep(ctx)
	})
}
