package goroutine

import (
	"context"
	"time"
)

// Tick calls f every interval until ctx is done. The first call happens after
// one interval. A non-positive interval disables the loop and Tick returns at once.
func Tick(ctx context.Context, interval time.Duration, f func(ctx context.Context)) error {
	if interval <= 0 {
		return nil
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			f(ctx)
		}
	}
}
