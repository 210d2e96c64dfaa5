package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/krishignan/krishignan/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// ErrPanic wraps a panic recovered from a task.
var ErrPanic = errors.New("goroutine: task panicked")

// Manager owns the long-lived background work of the process: the OTP sweeper,
// MQ consumers and the rate limiter janitor. Wait closes it and reports what
// the tasks returned. Cancellation is a normal exit and is not reported.
type Manager struct {
	slots chan struct{}
	wg    sync.WaitGroup

	// mu is held for reading while a task is admitted so Wait cannot race wg.Add.
	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	errs  []error
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{slots: make(chan struct{}, maxGoroutine)}
}

// Go runs f in its own goroutine. The task is dropped with a warning when the
// manager is closed or every slot is taken.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) {
	if g == nil || !g.admit(ctx) {
		return
	}

	go g.run(ctx, f)
}

func (g *Manager) admit(ctx context.Context) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, task skipped")
		return false
	}

	select {
	case g.slots <- struct{}{}:
		g.wg.Add(1)
		return true
	default:
		slog.WarnContext(ctx, "goroutine limit reached, task dropped", "limit", cap(g.slots))
		return false
	}
}

func (g *Manager) run(ctx context.Context, f func(ctx context.Context) error) {
	defer g.wg.Done()
	defer func() { <-g.slots }()
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", string(stack))
			}
			g.record(fmt.Errorf("%w: %v", ErrPanic, rvr))
		}
	}()

	if err := ctx.Err(); err != nil {
		slog.WarnContext(ctx, "goroutine canceled before start", "because", err)
		return
	}

	g.record(f(ctx))
}

func (g *Manager) record(err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}

	g.errMu.Lock()
	g.errs = append(g.errs, err)
	g.errMu.Unlock()
}

// Wait closes the manager, blocks until every admitted task returns and joins their errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.errMu.Lock()
	defer g.errMu.Unlock()
	return errors.Join(g.errs...)
}
