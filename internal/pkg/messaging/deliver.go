package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/krishignan/krishignan/internal/pkg/stacktrace"
)

// responder makes Ack and Nack idempotent across drivers.
type responder struct {
	done atomic.Bool
}

func (r *responder) respond() bool { return !r.done.Swap(true) }

func (r *responder) responded() bool { return r.done.Load() }

type deliverable interface {
	Message
	responded() bool
}

// deliver runs handler with panic recovery and applies auto-ack. Handler
// errors are logged; only a failed ack or nack is returned.
func deliver(ctx context.Context, kind string, handler Handler, msg deliverable, autoAck bool) error {
	herr := safeCall(ctx, kind, func() error { return handler(ctx, msg) })
	if herr != nil {
		slog.WarnContext(ctx, "message handler failed", "driver", kind, "topic", msg.Topic(), "id", msg.ID(), "error", herr)
	}

	if !autoAck || msg.responded() {
		return nil
	}
	if herr == nil {
		return msg.Ack(ctx)
	}

	return msg.Nack(ctx)
}

func safeCall(ctx context.Context, kind string, fn func() error) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic in message handler", "driver", kind, "panic", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic in message handler", "driver", kind, "panic", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
	}()

	return fn()
}
