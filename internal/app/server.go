package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownTimeout bounds Stop; app.server.http.shutdown_timeout_seconds, default 10s.
func (a *App) ShutdownTimeout() time.Duration {
	if s := a.config.GetInt("app.server.http.shutdown_timeout_seconds"); s > 0 {
		return time.Duration(s) * time.Second
	}
	return 10 * time.Second
}

// Start serves HTTP in the background. The returned channel closes when the
// process receives SIGINT, SIGTERM or SIGHUP; background tasks are canceled first.
func (a *App) Start() <-chan struct{} {
	done := make(chan struct{})

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen and serve http server", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		<-ctx.Done()
		slog.Info("shutdown signal received")

		a.cancel()
		close(done)
	}()

	return done
}

// Serve runs the HTTP server on l, for tests that pick their own port.
func (a *App) Serve(l net.Listener) <-chan error {
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		errs <- a.httpServer.Serve(l)
	}()

	return errs
}

// Stop drains HTTP, waits for the sweeper, consumers and janitor, then closes
// resources in reverse order of opening. It keeps going after individual failures.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background tasks ended with errors", "error", err)
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application stopped")
}
