package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestManager_WaitCollectsErrors(t *testing.T) {
	// Arrange
	m := NewManager(4)
	errBoom := errors.New("boom")

	// Act
	m.Go(context.Background(), func(context.Context) error { return nil })
	m.Go(context.Background(), func(context.Context) error { return errBoom })
	err := m.Wait()

	// Assert
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected joined error to contain boom, got %v", err)
	}
}

func TestManager_RecoversPanic(t *testing.T) {
	m := NewManager(1)

	m.Go(context.Background(), func(context.Context) error { panic("kaboom") })

	if err := m.Wait(); !errors.Is(err, ErrPanic) {
		t.Fatalf("expected ErrPanic after panic recovery, got %v", err)
	}
}

func TestManager_CancellationIsNotAnError(t *testing.T) {
	// Arrange
	m := NewManager(2)
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})

	// Act
	m.Go(ctx, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	cancel()
	err := m.Wait()

	// Assert
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestManager_DropsWhenFull(t *testing.T) {
	// Arrange
	m := NewManager(1)
	release := make(chan struct{})
	started := make(chan struct{})
	var second atomic.Bool

	// Act
	m.Go(context.Background(), func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started
	m.Go(context.Background(), func(context.Context) error {
		second.Store(true)
		return nil
	})
	close(release)
	_ = m.Wait()

	// Assert
	if second.Load() {
		t.Fatalf("expected second task to be dropped")
	}
}

func TestManager_SkipsAfterWait(t *testing.T) {
	// Arrange
	m := NewManager(1)
	_ = m.Wait()
	var ran atomic.Bool

	// Act
	m.Go(context.Background(), func(context.Context) error {
		ran.Store(true)
		return nil
	})

	// Assert
	if ran.Load() {
		t.Fatalf("expected closed manager to skip work")
	}
}

func TestTick_StopsOnCancel(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)

	// Act
	go func() {
		done <- Tick(ctx, 5*time.Millisecond, func(context.Context) {
			if calls.Add(1) == 3 {
				cancel()
			}
		})
	}()

	// Assert
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("tick did not stop after cancel")
	}
	if calls.Load() < 3 {
		t.Fatalf("expected at least 3 calls, got %d", calls.Load())
	}
}

func TestTick_DisabledInterval(t *testing.T) {
	if err := Tick(context.Background(), 0, func(context.Context) { t.Fatalf("should not run") }); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
