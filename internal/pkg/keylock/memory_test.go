package keylock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemory_SerializesSameKey(t *testing.T) {
	// Arrange
	m := NewMemory()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)

	// Act
	for range 20 {
		wg.Go(func() {
			unlock, err := m.Lock(context.Background(), "a@x.com")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		})
	}
	wg.Wait()

	// Assert
	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
	if m.Len() != 0 || m.Held() != 0 {
		t.Fatalf("expected no tracked keys, got len=%d held=%d", m.Len(), m.Held())
	}
}

func TestMemory_TryLock(t *testing.T) {
	// Arrange
	m := NewMemory()
	unlock, err := m.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	// Act
	_, busyOK, _ := m.TryLock(context.Background(), "k")
	otherUnlock, otherOK, _ := m.TryLock(context.Background(), "other")

	// Assert
	if busyOK {
		t.Fatalf("expected held key to refuse TryLock")
	}
	if !otherOK {
		t.Fatalf("expected free key to be acquired")
	}
	otherUnlock()

	unlock()
	unlock()
	again, ok, _ := m.TryLock(context.Background(), "k")
	if !ok {
		t.Fatalf("expected key free after unlock")
	}
	again()
}

func TestMemory_LockHonorsContext(t *testing.T) {
	m := NewMemory()
	unlock, _ := m.Lock(context.Background(), "k")
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := m.Lock(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected waiter reference released, got len=%d", m.Len())
	}
}
