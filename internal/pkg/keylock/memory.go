package keylock

import (
	"context"
	"sync"

	"go.uber.org/atomic"
)

type slot struct {
	ch   chan struct{}
	refs int
}

// Memory is an in-process keyed mutex. Entries are reference counted and
// removed once no goroutine holds or waits for them.
type Memory struct {
	mu    sync.Mutex
	slots map[string]*slot
	held  atomic.Int64
}

// NewMemory returns an empty Memory locker.
func NewMemory() *Memory {
	return &Memory{slots: make(map[string]*slot)}
}

func (m *Memory) ref(key string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	return s
}

func (m *Memory) unref(key string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}

func (m *Memory) unlocker(key string, s *slot) Unlock {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			m.held.Dec()
			m.unref(key, s)
		})
	}
}

// Lock waits for key or returns ctx.Err().
func (m *Memory) Lock(ctx context.Context, key string) (Unlock, error) {
	s := m.ref(key)

	select {
	case s.ch <- struct{}{}:
		m.held.Inc()
		return m.unlocker(key, s), nil
	case <-ctx.Done():
		m.unref(key, s)
		return nil, ctx.Err()
	}
}

// TryLock never blocks.
func (m *Memory) TryLock(_ context.Context, key string) (Unlock, bool, error) {
	s := m.ref(key)

	select {
	case s.ch <- struct{}{}:
		m.held.Inc()
		return m.unlocker(key, s), true, nil
	default:
		m.unref(key, s)
		return nil, false, nil
	}
}

// Held reports how many keys are currently locked.
func (m *Memory) Held() int64 {
	return m.held.Load()
}

// Len reports how many keys are tracked, held or awaited.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}
