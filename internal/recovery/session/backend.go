package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/krishignan/krishignan/internal/recovery/entity"
	"go.uber.org/atomic"
)

// Backend persists sessions for the stateful store. Get returns ErrNotFound
// when nothing is stored for the email.
type Backend interface {
	Get(ctx context.Context, email string) (entity.Session, error)
	Save(ctx context.Context, s entity.Session) error
	Delete(ctx context.Context, email string) error
	// Expired lists emails whose sessions expired at or before now. Backends
	// that expire entries on their own may return nothing.
	Expired(ctx context.Context, now time.Time) ([]string, error)
}

// MemoryBackend is a process-local Backend.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]entity.Session

	saves   atomic.Int64
	deletes atomic.Int64
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{sessions: make(map[string]entity.Session)}
}

func (m *MemoryBackend) Get(_ context.Context, email string) (entity.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[email]
	if !ok {
		return entity.Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryBackend) Save(_ context.Context, s entity.Session) error {
	m.mu.Lock()
	m.sessions[s.Email] = s
	m.mu.Unlock()

	m.saves.Inc()
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	_, ok := m.sessions[email]
	delete(m.sessions, email)
	m.mu.Unlock()

	if ok {
		m.deletes.Inc()
	}
	return nil
}

func (m *MemoryBackend) Expired(_ context.Context, now time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for email, s := range m.sessions {
		if s.ExpiredAt(now) {
			out = append(out, email)
		}
	}
	sort.Strings(out)

	return out, nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stats returns how many saves and effective deletes happened.
func (m *MemoryBackend) Stats() (saves, deletes int64) {
	return m.saves.Load(), m.deletes.Load()
}
