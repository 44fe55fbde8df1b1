// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Sessions are process-local by nature: they own live timers, so they are
// kept as *game.Session values keyed by ID and lost on restart.
//
// Characteristics:
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Errors are returned for missing IDs on Get()/Delete().
//   - Sweep removes sessions idle since before a cutoff (see janitor.go).

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/colorguess/internal/game"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("not found")

// Store defines the registry interface for live sessions.
type Store interface {
	// Save registers or replaces a session.
	Save(ctx context.Context, s *game.Session) error

	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Delete removes and returns a session.
	Delete(ctx context.Context, id string) (*game.Session, error)

	// Sweep removes and returns every session inactive since before cutoff.
	Sweep(ctx context.Context, cutoff time.Time) []*game.Session

	// Len reports how many sessions are registered.
	Len() int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex             // guards sessions map
	sessions map[string]*game.Session // keyed by Session.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*game.Session)}
}

func (m *memory) Save(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.sessions, id)
	return s, nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) []*game.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*game.Session
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			out = append(out, s)
		}
	}
	return out
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
