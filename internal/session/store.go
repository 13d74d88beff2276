package session

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// #region store-interface
// Store is the session state store. ApplyTurn is the only mutation
// entry point for turn data; it performs the max-merge for confidence
// and mode and the set union for intelligence internally.
type Store interface {
	Get(id string) (Session, bool, error)
	InitIfAbsent(id string, now time.Time) (Session, error)
	ApplyTurn(id string, turn TurnUpdate) (Session, error)
	Finalize(id, exitReason string) (Session, error)
	List(limit int) ([]Session, error)
	Close() error
}

// #endregion store-interface

// #region memory-store
// MemoryStore is the in-process store. It backs tests and single-node
// runs, and serves as the degraded fallback when the durable store is
// unavailable for a turn.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Get returns the session for id, reporting presence.
func (m *MemoryStore) Get(id string) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok, nil
}

// InitIfAbsent creates a fresh session for id if none exists.
func (m *MemoryStore) InitIfAbsent(id string, now time.Time) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s := Session{
		ID:           id,
		CreatedAt:    now.UTC(),
		Intelligence: Intelligence{},
	}
	m.sessions[id] = s
	return s, nil
}

// ApplyTurn merges one turn's result into the session.
func (m *MemoryStore) ApplyTurn(id string, turn TurnUpdate) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("session %s not found", id)
	}
	s = applyMerge(s, turn)
	m.sessions[id] = s
	return s, nil
}

// Finalize marks the session terminal, freezing it for reporting.
// Finalizing an already-terminal session keeps the original exit reason.
func (m *MemoryStore) Finalize(id, exitReason string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("session %s not found", id)
	}
	if !s.Terminal {
		s.Terminal = true
		s.ExitReason = exitReason
	}
	m.sessions[id] = s
	return s, nil
}

// List returns up to limit sessions, most recently created first.
func (m *MemoryStore) List(limit int) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op for the in-process store.
func (m *MemoryStore) Close() error { return nil }

// #endregion memory-store
