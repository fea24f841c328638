package persistence

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	updatedAt time.Time
}

// MemoryBackend keeps state in process memory; used when Redis is not configured.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]memoryEntry), now: time.Now}
}

func memoryKey(sessionID string, ns Namespace) string {
	return sessionID + ":" + string(ns)
}

func (m *MemoryBackend) Read(_ context.Context, sessionID string, ns Namespace) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[memoryKey(sessionID, ns)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(entry.data))
	copy(out, entry.data)
	return out, true, nil
}

func (m *MemoryBackend) Write(_ context.Context, sessionID string, ns Namespace, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)
	m.mu.Lock()
	m.entries[memoryKey(sessionID, ns)] = memoryEntry{data: stored, updatedAt: m.now()}
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, sessionID string, ns Namespace) error {
	m.mu.Lock()
	delete(m.entries, memoryKey(sessionID, ns))
	m.mu.Unlock()
	return nil
}

// Sweep drops entries not written since cutoff and returns how many were removed.
func (m *MemoryBackend) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, entry := range m.entries {
		if entry.updatedAt.Before(cutoff) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored namespaces.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
