package service

import (
	"sync"

	"stats-service/internal/entity"
)

// StatusTable maps job identities to their lifecycle state. Entries only move
// from running to done and are never removed.
type StatusTable struct {
	mu      sync.RWMutex
	entries map[entity.JobID]entity.JobStatus
}

func NewStatusTable() *StatusTable {
	return &StatusTable{entries: make(map[entity.JobID]entity.JobStatus)}
}

// MarkRunning registers a freshly allocated identity. It reports false if the
// identity was already known.
func (t *StatusTable) MarkRunning(id entity.JobID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[id]; ok {
		return false
	}
	t.entries[id] = entity.StatusRunning
	return true
}

// MarkDone reports false for identities that were never marked running.
func (t *StatusTable) MarkDone(id entity.JobID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[id]; !ok {
		return false
	}
	t.entries[id] = entity.StatusDone
	return true
}

func (t *StatusTable) Get(id entity.JobID) entity.JobStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.entries[id]
	if !ok {
		return entity.StatusNotFound
	}
	return st
}

func (t *StatusTable) Snapshot() map[entity.JobID]entity.JobStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[entity.JobID]entity.JobStatus, len(t.entries))
	for id, st := range t.entries {
		out[id] = st
	}
	return out
}

func (t *StatusTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
