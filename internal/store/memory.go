package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "forex-journal/internal/errors"
)

// MemoryStore is a BlobStore that keeps everything in process memory.
// Used for ephemeral sessions and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	blobs   map[string][]byte
	updated map[string]time.Time

	// FailPuts makes every Put return this error when set.
	FailPuts error
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs:   make(map[string][]byte),
		updated: make(map[string]time.Time),
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.blobs[key]
	if !ok {
		return nil, apperrors.ErrBlobNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, value []byte, expected time.Time) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPuts != nil {
		return time.Time{}, m.FailPuts
	}
	// A missing key has the zero version, matching a zero expected.
	if current := m.updated[key]; !current.Equal(expected) {
		return time.Time{}, fmt.Errorf("blob %s: %w", key, apperrors.ErrBlobConflict)
	}
	version := nextVersion(expected)
	m.blobs[key] = append([]byte(nil), value...)
	m.updated[key] = version
	return version, nil
}

func (m *MemoryStore) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.updated[key]
	if !ok {
		return time.Time{}, apperrors.ErrBlobNotFound
	}
	return t, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
