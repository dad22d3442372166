// Package memory provides an in-process Persistence gateway.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/warp/shop-ledger/ledger"
)

// ErrSaveRejected is returned by Save while FailSaves is set.
var ErrSaveRejected = errors.New("memory store: save rejected")

// =============================================================================
// MEMORY STORE - In-memory blob store (for testing/dev)
// =============================================================================

// Store keeps the blob for one application key.
type Store struct {
	mu     sync.RWMutex
	key    string
	blobs  map[string][]byte
	saves  int
	failOn bool
}

// New returns a store bound to ledger.DefaultKey.
func New() *Store {
	return NewWithKey(ledger.DefaultKey)
}

func NewWithKey(key string) *Store {
	return &Store{key: key, blobs: make(map[string][]byte)}
}

// Load returns a copy of the stored blob, or nil when nothing is stored.
func (m *Store) Load(_ context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[m.key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// Save replaces the stored blob.
func (m *Store) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failOn {
		return ErrSaveRejected
	}
	m.blobs[m.key] = append([]byte(nil), data...)
	m.saves++
	return nil
}

// Put seeds the store with raw bytes, bypassing the ledger.
func (m *Store) Put(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[m.key] = append([]byte(nil), data...)
}

// Saves reports how many successful Save calls have happened.
func (m *Store) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// FailSaves makes subsequent Save calls fail (or succeed again).
func (m *Store) FailSaves(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn = fail
}

var _ ledger.Persistence = (*Store)(nil)
