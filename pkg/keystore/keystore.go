// Package keystore defines the secret key store the vault persists into.
package keystore

import (
	"bytes"
	"errors"
	"sync"

	"github.com/quorumsig/tecdsa/pkg/keyid"
)

// ErrKeyExists is returned by Insert when the identifier is already bound to
// a different value.
var ErrKeyExists = errors.New("keystore: key already exists")

// Store persists opaque secret blobs under stable identifiers.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the blob stored under id, if any.
	Get(id keyid.KeyID) ([]byte, bool)
	// Insert stores value under id. Inserting the same value twice is a
	// no-op; binding an existing id to a different value returns
	// ErrKeyExists.
	Insert(id keyid.KeyID, value []byte) error
}

// InMemory is a Store backed by a map.
type InMemory struct {
	mu   sync.RWMutex
	data map[keyid.KeyID][]byte
}

// NewInMemory returns an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{data: make(map[keyid.KeyID][]byte)}
}

// Get implements Store.
func (s *InMemory) Get(id keyid.KeyID) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[id]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true
}

// Insert implements Store.
func (s *InMemory) Insert(id keyid.KeyID, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.data[id]; ok {
		if bytes.Equal(existing, value) {
			return nil
		}
		return ErrKeyExists
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[id] = stored
	return nil
}

// Len returns the number of stored entries.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
