/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

import (
	"fmt"
	"sync"
)

// Storage is a higher-level interface that manages a collection of entity
// stores. Its methods are not generic; they use the empty interface to hold
// stores of different entity types side by side.
type Storage interface {
	// RegisterStore registers an entity store under a given key (for
	// example, "Order" or "Customer").
	RegisterStore(key string, store any) error
	// GetStore retrieves the registered store for a given key. The caller
	// must type-assert the returned value to the appropriate store type.
	GetStore(key string) (any, error)
}

// storageManager is a thread-safe implementation of the Storage interface.
type storageManager struct {
	mu     sync.RWMutex
	stores map[string]any
}

// NewStorageManager creates and returns a new Storage implementation.
func NewStorageManager() Storage {
	return &storageManager{
		stores: make(map[string]any),
	}
}

// RegisterStore stores the provided entity store under the given key.
func (sm *storageManager) RegisterStore(key string, store any) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.stores[key]; exists {
		return fmt.Errorf("store with key %q already registered", key)
	}
	sm.stores[key] = store
	return nil
}

// GetStore retrieves the entity store associated with the given key.
func (sm *storageManager) GetStore(key string) (any, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	store, exists := sm.stores[key]
	if !exists {
		return nil, fmt.Errorf("store with key %q not found", key)
	}
	return store, nil
}
