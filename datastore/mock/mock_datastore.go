/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of the DataStore
// interface for testing.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/storagemodels"
)

// DataStore is a mock implementation of datastore.DataStore[T] for testing.
// Entities live in an in-memory map keyed by identifier; per-operation
// failure injection turns individual operations into failed outcomes the
// way a real store would report them.
type DataStore[T any] struct {
	mu         sync.RWMutex
	data       map[string]T
	getKeyFunc func(entity T) string
	queryFunc  func(ctx context.Context, params *storagemodels.QueryParams) ([]T, error)
	streamFunc func(ctx context.Context, params *storagemodels.QueryParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T]
	failures   map[storagemodels.OperationKind]error
}

// New creates a new mock DataStore.
func New[T any]() *DataStore[T] {
	return &DataStore[T]{
		data:     make(map[string]T),
		failures: make(map[storagemodels.OperationKind]error),
	}
}

// WithGetKeyFunc sets a custom function to extract identifiers from
// entities. Without one, entities are keyed by their formatted value.
func (m *DataStore[T]) WithGetKeyFunc(f func(T) string) *DataStore[T] {
	m.getKeyFunc = f
	return m
}

// WithQueryFunc sets a custom query function for testing.
func (m *DataStore[T]) WithQueryFunc(f func(ctx context.Context, params *storagemodels.QueryParams) ([]T, error)) *DataStore[T] {
	m.queryFunc = f
	return m
}

// WithStreamFunc sets a custom stream function for testing.
func (m *DataStore[T]) WithStreamFunc(f func(ctx context.Context, params *storagemodels.QueryParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T]) *DataStore[T] {
	m.streamFunc = f
	return m
}

// WithFailure makes every operation of the given kind produce a failed
// outcome carrying err.
func (m *DataStore[T]) WithFailure(kind storagemodels.OperationKind, err error) *DataStore[T] {
	m.failures[kind] = err
	return m
}

func (m *DataStore[T]) injected(kind storagemodels.OperationKind, entity *T) (storagemodels.OperationOutcome[T], bool) {
	if err, ok := m.failures[kind]; ok {
		return storagemodels.Failure(kind, entity, err), true
	}
	return storagemodels.OperationOutcome[T]{}, false
}

// Add inserts an entity, failing with an already-exists outcome when the
// identifier is taken.
func (m *DataStore[T]) Add(ctx context.Context, entity T, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error) {
	kind := storagemodels.OperationAdd
	if outcome, ok := m.injected(kind, &entity); ok {
		return outcome, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.extractKey(entity)
	if key == "" {
		return storagemodels.Failure(kind, &entity, errors.NewValidationError("id", "unable to extract identifier from entity")), nil
	}
	if _, exists := m.data[key]; exists {
		var zero T
		return storagemodels.Failure(kind, &entity, errors.NewAlreadyExistsError(fmt.Sprintf("%T", zero), key)), nil
	}

	m.data[key] = entity
	return storagemodels.Success(kind, &entity), nil
}

// Get retrieves an entity by identifier.
func (m *DataStore[T]) Get(ctx context.Context, id string, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error) {
	kind := storagemodels.OperationGet
	if outcome, ok := m.injected(kind, nil); ok {
		return outcome, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entity, exists := m.data[id]
	if !exists {
		var zero T
		return storagemodels.Failure[T](kind, nil, errors.NewNotFoundError(fmt.Sprintf("%T", zero), id)), nil
	}
	return storagemodels.Success(kind, &entity), nil
}

// Update replaces an existing entity, failing with a not-found outcome when
// the identifier is absent.
func (m *DataStore[T]) Update(ctx context.Context, entity T, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error) {
	kind := storagemodels.OperationUpdate
	if outcome, ok := m.injected(kind, &entity); ok {
		return outcome, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.extractKey(entity)
	if key == "" {
		return storagemodels.Failure(kind, &entity, errors.NewValidationError("id", "unable to extract identifier from entity")), nil
	}
	if _, exists := m.data[key]; !exists {
		var zero T
		return storagemodels.Failure(kind, &entity, errors.NewNotFoundError(fmt.Sprintf("%T", zero), key)), nil
	}

	m.data[key] = entity
	return storagemodels.Success(kind, &entity), nil
}

// Upsert inserts or replaces unconditionally.
func (m *DataStore[T]) Upsert(ctx context.Context, entity T, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error) {
	kind := storagemodels.OperationUpsert
	if outcome, ok := m.injected(kind, &entity); ok {
		return outcome, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.extractKey(entity)
	if key == "" {
		return storagemodels.Failure(kind, &entity, errors.NewValidationError("id", "unable to extract identifier from entity")), nil
	}

	m.data[key] = entity
	return storagemodels.Success(kind, &entity), nil
}

// Delete removes an entity by identifier.
func (m *DataStore[T]) Delete(ctx context.Context, id string, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error) {
	kind := storagemodels.OperationDelete
	if outcome, ok := m.injected(kind, nil); ok {
		return outcome, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entity, exists := m.data[id]
	if !exists {
		var zero T
		return storagemodels.Failure[T](kind, nil, errors.NewNotFoundError(fmt.Sprintf("%T", zero), id)), nil
	}

	delete(m.data, id)
	return storagemodels.Success(kind, &entity), nil
}

// AddMany inserts a batch of entities.
func (m *DataStore[T]) AddMany(ctx context.Context, entities []T, opts *storagemodels.RequestOptions) (storagemodels.BulkResult[T], error) {
	return m.runBulk(ctx, entities, func(entity T) (storagemodels.OperationOutcome[T], error) {
		return m.Add(ctx, entity, opts)
	})
}

// UpdateMany replaces a batch of existing entities.
func (m *DataStore[T]) UpdateMany(ctx context.Context, entities []T, opts *storagemodels.RequestOptions) (storagemodels.BulkResult[T], error) {
	return m.runBulk(ctx, entities, func(entity T) (storagemodels.OperationOutcome[T], error) {
		return m.Update(ctx, entity, opts)
	})
}

// UpsertMany inserts or replaces a batch of entities.
func (m *DataStore[T]) UpsertMany(ctx context.Context, entities []T, opts *storagemodels.RequestOptions) (storagemodels.BulkResult[T], error) {
	return m.runBulk(ctx, entities, func(entity T) (storagemodels.OperationOutcome[T], error) {
		return m.Upsert(ctx, entity, opts)
	})
}

// DeleteMany removes a batch of entities.
func (m *DataStore[T]) DeleteMany(ctx context.Context, entities []T, opts *storagemodels.RequestOptions) (storagemodels.BulkResult[T], error) {
	return m.runBulk(ctx, entities, func(entity T) (storagemodels.OperationOutcome[T], error) {
		return m.Delete(ctx, m.extractKey(entity), opts)
	})
}

// DeleteWhere deletes every entity matching the parameters.
func (m *DataStore[T]) DeleteWhere(ctx context.Context, params *storagemodels.QueryParams) (storagemodels.BulkResult[T], error) {
	matched, err := m.Query(ctx, params)
	if err != nil {
		return storagemodels.BulkResult[T]{}, err
	}
	return m.DeleteMany(ctx, matched, nil)
}

func (m *DataStore[T]) runBulk(ctx context.Context, entities []T, op func(T) (storagemodels.OperationOutcome[T], error)) (storagemodels.BulkResult[T], error) {
	result := storagemodels.BulkResult[T]{}
	for _, entity := range entities {
		if err := ctx.Err(); err != nil {
			return storagemodels.BulkResult[T]{}, err
		}
		outcome, err := op(entity)
		if err != nil {
			return storagemodels.BulkResult[T]{}, err
		}
		if outcome.OK {
			result.Succeeded = append(result.Succeeded, entity)
		} else {
			result.Failed = append(result.Failed, storagemodels.FailedEntity[T]{Entity: entity, Outcome: outcome})
		}
	}
	return result, nil
}

// Query executes a query. The default implementation returns all stored
// entities.
func (m *DataStore[T]) Query(ctx context.Context, params *storagemodels.QueryParams) ([]T, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, params)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]T, 0, len(m.data))
	for _, v := range m.data {
		results = append(results, v)
	}
	return results, nil
}

// QueryAll returns all stored entities as interface values.
func (m *DataStore[T]) QueryAll(ctx context.Context, params *storagemodels.QueryParams) ([]interface{}, error) {
	typed, err := m.Query(ctx, params)
	if err != nil {
		return nil, err
	}

	results := make([]interface{}, 0, len(typed))
	for _, v := range typed {
		results = append(results, v)
	}
	return results, nil
}

// Stream returns a channel of results. The default implementation streams
// all stored entities.
func (m *DataStore[T]) Stream(ctx context.Context, params *storagemodels.QueryParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	if m.streamFunc != nil {
		return m.streamFunc(ctx, params, opts...)
	}

	resultChan := make(chan storagemodels.StreamResult[T], 10)

	go func() {
		defer close(resultChan)

		m.mu.RLock()
		defer m.mu.RUnlock()

		index := int64(0)
		for _, v := range m.data {
			select {
			case <-ctx.Done():
				return
			case resultChan <- storagemodels.StreamResult[T]{
				Item: v,
				Meta: storagemodels.StreamMeta{
					Index:      index,
					PageNumber: 1,
				},
			}:
				index++
			}
		}
	}()

	return resultChan
}

// Helper methods for testing

// SetData directly sets the internal data map.
func (m *DataStore[T]) SetData(data map[string]T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
}

// GetData returns a copy of the internal data map.
func (m *DataStore[T]) GetData() map[string]T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]T, len(m.data))
	for k, v := range m.data {
		result[k] = v
	}
	return result
}

// Count returns the number of stored entities.
func (m *DataStore[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Clear removes all data.
func (m *DataStore[T]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]T)
}

func (m *DataStore[T]) extractKey(entity T) string {
	if m.getKeyFunc != nil {
		return m.getKeyFunc(entity)
	}
	return fmt.Sprintf("key_%v", entity)
}
