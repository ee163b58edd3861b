/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sync"

	"github.com/suparena/docstore/errors"
)

// EntityTypeMetadata is the static descriptor that binds a Go type to its
// stored-document layout. It is registered once per type, typically in an
// init() function or through generated code, and consulted on every store
// operation; it is never derived per call.
type EntityTypeMetadata struct {
	// EntityType is the discriminator value stored with every document of
	// this type. Required. It disambiguates types sharing one collection and
	// selects the unmarshal function for mixed-type queries.
	EntityType string

	// CollectionName is the physical collection for this type. When empty,
	// the EntityType value is used. Ignored when SharedCollection is set.
	CollectionName string

	// SharedCollection indicates that documents of this type live in a
	// collection shared with other entity types.
	SharedCollection bool

	// SharedCollectionName is the shared collection's name. Required when
	// SharedCollection is set.
	SharedCollectionName string

	// IDPath is the attribute name of the identifier field as produced by
	// the serializer (e.g. the json tag). Defaults to "Id".
	IDPath string

	// PartitionKeyPath is the attribute name of the partition-key-bearing
	// field. Empty means the type declares no partition key and its
	// identifier doubles as the routing value.
	PartitionKeyPath string

	// DefaultThroughput is the provisioned-throughput hint used when the
	// collection is created by this library. Zero means the store config
	// default applies.
	DefaultThroughput int64
}

// ResolvedCollectionName returns the collection this type's documents are
// stored in, honoring the shared-collection rule.
func (m *EntityTypeMetadata) ResolvedCollectionName() string {
	if m.SharedCollection {
		return m.SharedCollectionName
	}
	if m.CollectionName != "" {
		return m.CollectionName
	}
	return m.EntityType
}

// IdentifierPath returns the identifier attribute name, applying the default.
func (m *EntityTypeMetadata) IdentifierPath() string {
	if m.IDPath != "" {
		return m.IDPath
	}
	return "Id"
}

// HasPartitionKey reports whether the type declares a partition key path.
func (m *EntityTypeMetadata) HasPartitionKey() bool {
	return m.PartitionKeyPath != ""
}

// PartitionKeyIsIdentifier reports whether the partition key path is the
// identifier path itself. In that case identifier-only operations can use
// the id as the partition value without loading the entity.
func (m *EntityTypeMetadata) PartitionKeyIsIdentifier() bool {
	return m.PartitionKeyPath == m.IdentifierPath()
}

var (
	metadataRegistry = make(map[reflect.Type]*EntityTypeMetadata)
	mu               sync.RWMutex
)

// RegisterEntityType associates a Go type T with its metadata descriptor.
// Registering the same type twice overwrites the previous descriptor.
func RegisterEntityType[T any](md *EntityTypeMetadata) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.Lock()
	defer mu.Unlock()
	metadataRegistry[t] = md
}

// GetEntityType retrieves the metadata descriptor for type T, if any.
func GetEntityType[T any]() (*EntityTypeMetadata, bool) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.RLock()
	defer mu.RUnlock()
	m, ok := metadataRegistry[t]
	return m, ok
}

// MustGetEntityType retrieves the metadata descriptor for type T or returns
// ErrNoMetadata when the type was never registered.
func MustGetEntityType[T any]() (*EntityTypeMetadata, error) {
	md, ok := GetEntityType[T]()
	if !ok {
		return nil, errors.ErrNoMetadata
	}
	return md, nil
}
