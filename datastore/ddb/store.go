/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"

	"go.uber.org/zap"

	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/registry"
	"github.com/suparena/docstore/storagemodels"
)

// EntityStore is the DynamoDB-backed store for one registered entity type.
// Construction resolves the type's metadata, ensures the backing collection
// exists and is active, and binds a throughput scaler to it; after that the
// store is safe for concurrent use.
type EntityStore[T any] struct {
	api        StoreAPI
	cfg        Config
	md         *registry.EntityTypeMetadata
	table      string
	descriptor *storagemodels.CollectionDescriptor
	scaler     *throughputScaler
	logger     *zap.Logger
	measures   *Measures
}

// Option customizes an EntityStore at construction time.
type Option func(*storeOptions)

type storeOptions struct {
	logger   *zap.Logger
	measures *Measures
}

// WithLogger sets the store's logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// WithMeasures attaches metrics to the store. Without it the store records
// nothing.
func WithMeasures(measures *Measures) Option {
	return func(o *storeOptions) {
		o.measures = measures
	}
}

// NewEntityStore builds a store for T. T must have been registered with
// registry.RegisterEntityType beforehand. The call blocks until the backing
// collection is active, creating it with the configured indexing policy and
// default throughput when absent.
func NewEntityStore[T any](ctx context.Context, api StoreAPI, cfg Config, opts ...Option) (*EntityStore[T], error) {
	options := storeOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&options)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := ensureDatabase(cfg.DatabaseName); err != nil {
		return nil, err
	}

	md, err := registry.MustGetEntityType[T]()
	if err != nil {
		return nil, err
	}

	collection := md.ResolvedCollectionName()
	if cfg.CollectionNameOverride != "" {
		if md.SharedCollection {
			return nil, errors.NewConfigurationError("CollectionNameOverride", "must not override a shared collection name")
		}
		collection = cfg.CollectionNameOverride
	}

	throughput := cfg.DefaultThroughput
	if md.DefaultThroughput > 0 {
		throughput = md.DefaultThroughput
	}
	if throughput > cfg.MaxThroughput {
		return nil, errors.NewConfigurationError("DefaultThroughput", "entity type default exceeds MaxThroughput")
	}

	table := tableName(cfg.DatabaseName, collection)
	current, err := ensureCollection(ctx, api, table, throughput, cfg.IndexingPolicy, options.logger)
	if err != nil {
		return nil, err
	}

	descriptor := &storagemodels.CollectionDescriptor{
		DatabaseName:      cfg.DatabaseName,
		CollectionName:    collection,
		Shared:            md.SharedCollection,
		AutoScale:         cfg.AutoScale,
		DefaultThroughput: throughput,
		CurrentThroughput: current,
	}

	store := &EntityStore[T]{
		api:        api,
		cfg:        cfg,
		md:         md,
		table:      table,
		descriptor: descriptor,
		logger:     options.logger,
		measures:   options.measures,
	}
	store.scaler = newThroughputScaler(api, table, cfg, descriptor, options.logger, options.measures)
	return store, nil
}

// Descriptor returns a snapshot of the collection's state. The throughput
// fields reflect the scaler's view at call time.
func (s *EntityStore[T]) Descriptor() storagemodels.CollectionDescriptor {
	s.scaler.mu.Lock()
	defer s.scaler.mu.Unlock()
	return *s.descriptor
}

// EntityType returns the discriminator value of the store's type.
func (s *EntityStore[T]) EntityType() string {
	return s.md.EntityType
}

// Add inserts a new entity. Adding an entity whose identifier already
// exists fails with an already-exists outcome.
func (s *EntityStore[T]) Add(ctx context.Context, entity T, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error) {
	return s.executeEntity(ctx, storagemodels.OperationAdd, entity, opts)
}

// Get retrieves an entity by identifier.
func (s *EntityStore[T]) Get(ctx context.Context, id string, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error) {
	if err := ctx.Err(); err != nil {
		return storagemodels.OperationOutcome[T]{}, err
	}
	return s.getByID(ctx, id, opts)
}

// Update replaces an existing entity. Updating an absent identifier fails
// with a not-found outcome.
func (s *EntityStore[T]) Update(ctx context.Context, entity T, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error) {
	return s.executeEntity(ctx, storagemodels.OperationUpdate, entity, opts)
}

// Upsert inserts or replaces unconditionally.
func (s *EntityStore[T]) Upsert(ctx context.Context, entity T, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error) {
	return s.executeEntity(ctx, storagemodels.OperationUpsert, entity, opts)
}

// Delete removes an entity by identifier. The successful outcome carries
// the deleted entity's last stored state.
func (s *EntityStore[T]) Delete(ctx context.Context, id string, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error) {
	if err := ctx.Err(); err != nil {
		return storagemodels.OperationOutcome[T]{}, err
	}
	return s.deleteByKey(ctx, nil, id, opts)
}

// AddMany inserts a batch of entities concurrently.
func (s *EntityStore[T]) AddMany(ctx context.Context, entities []T, opts *storagemodels.RequestOptions) (storagemodels.BulkResult[T], error) {
	return s.runBulk(ctx, storagemodels.OperationAdd, entities, opts)
}

// UpdateMany replaces a batch of existing entities concurrently.
func (s *EntityStore[T]) UpdateMany(ctx context.Context, entities []T, opts *storagemodels.RequestOptions) (storagemodels.BulkResult[T], error) {
	return s.runBulk(ctx, storagemodels.OperationUpdate, entities, opts)
}

// UpsertMany inserts or replaces a batch of entities concurrently.
func (s *EntityStore[T]) UpsertMany(ctx context.Context, entities []T, opts *storagemodels.RequestOptions) (storagemodels.BulkResult[T], error) {
	return s.runBulk(ctx, storagemodels.OperationUpsert, entities, opts)
}

// DeleteMany removes a batch of entities concurrently.
func (s *EntityStore[T]) DeleteMany(ctx context.Context, entities []T, opts *storagemodels.RequestOptions) (storagemodels.BulkResult[T], error) {
	return s.runBulk(ctx, storagemodels.OperationDelete, entities, opts)
}
