/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/docstore/storagemodels"
)

// DataStore is the per-entity-type store surface. Single operations return a
// normalized OperationOutcome; expected store failures (not found, conflict,
// throttling) live inside the outcome, while the error return is reserved
// for programmer and configuration mistakes. Bulk operations fan entities
// out concurrently and aggregate per-item outcomes into a BulkResult.
type DataStore[T any] interface {
	Add(ctx context.Context, entity T, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error)

	Get(ctx context.Context, id string, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error)

	Update(ctx context.Context, entity T, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error)

	Upsert(ctx context.Context, entity T, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error)

	Delete(ctx context.Context, id string, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error)

	AddMany(ctx context.Context, entities []T, opts *storagemodels.RequestOptions) (storagemodels.BulkResult[T], error)

	UpdateMany(ctx context.Context, entities []T, opts *storagemodels.RequestOptions) (storagemodels.BulkResult[T], error)

	UpsertMany(ctx context.Context, entities []T, opts *storagemodels.RequestOptions) (storagemodels.BulkResult[T], error)

	DeleteMany(ctx context.Context, entities []T, opts *storagemodels.RequestOptions) (storagemodels.BulkResult[T], error)

	DeleteWhere(ctx context.Context, params *storagemodels.QueryParams) (storagemodels.BulkResult[T], error)

	Query(ctx context.Context, params *storagemodels.QueryParams) ([]T, error)

	QueryAll(ctx context.Context, params *storagemodels.QueryParams) ([]interface{}, error)

	Stream(ctx context.Context, params *storagemodels.QueryParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T]
}
