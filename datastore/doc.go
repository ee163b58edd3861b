/*
Package datastore defines the core interfaces for docstore's data persistence layer.

The main interface is DataStore[T], which provides generic single and bulk
CRUD operations for any entity type T:

	type DataStore[T any] interface {
	    Add(ctx context.Context, entity T, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error)
	    Get(ctx context.Context, id string, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error)
	    Update(ctx context.Context, entity T, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error)
	    Upsert(ctx context.Context, entity T, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error)
	    Delete(ctx context.Context, id string, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error)
	    AddMany(ctx context.Context, entities []T, opts *storagemodels.RequestOptions) (storagemodels.BulkResult[T], error)
	    ...
	}

Single operations report expected store failures inside the returned
OperationOutcome; bulk operations aggregate per-item outcomes into a
BulkResult that partitions the input into succeeded and failed entities.

Implementations:
  - ddb: DynamoDB implementation with partition resolution, shared-collection
    discriminators and bulk throughput scaling
  - mock: In-memory mock implementation for testing

The package uses Go generics to ensure type safety at compile time while
maintaining flexibility for different storage backends.
*/
package datastore
