/*
Package docstore provides a per-entity-type data access layer for a
partitioned, throughput-billed document store, with type-safe operations
built on Go generics.

Each entity type registers metadata describing its collection, identifier
and partition key; an entity store constructed for that type then routes
every operation to the right partition, normalizes outcomes, and manages
collection throughput around large bulk operations.

Key Features:
  - Type-safe operations using Go generics
  - Normalized operation outcomes separating expected store failures from
    programmer errors
  - Concurrent bulk operations with per-item outcome aggregation
  - Automatic throughput upscaling for large batches, with guaranteed
    restoration on every exit path
  - Shared collections with entity-type discriminators
  - Enhanced streaming with retry logic and progress tracking
  - Thread-safe storage management
  - Comprehensive mock implementation for testing

Basic Usage:

	// Register the entity type once at startup
	registry.RegisterEntityType[Order](&registry.EntityTypeMetadata{
		EntityType:       "Order",
		PartitionKeyPath: "CustomerID",
	})

	// Construct a store (creates the collection when absent)
	store, _ := ddb.NewEntityStore[Order](ctx, client, ddb.Config{
		DatabaseName: "shop",
	})

	// Use it
	outcome, err := store.Add(ctx, order, nil)
	if err != nil {
		// programmer or configuration error
	}
	if !outcome.OK {
		// expected store failure, e.g. errors.IsAlreadyExists(outcome.Err)
	}

For more information, see the documentation at https://github.com/suparena/docstore
*/
package docstore
