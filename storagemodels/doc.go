/*
Package storagemodels defines the data structures used throughout docstore.

Key Types:

RequestOptions:
Per-call request parameters carrying the resolved partition key and caller
overrides. Recomputed on every invocation, never cached across calls:

	opts := &RequestOptions{
	    PartitionKey:   aws.String("customer-42"),
	    ConsistentRead: true,
	}

OperationOutcome and BulkResult:
Normalized per-item and aggregate result types used to report partial
success without exceptions:

	type OperationOutcome[T any] struct {
	    Kind       OperationKind
	    OK         bool
	    Entity     *T
	    Err        error
	    StatusCode int
	}

	type BulkResult[T any] struct {
	    Succeeded []T
	    Failed    []FailedEntity[T]
	}

Every entity handed to a bulk operation lands in exactly one of the two
BulkResult sequences.

QueryParams:
Parameters for querying a collection. The store injects partition equality
and the shared-collection discriminator filter itself; callers only supply
what is specific to their query:

	params := &QueryParams{
	    PartitionKey:     aws.String("customer-42"),
	    FilterExpression: aws.String("Total > :min"),
	    ExpressionAttributeValues: map[string]types.AttributeValue{
	        ":min": &types.AttributeValueMemberN{Value: "100"},
	    },
	    Limit: aws.Int32(100),
	}

These types provide a consistent interface across different storage
implementations.
*/
package storagemodels
