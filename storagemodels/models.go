/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// RequestOptions carries per-call request parameters: the resolved partition
// key and any caller overrides. A RequestOptions value is ephemeral; it is
// recomputed on every invocation and never shared across calls.
type RequestOptions struct {
	// PartitionKey is the partition value accompanying the request. The
	// store always overrides a caller-supplied value with one freshly
	// resolved from entity metadata when resolution is possible.
	PartitionKey *string

	// CrossPartition enables cross-partition scanning for queries. It is
	// also enabled implicitly when the entity type has a partition key but
	// no specific partition value is available for the query.
	CrossPartition bool

	// ConsistentRead requests strongly consistent reads where the store
	// supports them.
	ConsistentRead bool
}

// Clone returns a copy of the options, or a fresh zero value for nil.
func (o *RequestOptions) Clone() *RequestOptions {
	if o == nil {
		return &RequestOptions{}
	}
	c := *o
	if o.PartitionKey != nil {
		pk := *o.PartitionKey
		c.PartitionKey = &pk
	}
	return &c
}

// CollectionDescriptor describes the physical collection an entity store is
// bound to. The throughput fields and IsUpscaled flag are mutated only by the
// throughput scaler under the store's scaling mutex; everything else is fixed
// at construction.
type CollectionDescriptor struct {
	// DatabaseName is the logical database the collection belongs to.
	DatabaseName string

	// CollectionName is the physical collection (table) name.
	CollectionName string

	// Shared indicates multiple entity types store documents in this
	// collection, disambiguated by a discriminator attribute.
	Shared bool

	// AutoScale permits the throughput scaler to raise throughput for
	// large bulk operations.
	AutoScale bool

	// DefaultThroughput is the provisioned throughput the collection is
	// restored to after any bulk upscale.
	DefaultThroughput int64

	// CurrentThroughput is the throughput the collection is currently
	// provisioned at.
	CurrentThroughput int64

	// IsUpscaled is set while a bulk operation holds elevated throughput.
	IsUpscaled bool
}

// QueryParams defines parameters for a query against the collection.
// Used for both regular queries and streaming queries.
type QueryParams struct {
	// PartitionKey restricts the query to one partition. When nil and the
	// entity type is partitioned, the query falls back to a cross-partition
	// scan.
	PartitionKey *string

	// KeyConditionExpression is an optional additional key condition beyond
	// the partition equality the store composes itself.
	KeyConditionExpression *string

	// FilterExpression is an optional filter expression. The store merges
	// the shared-collection discriminator filter into it transparently.
	FilterExpression *string

	// ExpressionAttributeNames contains substitution names for reserved words.
	ExpressionAttributeNames map[string]string

	// ExpressionAttributeValues contains the values for expression placeholders.
	ExpressionAttributeValues map[string]types.AttributeValue

	// IndexName is optional if you wish to query a secondary index.
	IndexName *string

	// Limit defines an optional limit per query page.
	Limit *int32

	// ExclusiveStartKey for pagination
	ExclusiveStartKey map[string]types.AttributeValue

	// ScanIndexForward specifies the order for index traversal.
	// If true (default), traversal is in ascending order.
	// If false, traversal is in descending order.
	ScanIndexForward *bool

	// CrossPartition explicitly requests a cross-partition scan even when a
	// partition value is present.
	CrossPartition bool
}
