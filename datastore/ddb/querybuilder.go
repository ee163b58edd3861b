/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/docstore/storagemodels"
)

// QueryBuilder provides a fluent interface for building entity queries.
type QueryBuilder[T any] struct {
	store      *EntityStore[T]
	partition  string
	cross      bool
	filters    []string
	filterVals map[string]types.AttributeValue
	filterNams map[string]string
	limit      *int32
	descending bool
	indexName  string
}

// NewQuery starts a query builder bound to this store.
func (s *EntityStore[T]) NewQuery() *QueryBuilder[T] {
	return &QueryBuilder[T]{
		store:      s,
		filterVals: make(map[string]types.AttributeValue),
		filterNams: make(map[string]string),
	}
}

// WithPartitionKey scopes the query to a single partition.
func (q *QueryBuilder[T]) WithPartitionKey(value string) *QueryBuilder[T] {
	q.partition = value
	return q
}

// CrossPartition explicitly requests a cross-partition query.
func (q *QueryBuilder[T]) CrossPartition() *QueryBuilder[T] {
	q.cross = true
	return q
}

// WithFilter adds a filter expression with its attribute values. Multiple
// filters are joined with AND.
func (q *QueryBuilder[T]) WithFilter(expression string, values map[string]types.AttributeValue) *QueryBuilder[T] {
	q.filters = append(q.filters, expression)
	for k, v := range values {
		q.filterVals[k] = v
	}
	return q
}

// WithAttributeName registers a name placeholder used by a filter
// expression (e.g. "#status" for a reserved attribute name).
func (q *QueryBuilder[T]) WithAttributeName(placeholder, attribute string) *QueryBuilder[T] {
	q.filterNams[placeholder] = attribute
	return q
}

// WithLimit caps the number of items per result page.
func (q *QueryBuilder[T]) WithLimit(limit int32) *QueryBuilder[T] {
	q.limit = aws.Int32(limit)
	return q
}

// Descending reverses the sort order within the partition.
func (q *QueryBuilder[T]) Descending() *QueryBuilder[T] {
	q.descending = true
	return q
}

// WithIndex targets a secondary index from the collection's indexing
// policy.
func (q *QueryBuilder[T]) WithIndex(name string) *QueryBuilder[T] {
	q.indexName = name
	return q
}

// Build constructs the final query parameters.
func (q *QueryBuilder[T]) Build() *storagemodels.QueryParams {
	params := &storagemodels.QueryParams{
		CrossPartition: q.cross,
		Limit:          q.limit,
	}
	if q.partition != "" {
		params.PartitionKey = aws.String(q.partition)
	}
	if len(q.filters) > 0 {
		params.FilterExpression = aws.String(strings.Join(q.filters, " AND "))
		params.ExpressionAttributeValues = q.filterVals
	}
	if len(q.filterNams) > 0 {
		params.ExpressionAttributeNames = q.filterNams
	}
	if q.indexName != "" {
		params.IndexName = aws.String(q.indexName)
	}
	if q.descending {
		params.ScanIndexForward = aws.Bool(false)
	}
	return params
}

// Execute runs the query and returns the typed results.
func (q *QueryBuilder[T]) Execute(ctx context.Context) ([]T, error) {
	return q.store.Query(ctx, q.Build())
}

// ExecuteDelete deletes every matching entity and reports per-entity
// outcomes.
func (q *QueryBuilder[T]) ExecuteDelete(ctx context.Context) (storagemodels.BulkResult[T], error) {
	return q.store.DeleteWhere(ctx, q.Build())
}

// Stream executes the query as a stream.
func (q *QueryBuilder[T]) Stream(ctx context.Context, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	return q.store.Stream(ctx, q.Build(), opts...)
}
