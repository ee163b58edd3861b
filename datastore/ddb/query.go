/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/docstore/registry"
	"github.com/suparena/docstore/storagemodels"
)

// Query returns all entities of this store's type matching the parameters.
// A query scoped to a single partition runs as an indexed key-condition
// query; a cross-partition query (explicit, or implied by a partitioned
// type with no partition value) falls back to a full scan. Shared
// collections are always filtered to this store's entity type, so sibling
// types never leak into results.
func (s *EntityStore[T]) Query(ctx context.Context, params *storagemodels.QueryParams) ([]T, error) {
	items, err := s.queryRaw(ctx, params)
	if err != nil {
		return nil, err
	}

	results := make([]T, 0, len(items))
	for _, item := range items {
		var entity T
		if uerr := attributevalue.UnmarshalMap(item, &entity); uerr != nil {
			return nil, fmt.Errorf("failed to unmarshal query item: %w", uerr)
		}
		results = append(results, entity)
	}
	return results, nil
}

// QueryAll returns matching documents of any registered type, using the
// EntityType attribute injected at persist time to select the unmarshal
// function from the type registry. Documents of unregistered types come
// back as generic maps. Unlike Query, no discriminator filter is applied:
// this is the mixed-type view of a shared collection.
func (s *EntityStore[T]) QueryAll(ctx context.Context, params *storagemodels.QueryParams) ([]interface{}, error) {
	items, err := s.queryRawUnfiltered(ctx, params)
	if err != nil {
		return nil, err
	}

	var results []interface{}
	for _, item := range items {
		entityType := ""
		if attr, ok := item[entityTypeAttributeKey]; ok {
			entityType = attributeString(attr)
		}

		unmarshalFn, lookupErr := registry.GetUnmarshalFunc(entityType)
		if lookupErr != nil {
			var generic map[string]interface{}
			if uerr := attributevalue.UnmarshalMap(item, &generic); uerr != nil {
				return nil, fmt.Errorf("failed to unmarshal generic item: %w", uerr)
			}
			results = append(results, generic)
			continue
		}

		obj, uerr := unmarshalFn(item)
		if uerr != nil {
			return nil, fmt.Errorf("failed to unmarshal item for entity type %q: %w", entityType, uerr)
		}
		results = append(results, obj)
	}
	return results, nil
}

// DeleteWhere deletes every entity matching the parameters and reports
// per-entity outcomes. The query phase failing is an error; individual
// delete failures land in the result's Failed partition.
func (s *EntityStore[T]) DeleteWhere(ctx context.Context, params *storagemodels.QueryParams) (storagemodels.BulkResult[T], error) {
	matched, err := s.Query(ctx, params)
	if err != nil {
		return storagemodels.BulkResult[T]{}, err
	}
	return s.runBulk(ctx, storagemodels.OperationDelete, matched, nil)
}

// queryRaw collects matching raw documents, filtered to this store's type
// when the collection is shared.
func (s *EntityStore[T]) queryRaw(ctx context.Context, params *storagemodels.QueryParams) ([]map[string]types.AttributeValue, error) {
	return s.collect(ctx, params, s.md.SharedCollection)
}

// queryRawUnfiltered collects matching raw documents without discriminator
// filtering.
func (s *EntityStore[T]) queryRawUnfiltered(ctx context.Context, params *storagemodels.QueryParams) ([]map[string]types.AttributeValue, error) {
	return s.collect(ctx, params, false)
}

func (s *EntityStore[T]) collect(ctx context.Context, params *storagemodels.QueryParams, discriminate bool) ([]map[string]types.AttributeValue, error) {
	partition, crossPartition := composeQueryPartition(s.md, params)

	var items []map[string]types.AttributeValue
	var err error
	if crossPartition {
		items, err = s.scanPages(ctx, params, partition, discriminate)
	} else {
		items, err = s.queryPages(ctx, params, partition, discriminate)
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *EntityStore[T]) queryPages(ctx context.Context, params *storagemodels.QueryParams, partition string, discriminate bool) ([]map[string]types.AttributeValue, error) {
	input := s.buildQueryInput(params, partition, discriminate)

	var items []map[string]types.AttributeValue
	paginator := sdk.NewQueryPaginator(s.api, input)
	for paginator.HasMorePages() {
		var out *sdk.QueryOutput
		err := s.callWithRetry(ctx, func(ctx context.Context) error {
			var qerr error
			out, qerr = paginator.NextPage(ctx)
			if out != nil {
				s.measures.observeCapacity(out.ConsumedCapacity)
			}
			return qerr
		})
		if err != nil {
			return nil, fmt.Errorf("query error: %w", err)
		}
		items = append(items, out.Items...)
	}
	return items, nil
}

func (s *EntityStore[T]) scanPages(ctx context.Context, params *storagemodels.QueryParams, partition string, discriminate bool) ([]map[string]types.AttributeValue, error) {
	input := s.buildScanInput(params, partition, discriminate)

	var items []map[string]types.AttributeValue
	paginator := sdk.NewScanPaginator(s.api, input)
	for paginator.HasMorePages() {
		var out *sdk.ScanOutput
		err := s.callWithRetry(ctx, func(ctx context.Context) error {
			var serr error
			out, serr = paginator.NextPage(ctx)
			if out != nil {
				s.measures.observeCapacity(out.ConsumedCapacity)
			}
			return serr
		})
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		items = append(items, out.Items...)
	}
	return items, nil
}

func (s *EntityStore[T]) buildQueryInput(params *storagemodels.QueryParams, partition string, discriminate bool) *sdk.QueryInput {
	names := cloneNames(params)
	values := cloneValues(params)

	keyCondition := ""
	if params != nil && params.KeyConditionExpression != nil {
		keyCondition = *params.KeyConditionExpression
	}
	if keyCondition == "" {
		keyCondition = "#pk = :pk"
		names["#pk"] = partitionAttributeKey
		values[":pk"] = &types.AttributeValueMemberS{Value: partition}
	}

	filter := baseFilter(params)
	if discriminate {
		filter = andDiscriminator(filter, names, values, s.md.EntityType)
	}

	input := &sdk.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    aws.String(keyCondition),
		ExpressionAttributeNames:  emptyToNil(names),
		ExpressionAttributeValues: emptyValuesToNil(values),
		ReturnConsumedCapacity:    types.ReturnConsumedCapacityTotal,
	}
	if filter != "" {
		input.FilterExpression = aws.String(filter)
	}
	if params != nil {
		input.IndexName = params.IndexName
		input.Limit = params.Limit
		input.ScanIndexForward = params.ScanIndexForward
		input.ExclusiveStartKey = params.ExclusiveStartKey
	}
	return input
}

func (s *EntityStore[T]) buildScanInput(params *storagemodels.QueryParams, partition string, discriminate bool) *sdk.ScanInput {
	names := cloneNames(params)
	values := cloneValues(params)

	filter := baseFilter(params)
	if partition != "" {
		names["#pk"] = partitionAttributeKey
		values[":pk"] = &types.AttributeValueMemberS{Value: partition}
		filter = andClause(filter, "#pk = :pk")
	}
	if discriminate {
		filter = andDiscriminator(filter, names, values, s.md.EntityType)
	}

	input := &sdk.ScanInput{
		TableName:                 aws.String(s.table),
		ExpressionAttributeNames:  emptyToNil(names),
		ExpressionAttributeValues: emptyValuesToNil(values),
		ReturnConsumedCapacity:    types.ReturnConsumedCapacityTotal,
	}
	if filter != "" {
		input.FilterExpression = aws.String(filter)
	}
	if params != nil {
		input.IndexName = params.IndexName
		input.Limit = params.Limit
		input.ExclusiveStartKey = params.ExclusiveStartKey
	}
	return input
}

func baseFilter(params *storagemodels.QueryParams) string {
	if params == nil || params.FilterExpression == nil {
		return ""
	}
	return *params.FilterExpression
}

func andClause(filter, clause string) string {
	if filter == "" {
		return clause
	}
	return "(" + filter + ") AND " + clause
}

func andDiscriminator(filter string, names map[string]string, values map[string]types.AttributeValue, entityType string) string {
	names["#entityType"] = entityTypeAttributeKey
	values[":entityType"] = &types.AttributeValueMemberS{Value: entityType}
	return andClause(filter, "#entityType = :entityType")
}

func cloneNames(params *storagemodels.QueryParams) map[string]string {
	names := map[string]string{}
	if params != nil {
		for k, v := range params.ExpressionAttributeNames {
			names[k] = v
		}
	}
	return names
}

func cloneValues(params *storagemodels.QueryParams) map[string]types.AttributeValue {
	values := map[string]types.AttributeValue{}
	if params != nil {
		for k, v := range params.ExpressionAttributeValues {
			values[k] = v
		}
	}
	return values
}

func emptyToNil(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}

func emptyValuesToNil(m map[string]types.AttributeValue) map[string]types.AttributeValue {
	if len(m) == 0 {
		return nil
	}
	return m
}
