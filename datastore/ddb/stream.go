/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cenkalti/backoff/v4"

	"github.com/suparena/docstore/registry"
	"github.com/suparena/docstore/storagemodels"
)

// Stream queries matching entities page by page and emits each item on the
// returned channel as it arrives. The channel closes when the result set is
// exhausted, the context is cancelled, or an unrecoverable error was
// emitted. Backpressure comes from the channel's buffer.
func (s *EntityStore[T]) Stream(ctx context.Context, params *storagemodels.QueryParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	options := storagemodels.DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}

	resultCh := make(chan storagemodels.StreamResult[T], options.BufferSize)
	go s.streamWorker(ctx, params, options, resultCh)
	return resultCh
}

func (s *EntityStore[T]) streamWorker(
	ctx context.Context,
	params *storagemodels.QueryParams,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[T],
) {
	defer close(resultCh)

	var itemIndex int64
	var pageNumber int
	startTime := time.Now()
	var streamErrors []error

	reportProgress := func(lastKey map[string]types.AttributeValue) {
		if options.ProgressHandler == nil {
			return
		}
		progress := storagemodels.StreamProgress{
			ItemsProcessed: itemIndex,
			PagesProcessed: pageNumber,
			LastKey:        lastKey,
			Errors:         streamErrors,
			StartTime:      startTime,
		}
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
		}
		options.ProgressHandler(progress)
	}

	partition, crossPartition := composeQueryPartition(s.md, params)
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		items, nextKey, err := s.fetchPage(ctx, params, partition, crossPartition, options, lastEvaluatedKey)
		if err != nil {
			if options.ErrorHandler != nil && options.ErrorHandler(err) {
				streamErrors = append(streamErrors, err)
				continue
			}
			// The consumer may have stopped reading after cancelling; the
			// terminal error send must not block the worker forever.
			select {
			case <-ctx.Done():
			case resultCh <- storagemodels.StreamResult[T]{
				Error: fmt.Errorf("page fetch failed: %w", err),
				Meta: storagemodels.StreamMeta{
					Index:      itemIndex,
					PageNumber: pageNumber,
					Timestamp:  time.Now(),
				},
			}:
			}
			return
		}
		pageNumber++

		for _, item := range items {
			result := s.processItem(item, itemIndex, pageNumber)
			itemIndex++

			select {
			case <-ctx.Done():
				return
			case resultCh <- result:
			}

			if result.Error != nil {
				streamErrors = append(streamErrors, result.Error)
			}
		}

		reportProgress(nextKey)

		if len(nextKey) == 0 {
			break
		}
		lastEvaluatedKey = nextKey
	}

	reportProgress(nil)
}

// fetchPage retrieves one result page, retrying throttles with exponential
// backoff bounded by the stream options.
func (s *EntityStore[T]) fetchPage(
	ctx context.Context,
	params *storagemodels.QueryParams,
	partition string,
	crossPartition bool,
	options storagemodels.StreamOptions,
	startKey map[string]types.AttributeValue,
) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = options.RetryBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, options.MaxRetries), ctx)

	var items []map[string]types.AttributeValue
	var nextKey map[string]types.AttributeValue

	err := backoff.Retry(func() error {
		var pageErr error
		if crossPartition {
			input := s.buildScanInput(params, partition, s.md.SharedCollection)
			input.Limit = aws.Int32(options.PageSize)
			if startKey != nil {
				input.ExclusiveStartKey = startKey
			}

			var out *sdk.ScanOutput
			out, pageErr = s.api.Scan(ctx, input)
			if out != nil {
				s.measures.observeCapacity(out.ConsumedCapacity)
				items, nextKey = out.Items, out.LastEvaluatedKey
			}
		} else {
			input := s.buildQueryInput(params, partition, s.md.SharedCollection)
			input.Limit = aws.Int32(options.PageSize)
			if startKey != nil {
				input.ExclusiveStartKey = startKey
			}

			var out *sdk.QueryOutput
			out, pageErr = s.api.Query(ctx, input)
			if out != nil {
				s.measures.observeCapacity(out.ConsumedCapacity)
				items, nextKey = out.Items, out.LastEvaluatedKey
			}
		}
		if pageErr == nil {
			return nil
		}
		if isThrottle(pageErr) {
			return pageErr
		}
		return backoff.Permanent(pageErr)
	}, policy)
	if err != nil {
		return nil, nil, err
	}
	return items, nextKey, nil
}

// processItem converts one raw document into a typed stream result,
// falling back to the type registry when the document belongs to a sibling
// type that still asserts to T.
func (s *EntityStore[T]) processItem(
	item map[string]types.AttributeValue,
	index int64,
	pageNumber int,
) storagemodels.StreamResult[T] {
	meta := storagemodels.StreamMeta{
		Index:      index,
		PageNumber: pageNumber,
		Timestamp:  time.Now(),
	}

	rawCopy := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		rawCopy[k] = v
	}

	entityType := ""
	if attr, ok := item[entityTypeAttributeKey]; ok {
		entityType = attributeString(attr)
	}

	var result T
	if err := attributevalue.UnmarshalMap(item, &result); err == nil {
		return storagemodels.StreamResult[T]{Item: result, Raw: rawCopy, Meta: meta}
	}

	if entityType != "" {
		if unmarshalFn, lookupErr := registry.GetUnmarshalFunc(entityType); lookupErr == nil {
			if obj, err := unmarshalFn(item); err == nil {
				if typed, ok := obj.(T); ok {
					return storagemodels.StreamResult[T]{Item: typed, Raw: rawCopy, Meta: meta}
				}
			}
		}
	}

	return storagemodels.StreamResult[T]{
		Error: fmt.Errorf("failed to unmarshal item to type %T", result),
		Raw:   rawCopy,
		Meta:  meta,
	}
}
