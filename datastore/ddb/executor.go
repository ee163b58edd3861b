/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cenkalti/backoff/v4"

	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/storagemodels"
)

// Stored document attribute keys. Every document carries the partition
// value, the identifier, and the entity-type discriminator alongside the
// serialized entity fields.
const (
	partitionAttributeKey  = "PK"
	idAttributeKey         = "ID"
	entityTypeAttributeKey = "EntityType"
)

// Condition expressions for the write kinds. Add must not overwrite an
// existing document; update must not create one.
var (
	conditionNotExists = aws.String("attribute_not_exists(" + idAttributeKey + ")")
	conditionExists    = aws.String("attribute_exists(" + idAttributeKey + ")")
)

// conditionOwnType restricts a conditional write to documents carrying this
// store's discriminator. Shared collections need it so a sibling type's
// document under the same key is never replaced or removed.
const conditionOwnType = "#entityType = :entityType"

func discriminatorNames() map[string]string {
	return map[string]string{"#entityType": entityTypeAttributeKey}
}

func (s *EntityStore[T]) discriminatorValues() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		":entityType": &types.AttributeValueMemberS{Value: s.md.EntityType},
	}
}

// executeEntity performs one entity-bearing operation and normalizes its
// result. Expected store failures come back inside the outcome; validation
// failures short-circuit before any remote call; cancellation and
// programmer errors return as Go errors.
func (s *EntityStore[T]) executeEntity(ctx context.Context, kind storagemodels.OperationKind, entity T, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error) {
	if err := ctx.Err(); err != nil {
		return storagemodels.OperationOutcome[T]{}, err
	}

	id, err := identifierValue(s.md, entity)
	if err != nil {
		return s.validationOutcome(kind, &entity, err)
	}
	partition, err := resolvePartitionValue(s.md, entity)
	if err != nil {
		return s.validationOutcome(kind, &entity, err)
	}
	effective := composeOptions(opts, partition)

	switch kind {
	case storagemodels.OperationAdd:
		return s.putEntity(ctx, kind, entity, id, effective, conditionNotExists)
	case storagemodels.OperationUpdate:
		return s.putEntity(ctx, kind, entity, id, effective, conditionExists)
	case storagemodels.OperationUpsert:
		return s.putEntity(ctx, kind, entity, id, effective, nil)
	case storagemodels.OperationDelete:
		return s.deleteByKey(ctx, &entity, id, effective)
	default:
		return storagemodels.OperationOutcome[T]{}, errors.NewValidationError("operation", "unknown operation kind "+string(kind))
	}
}

// validationOutcome converts a pre-call validation failure into a failed
// outcome. Non-validation errors (marshaling, programmer mistakes) keep
// propagating as errors.
func (s *EntityStore[T]) validationOutcome(kind storagemodels.OperationKind, entity *T, err error) (storagemodels.OperationOutcome[T], error) {
	if !errors.IsValidationError(err) {
		return storagemodels.OperationOutcome[T]{}, err
	}
	s.measures.observeOutcome(kind, false)
	return storagemodels.Failure(kind, entity, err), nil
}

func (s *EntityStore[T]) putEntity(ctx context.Context, kind storagemodels.OperationKind, entity T, id string, opts *storagemodels.RequestOptions, condition *string) (storagemodels.OperationOutcome[T], error) {
	item, err := s.marshalDocument(entity, id, opts)
	if err != nil {
		return storagemodels.OperationOutcome[T]{}, err
	}

	input := &sdk.PutItemInput{
		TableName:              aws.String(s.table),
		Item:                   item,
		ConditionExpression:    condition,
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	}
	// Add's not-exists condition already refuses to replace any occupant;
	// update and upsert must additionally be fenced off a sibling type's
	// document occupying the key.
	if s.md.SharedCollection && condition != conditionNotExists {
		switch condition {
		case conditionExists:
			input.ConditionExpression = aws.String(*conditionExists + " AND " + conditionOwnType)
		default:
			input.ConditionExpression = aws.String(*conditionNotExists + " OR " + conditionOwnType)
		}
		input.ExpressionAttributeNames = discriminatorNames()
		input.ExpressionAttributeValues = s.discriminatorValues()
	}

	err = s.callWithRetry(ctx, func(ctx context.Context) error {
		out, perr := s.api.PutItem(ctx, input)
		if out != nil {
			s.measures.observeCapacity(out.ConsumedCapacity)
		}
		return perr
	})
	if err != nil {
		return s.failedOutcome(kind, &entity, id, err)
	}

	s.measures.observeOutcome(kind, true)
	return storagemodels.Success(kind, &entity), nil
}

// getByID retrieves a single entity. A partition value is taken from the
// composed options or derived from the id when the partition key path is
// the identifier path.
func (s *EntityStore[T]) getByID(ctx context.Context, id string, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error) {
	kind := storagemodels.OperationGet
	if id == "" {
		return s.validationOutcome(kind, nil, errors.NewValidationError(s.md.IdentifierPath(), "identifier must not be empty"))
	}
	key, err := s.keyFor(id, opts)
	if err != nil {
		return s.validationOutcome(kind, nil, err)
	}

	input := &sdk.GetItemInput{
		TableName:              aws.String(s.table),
		Key:                    key,
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	}
	if opts != nil && opts.ConsistentRead {
		input.ConsistentRead = aws.Bool(true)
	}

	var out *sdk.GetItemOutput
	err = s.callWithRetry(ctx, func(ctx context.Context) error {
		var gerr error
		out, gerr = s.api.GetItem(ctx, input)
		if out != nil {
			s.measures.observeCapacity(out.ConsumedCapacity)
		}
		return gerr
	})
	if err != nil {
		return s.failedOutcome(kind, nil, id, err)
	}

	// A shared collection may hold a sibling type's document under the same
	// key; it must stay invisible to this store.
	if out.Item == nil || !s.documentBelongs(out.Item) {
		s.measures.observeOutcome(kind, false)
		return storagemodels.Failure[T](kind, nil, errors.NewNotFoundError(s.md.EntityType, id)), nil
	}

	entity := new(T)
	if uerr := attributevalue.UnmarshalMap(out.Item, entity); uerr != nil {
		return storagemodels.OperationOutcome[T]{}, uerr
	}
	s.measures.observeOutcome(kind, true)
	return storagemodels.Success(kind, entity), nil
}

// deleteByKey removes a single document. echo, when non-nil, is the input
// entity to surface in a failed outcome.
func (s *EntityStore[T]) deleteByKey(ctx context.Context, echo *T, id string, opts *storagemodels.RequestOptions) (storagemodels.OperationOutcome[T], error) {
	kind := storagemodels.OperationDelete
	if id == "" {
		return s.validationOutcome(kind, echo, errors.NewValidationError(s.md.IdentifierPath(), "identifier must not be empty"))
	}
	key, err := s.keyFor(id, opts)
	if err != nil {
		return s.validationOutcome(kind, echo, err)
	}

	input := &sdk.DeleteItemInput{
		TableName:              aws.String(s.table),
		Key:                    key,
		ReturnValues:           types.ReturnValueAllOld,
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	}
	// An absent key passes the condition (plain no-op delete); a sibling
	// type's document fails it and reads as not found below.
	if s.md.SharedCollection {
		input.ConditionExpression = aws.String(*conditionNotExists + " OR " + conditionOwnType)
		input.ExpressionAttributeNames = discriminatorNames()
		input.ExpressionAttributeValues = s.discriminatorValues()
	}

	var out *sdk.DeleteItemOutput
	err = s.callWithRetry(ctx, func(ctx context.Context) error {
		var derr error
		out, derr = s.api.DeleteItem(ctx, input)
		if out != nil {
			s.measures.observeCapacity(out.ConsumedCapacity)
		}
		return derr
	})
	if err != nil {
		return s.failedOutcome(kind, echo, id, err)
	}

	if len(out.Attributes) == 0 {
		s.measures.observeOutcome(kind, false)
		return storagemodels.Failure(kind, echo, errors.NewNotFoundError(s.md.EntityType, id)), nil
	}

	deleted := new(T)
	if uerr := attributevalue.UnmarshalMap(out.Attributes, deleted); uerr != nil {
		deleted = echo
	}
	s.measures.observeOutcome(kind, true)
	return storagemodels.Success(kind, deleted), nil
}

// failedOutcome normalizes a remote failure. Cancellation is outside the
// normalized boundary and escapes as an error so bulk callers fail whole.
func (s *EntityStore[T]) failedOutcome(kind storagemodels.OperationKind, entity *T, id string, err error) (storagemodels.OperationOutcome[T], error) {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return storagemodels.OperationOutcome[T]{}, err
	}
	classified, status := s.classify(kind, id, err)
	s.measures.observeOutcome(kind, false)
	outcome := storagemodels.Failure(kind, entity, classified)
	outcome.StatusCode = status
	return outcome, nil
}

// classify maps an SDK error to the library's error taxonomy, extracting
// the raw HTTP status when the transport exposes one.
func (s *EntityStore[T]) classify(kind storagemodels.OperationKind, id string, err error) (error, int) {
	status := 0
	var re *awshttp.ResponseError
	if stderrors.As(err, &re) {
		status = re.HTTPStatusCode()
	}

	var conditionFailed *types.ConditionalCheckFailedException
	if stderrors.As(err, &conditionFailed) {
		switch kind {
		case storagemodels.OperationAdd, storagemodels.OperationUpsert:
			// Upserts fail their condition only when a sibling type's
			// document occupies the key in a shared collection.
			return errors.NewAlreadyExistsError(s.md.EntityType, id), status
		case storagemodels.OperationUpdate, storagemodels.OperationDelete:
			return errors.NewNotFoundError(s.md.EntityType, id), status
		default:
			return errors.NewConditionFailedError(string(kind), "conditional check failed"), status
		}
	}

	if isThrottle(err) {
		return errors.NewThroughputExceededError(s.table, err), status
	}

	return err, status
}

// retryPolicy builds the backoff policy for throttled calls. Infinite
// retries lift both the attempt cap and the exponential policy's default
// elapsed-time cap, leaving the caller's context as the only bound.
func retryPolicy(cfg Config) backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	if cfg.InfiniteRetries {
		policy.MaxElapsedTime = 0
		return policy
	}
	return backoff.WithMaxRetries(policy, cfg.MaxRetries)
}

// callWithRetry retries throttled calls with exponential backoff. The
// attempt count is bounded by MaxRetries unless the store is configured for
// infinite retries; everything that is not a throttle fails immediately.
func (s *EntityStore[T]) callWithRetry(ctx context.Context, fn func(context.Context) error) error {
	policy := backoff.WithContext(retryPolicy(s.cfg), ctx)

	return backoff.Retry(func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if isThrottle(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}

func isThrottle(err error) bool {
	var throughputExceeded *types.ProvisionedThroughputExceededException
	if stderrors.As(err, &throughputExceeded) {
		return true
	}
	var requestLimit *types.RequestLimitExceeded
	return stderrors.As(err, &requestLimit)
}

// keyFor builds the document key for an identifier-only operation. When the
// composed options carry no partition value and the metadata cannot derive
// one from the id, the operation fails validation before any remote call.
func (s *EntityStore[T]) keyFor(id string, opts *storagemodels.RequestOptions) (map[string]types.AttributeValue, error) {
	partition := ""
	if opts != nil && opts.PartitionKey != nil {
		partition = *opts.PartitionKey
	}
	if partition == "" {
		v, ok := partitionValueForID(s.md, id)
		if !ok {
			return nil, errors.NewValidationError(s.md.PartitionKeyPath, "partition key value required for identifier-only operation")
		}
		partition = v
	}

	return map[string]types.AttributeValue{
		partitionAttributeKey: &types.AttributeValueMemberS{Value: partition},
		idAttributeKey:        &types.AttributeValueMemberS{Value: id},
	}, nil
}

// marshalDocument serializes the entity and injects the partition value,
// identifier and discriminator attributes.
func (s *EntityStore[T]) marshalDocument(entity T, id string, opts *storagemodels.RequestOptions) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return nil, err
	}

	partition := ""
	if opts != nil && opts.PartitionKey != nil {
		partition = *opts.PartitionKey
	}
	if partition == "" {
		partition = id
	}

	av[partitionAttributeKey] = &types.AttributeValueMemberS{Value: partition}
	av[idAttributeKey] = &types.AttributeValueMemberS{Value: id}
	av[entityTypeAttributeKey] = &types.AttributeValueMemberS{Value: s.md.EntityType}
	return av, nil
}

// documentBelongs reports whether a raw document carries this store's
// discriminator. Only enforced for shared collections.
func (s *EntityStore[T]) documentBelongs(item map[string]types.AttributeValue) bool {
	if !s.md.SharedCollection {
		return true
	}
	attr, ok := item[entityTypeAttributeKey]
	if !ok {
		return false
	}
	return attributeString(attr) == s.md.EntityType
}
