/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cenkalti/backoff/v4"

	"github.com/suparena/docstore/datastore"
	"github.com/suparena/docstore/datastore/testmodels"
	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/registry"
	"github.com/suparena/docstore/storagemodels"
)

var _ datastore.DataStore[testmodels.Order] = (*EntityStore[testmodels.Order])(nil)

func registerTestTypes() {
	registry.RegisterEntityType[testmodels.Order](&registry.EntityTypeMetadata{
		EntityType:       "Order",
		PartitionKeyPath: "CustomerId",
	})
	registry.RegisterEntityType[testmodels.Customer](&registry.EntityTypeMetadata{
		EntityType: "Customer",
	})
}

func newOrderStore(t *testing.T, fake *fakeClient, mutate func(*Config)) *EntityStore[testmodels.Order] {
	t.Helper()
	registerTestTypes()

	cfg := Config{DatabaseName: "testdb"}
	if mutate != nil {
		mutate(&cfg)
	}
	store, err := NewEntityStore[testmodels.Order](context.Background(), fake, cfg)
	if err != nil {
		t.Fatalf("NewEntityStore failed: %v", err)
	}
	return store
}

func TestNewEntityStoreUnregisteredType(t *testing.T) {
	type unregistered struct{ ID string }

	_, err := NewEntityStore[unregistered](context.Background(), &fakeClient{}, Config{DatabaseName: "testdb"})
	if err != errors.ErrNoMetadata {
		t.Fatalf("expected ErrNoMetadata, got: %v", err)
	}
}

func TestNewEntityStoreDerivesTableName(t *testing.T) {
	fake := &fakeClient{}
	var described string
	fake.describeFn = func(in *sdk.DescribeTableInput) (*sdk.DescribeTableOutput, error) {
		described = *in.TableName
		return activeTable(defaultThroughput), nil
	}

	newOrderStore(t, fake, nil)
	if described != "testdb.Order" {
		t.Fatalf("expected table testdb.Order, got %q", described)
	}
}

func TestNewEntityStoreCreatesMissingCollection(t *testing.T) {
	fake := &fakeClient{}
	missing := true
	fake.describeFn = func(in *sdk.DescribeTableInput) (*sdk.DescribeTableOutput, error) {
		if missing {
			missing = false
			return nil, &types.ResourceNotFoundException{}
		}
		return activeTable(defaultThroughput), nil
	}
	var created *sdk.CreateTableInput
	fake.createFn = func(in *sdk.CreateTableInput) (*sdk.CreateTableOutput, error) {
		created = in
		return &sdk.CreateTableOutput{}, nil
	}

	store := newOrderStore(t, fake, func(cfg *Config) {
		cfg.IndexingPolicy = []IndexDefinition{{IndexName: "GSI1", PartitionKeyName: "Status"}}
	})

	if created == nil {
		t.Fatal("expected CreateTable to be issued")
	}
	if len(created.KeySchema) != 2 {
		t.Fatalf("expected composite key schema, got %d elements", len(created.KeySchema))
	}
	if len(created.GlobalSecondaryIndexes) != 1 {
		t.Fatalf("expected one secondary index, got %d", len(created.GlobalSecondaryIndexes))
	}
	if *created.ProvisionedThroughput.ReadCapacityUnits != defaultThroughput {
		t.Fatalf("expected throughput %d, got %d", defaultThroughput, *created.ProvisionedThroughput.ReadCapacityUnits)
	}
	if store.Descriptor().CurrentThroughput != defaultThroughput {
		t.Fatalf("descriptor throughput = %d", store.Descriptor().CurrentThroughput)
	}
}

func TestAddInjectsDocumentAttributes(t *testing.T) {
	fake := &fakeClient{}
	var put *sdk.PutItemInput
	fake.putFn = func(in *sdk.PutItemInput) (*sdk.PutItemOutput, error) {
		put = in
		return &sdk.PutItemOutput{}, nil
	}
	store := newOrderStore(t, fake, nil)

	order := testmodels.Order{ID: "o-1", CustomerID: "c-42", Status: "open"}
	outcome, err := store.Add(context.Background(), order, nil)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !outcome.OK || outcome.Kind != storagemodels.OperationAdd {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	if got := attributeString(put.Item[partitionAttributeKey]); got != "c-42" {
		t.Fatalf("PK = %q, want c-42", got)
	}
	if got := attributeString(put.Item[idAttributeKey]); got != "o-1" {
		t.Fatalf("ID = %q, want o-1", got)
	}
	if got := attributeString(put.Item[entityTypeAttributeKey]); got != "Order" {
		t.Fatalf("EntityType = %q, want Order", got)
	}
	if put.ConditionExpression == nil {
		t.Fatal("Add must carry a not-exists condition")
	}
}

func TestAddConflict(t *testing.T) {
	fake := &fakeClient{}
	fake.putFn = func(in *sdk.PutItemInput) (*sdk.PutItemOutput, error) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	store := newOrderStore(t, fake, nil)

	outcome, err := store.Add(context.Background(), testmodels.Order{ID: "o-1", CustomerID: "c-42"}, nil)
	if err != nil {
		t.Fatalf("conflict must be an outcome, not an error: %v", err)
	}
	if outcome.OK {
		t.Fatal("expected failed outcome")
	}
	if !errors.IsAlreadyExists(outcome.Err) {
		t.Fatalf("expected already-exists, got: %v", outcome.Err)
	}
}

func TestUpdateMissing(t *testing.T) {
	fake := &fakeClient{}
	fake.putFn = func(in *sdk.PutItemInput) (*sdk.PutItemOutput, error) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	store := newOrderStore(t, fake, nil)

	outcome, err := store.Update(context.Background(), testmodels.Order{ID: "o-9", CustomerID: "c-42"}, nil)
	if err != nil {
		t.Fatalf("missing update must be an outcome, not an error: %v", err)
	}
	if !errors.IsNotFound(outcome.Err) {
		t.Fatalf("expected not-found, got: %v", outcome.Err)
	}
}

func TestUpsertHasNoCondition(t *testing.T) {
	fake := &fakeClient{}
	var put *sdk.PutItemInput
	fake.putFn = func(in *sdk.PutItemInput) (*sdk.PutItemOutput, error) {
		put = in
		return &sdk.PutItemOutput{}, nil
	}
	store := newOrderStore(t, fake, nil)

	outcome, err := store.Upsert(context.Background(), testmodels.Order{ID: "o-1", CustomerID: "c-42"}, nil)
	if err != nil || !outcome.OK {
		t.Fatalf("Upsert failed: outcome=%+v err=%v", outcome, err)
	}
	if put.ConditionExpression != nil {
		t.Fatal("Upsert must not carry a condition expression")
	}
}

func TestValidationFailureSkipsRemoteCall(t *testing.T) {
	fake := &fakeClient{}
	store := newOrderStore(t, fake, nil)

	outcome, err := store.Add(context.Background(), testmodels.Order{CustomerID: "c-42"}, nil)
	if err != nil {
		t.Fatalf("validation failure must be an outcome, not an error: %v", err)
	}
	if outcome.OK || !errors.IsValidationError(outcome.Err) {
		t.Fatalf("expected validation outcome, got: %+v", outcome)
	}
	if fake.putCalls != 0 {
		t.Fatalf("expected no remote call, got %d", fake.putCalls)
	}
}

func TestFreshPartitionValueOverridesStaleOption(t *testing.T) {
	fake := &fakeClient{}
	var put *sdk.PutItemInput
	fake.putFn = func(in *sdk.PutItemInput) (*sdk.PutItemOutput, error) {
		put = in
		return &sdk.PutItemOutput{}, nil
	}
	store := newOrderStore(t, fake, nil)

	stale := "stale"
	opts := &storagemodels.RequestOptions{PartitionKey: &stale}
	if _, err := store.Upsert(context.Background(), testmodels.Order{ID: "o-1", CustomerID: "c-42"}, opts); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if got := attributeString(put.Item[partitionAttributeKey]); got != "c-42" {
		t.Fatalf("expected freshly resolved partition value, got %q", got)
	}
}

func TestGetRequiresPartitionValueForPartitionedType(t *testing.T) {
	fake := &fakeClient{}
	store := newOrderStore(t, fake, nil)

	outcome, err := store.Get(context.Background(), "o-1", nil)
	if err != nil {
		t.Fatalf("expected validation outcome, got error: %v", err)
	}
	if outcome.OK || !errors.IsValidationError(outcome.Err) {
		t.Fatalf("expected validation outcome, got: %+v", outcome)
	}
	if fake.getCalls != 0 {
		t.Fatalf("expected no remote call, got %d", fake.getCalls)
	}
}

func TestGetNotFound(t *testing.T) {
	fake := &fakeClient{}
	store := newOrderStore(t, fake, nil)

	pk := "c-42"
	outcome, err := store.Get(context.Background(), "o-404", &storagemodels.RequestOptions{PartitionKey: &pk})
	if err != nil {
		t.Fatalf("miss must be an outcome, not an error: %v", err)
	}
	if !errors.IsNotFound(outcome.Err) {
		t.Fatalf("expected not-found, got: %v", outcome.Err)
	}
}

func TestGetRoundTrip(t *testing.T) {
	fake := &fakeClient{}
	fake.getFn = func(in *sdk.GetItemInput) (*sdk.GetItemOutput, error) {
		item, _ := attributevalue.MarshalMap(testmodels.Order{ID: "o-1", CustomerID: "c-42", Total: 995})
		item[entityTypeAttributeKey] = &types.AttributeValueMemberS{Value: "Order"}
		return &sdk.GetItemOutput{Item: item}, nil
	}
	store := newOrderStore(t, fake, nil)

	pk := "c-42"
	outcome, err := store.Get(context.Background(), "o-1", &storagemodels.RequestOptions{PartitionKey: &pk})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !outcome.OK || outcome.Entity == nil {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.Entity.Total != 995 {
		t.Fatalf("entity total = %d, want 995", outcome.Entity.Total)
	}
}

func TestDeleteReturnsLastStoredState(t *testing.T) {
	fake := &fakeClient{}
	fake.deleteFn = func(in *sdk.DeleteItemInput) (*sdk.DeleteItemOutput, error) {
		attrs, _ := attributevalue.MarshalMap(testmodels.Order{ID: "o-1", CustomerID: "c-42", Status: "closed"})
		return &sdk.DeleteItemOutput{Attributes: attrs}, nil
	}
	store := newOrderStore(t, fake, nil)

	pk := "c-42"
	outcome, err := store.Delete(context.Background(), "o-1", &storagemodels.RequestOptions{PartitionKey: &pk})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !outcome.OK || outcome.Entity == nil || outcome.Entity.Status != "closed" {
		t.Fatalf("expected deleted state in outcome, got: %+v", outcome)
	}
}

func TestDeleteMissing(t *testing.T) {
	fake := &fakeClient{}
	store := newOrderStore(t, fake, nil)

	pk := "c-42"
	outcome, err := store.Delete(context.Background(), "o-404", &storagemodels.RequestOptions{PartitionKey: &pk})
	if err != nil {
		t.Fatalf("miss must be an outcome, not an error: %v", err)
	}
	if !errors.IsNotFound(outcome.Err) {
		t.Fatalf("expected not-found, got: %v", outcome.Err)
	}
}

func TestThrottleRetriesThenSucceeds(t *testing.T) {
	fake := &fakeClient{}
	failures := 2
	fake.putFn = func(in *sdk.PutItemInput) (*sdk.PutItemOutput, error) {
		if failures > 0 {
			failures--
			return nil, &types.ProvisionedThroughputExceededException{}
		}
		return &sdk.PutItemOutput{}, nil
	}
	store := newOrderStore(t, fake, nil)

	outcome, err := store.Upsert(context.Background(), testmodels.Order{ID: "o-1", CustomerID: "c-42"}, nil)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !outcome.OK {
		t.Fatalf("expected success after retries, got: %+v", outcome)
	}
	if fake.putCalls != 3 {
		t.Fatalf("expected 3 attempts, got %d", fake.putCalls)
	}
}

func TestThrottleExhaustsRetries(t *testing.T) {
	fake := &fakeClient{}
	fake.putFn = func(in *sdk.PutItemInput) (*sdk.PutItemOutput, error) {
		return nil, &types.ProvisionedThroughputExceededException{}
	}
	store := newOrderStore(t, fake, func(cfg *Config) {
		cfg.MaxRetries = 1
	})

	outcome, err := store.Upsert(context.Background(), testmodels.Order{ID: "o-1", CustomerID: "c-42"}, nil)
	if err != nil {
		t.Fatalf("throttle exhaustion must be an outcome, not an error: %v", err)
	}
	if !errors.IsThroughputExceeded(outcome.Err) {
		t.Fatalf("expected throughput-exceeded, got: %v", outcome.Err)
	}
	if fake.putCalls != 2 {
		t.Fatalf("expected initial attempt plus one retry, got %d", fake.putCalls)
	}
}

func TestRetryPolicyConstruction(t *testing.T) {
	t.Run("infinite retries lift the elapsed-time cap", func(t *testing.T) {
		policy, ok := retryPolicy(Config{InfiniteRetries: true}).(*backoff.ExponentialBackOff)
		if !ok {
			t.Fatal("expected the bare exponential policy without an attempt cap")
		}
		if policy.MaxElapsedTime != 0 {
			t.Fatalf("expected no elapsed-time bound, got %v", policy.MaxElapsedTime)
		}
	})

	t.Run("bounded policy stops after MaxRetries attempts", func(t *testing.T) {
		policy := retryPolicy(Config{MaxRetries: 2})
		retries := 0
		for policy.NextBackOff() != backoff.Stop {
			retries++
			if retries > 10 {
				t.Fatal("policy never stopped")
			}
		}
		if retries != 2 {
			t.Fatalf("expected 2 retries before stop, got %d", retries)
		}
	})
}

func TestCancelledContextEscapesOutcome(t *testing.T) {
	fake := &fakeClient{}
	store := newOrderStore(t, fake, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Upsert(ctx, testmodels.Order{ID: "o-1", CustomerID: "c-42"}, nil)
	if err == nil {
		t.Fatal("expected cancellation to surface as an error")
	}
	if fake.putCalls != 0 {
		t.Fatalf("expected no remote call after cancellation, got %d", fake.putCalls)
	}
}

func TestSharedCollectionGetFiltersSiblingTypes(t *testing.T) {
	registry.RegisterEntityType[testmodels.Customer](&registry.EntityTypeMetadata{
		EntityType:           "Customer",
		SharedCollection:     true,
		SharedCollectionName: "Entities",
	})
	t.Cleanup(registerTestTypes)

	fake := &fakeClient{}
	fake.getFn = func(in *sdk.GetItemInput) (*sdk.GetItemOutput, error) {
		item, _ := attributevalue.MarshalMap(testmodels.Order{ID: "x-1", CustomerID: "c-1"})
		item[entityTypeAttributeKey] = &types.AttributeValueMemberS{Value: "Order"}
		return &sdk.GetItemOutput{Item: item}, nil
	}
	store, err := NewEntityStore[testmodels.Customer](context.Background(), fake, Config{DatabaseName: "testdb"})
	if err != nil {
		t.Fatalf("NewEntityStore failed: %v", err)
	}

	outcome, err := store.Get(context.Background(), "x-1", nil)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if outcome.OK || !errors.IsNotFound(outcome.Err) {
		t.Fatalf("sibling-type document must read as not found, got: %+v", outcome)
	}
}

func TestSharedCollectionWritesGuardSiblingTypes(t *testing.T) {
	registry.RegisterEntityType[testmodels.Customer](&registry.EntityTypeMetadata{
		EntityType:           "Customer",
		SharedCollection:     true,
		SharedCollectionName: "Entities",
	})
	t.Cleanup(registerTestTypes)

	// The fake holds a sibling type's document under every key: each
	// conditional write fails its check.
	fake := &fakeClient{}
	var put *sdk.PutItemInput
	fake.putFn = func(in *sdk.PutItemInput) (*sdk.PutItemOutput, error) {
		put = in
		return nil, &types.ConditionalCheckFailedException{}
	}
	var del *sdk.DeleteItemInput
	fake.deleteFn = func(in *sdk.DeleteItemInput) (*sdk.DeleteItemOutput, error) {
		del = in
		return nil, &types.ConditionalCheckFailedException{}
	}
	store, err := NewEntityStore[testmodels.Customer](context.Background(), fake, Config{DatabaseName: "testdb"})
	if err != nil {
		t.Fatalf("NewEntityStore failed: %v", err)
	}

	t.Run("upsert cannot replace a sibling document", func(t *testing.T) {
		outcome, err := store.Upsert(context.Background(), testmodels.Customer{ID: "x-1"}, nil)
		if err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if outcome.OK || !errors.IsAlreadyExists(outcome.Err) {
			t.Fatalf("expected already-exists, got: %+v", outcome)
		}
		if put.ConditionExpression == nil || !strings.Contains(*put.ConditionExpression, "#entityType = :entityType") {
			t.Fatalf("expected a discriminator condition, got: %v", put.ConditionExpression)
		}
		if got := attributeString(put.ExpressionAttributeValues[":entityType"]); got != "Customer" {
			t.Fatalf("condition value = %q, want Customer", got)
		}
	})

	t.Run("update of a sibling document reads as not found", func(t *testing.T) {
		outcome, err := store.Update(context.Background(), testmodels.Customer{ID: "x-1"}, nil)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if !errors.IsNotFound(outcome.Err) {
			t.Fatalf("expected not-found, got: %v", outcome.Err)
		}
		if !strings.Contains(*put.ConditionExpression, "attribute_exists(ID) AND") {
			t.Fatalf("update condition = %q", *put.ConditionExpression)
		}
	})

	t.Run("delete of a sibling document reads as not found", func(t *testing.T) {
		outcome, err := store.Delete(context.Background(), "x-1", nil)
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if !errors.IsNotFound(outcome.Err) {
			t.Fatalf("expected not-found, got: %v", outcome.Err)
		}
		if del.ConditionExpression == nil || !strings.Contains(*del.ConditionExpression, "#entityType = :entityType") {
			t.Fatalf("expected a discriminator condition on delete, got: %v", del.ConditionExpression)
		}
	})
}

func TestStreamEmitsAllItems(t *testing.T) {
	fake := &fakeClient{}
	fake.queryFn = func(in *sdk.QueryInput) (*sdk.QueryOutput, error) {
		var items []map[string]types.AttributeValue
		for _, id := range []string{"o-1", "o-2", "o-3"} {
			item, _ := attributevalue.MarshalMap(testmodels.Order{ID: id, CustomerID: "c-42"})
			items = append(items, item)
		}
		return &sdk.QueryOutput{Items: items}, nil
	}
	store := newOrderStore(t, fake, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pk := "c-42"
	count := 0
	for result := range store.Stream(ctx, &storagemodels.QueryParams{PartitionKey: &pk}) {
		if result.Error != nil {
			t.Fatalf("stream error: %v", result.Error)
		}
		count++
	}
	if count != 3 {
		t.Fatalf("expected 3 streamed items, got %d", count)
	}
}

func TestStreamCancelledConsumerDoesNotBlockWorker(t *testing.T) {
	fake := &fakeClient{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake.queryFn = func(in *sdk.QueryInput) (*sdk.QueryOutput, error) {
		cancel()
		return nil, &types.InternalServerError{}
	}
	store := newOrderStore(t, fake, nil)

	pk := "c-42"
	ch := store.Stream(ctx, &storagemodels.QueryParams{PartitionKey: &pk}, storagemodels.WithBufferSize(0))

	// Nobody reads while the worker hits the failed page. The worker must
	// notice the cancellation instead of blocking on the error send.
	time.Sleep(100 * time.Millisecond)

	select {
	case result, ok := <-ch:
		if ok {
			t.Fatalf("expected a closed channel after cancellation, got result: %+v", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream worker still blocked after cancellation")
	}
}
