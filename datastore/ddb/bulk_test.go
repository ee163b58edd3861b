/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"testing"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/docstore/datastore/testmodels"
	"github.com/suparena/docstore/errors"
)

func makeOrders(n int) []testmodels.Order {
	orders := make([]testmodels.Order, n)
	for i := range orders {
		orders[i] = testmodels.Order{
			ID:         fmt.Sprintf("o-%d", i),
			CustomerID: fmt.Sprintf("c-%d", i%10),
		}
	}
	return orders
}

func TestBulkEmptyInput(t *testing.T) {
	fake := &fakeClient{}
	store := newOrderStore(t, fake, func(cfg *Config) { cfg.AutoScale = true })

	result, err := store.AddMany(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("AddMany failed: %v", err)
	}
	if result.Len() != 0 || !result.AllSucceeded() {
		t.Fatalf("expected empty successful result, got: %+v", result)
	}
	if fake.putCalls != 0 || fake.updateCalls != 0 {
		t.Fatalf("empty batch must not touch the store: puts=%d updates=%d", fake.putCalls, fake.updateCalls)
	}
}

func TestBulkPartitionsOutcomes(t *testing.T) {
	fake := &fakeClient{}
	fake.putFn = func(in *sdk.PutItemInput) (*sdk.PutItemOutput, error) {
		if attributeString(in.Item[idAttributeKey]) == "o-1" {
			return nil, &types.ConditionalCheckFailedException{}
		}
		return &sdk.PutItemOutput{}, nil
	}
	store := newOrderStore(t, fake, nil)

	result, err := store.AddMany(context.Background(), makeOrders(3), nil)
	if err != nil {
		t.Fatalf("AddMany failed: %v", err)
	}
	if len(result.Succeeded) != 2 {
		t.Fatalf("expected 2 successes, got %d", len(result.Succeeded))
	}
	if len(result.Failed) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(result.Failed))
	}
	failed := result.Failed[0]
	if failed.Entity.ID != "o-1" {
		t.Fatalf("wrong failed entity: %+v", failed.Entity)
	}
	if !errors.IsAlreadyExists(failed.Outcome.Err) {
		t.Fatalf("expected already-exists, got: %v", failed.Outcome.Err)
	}
	if result.AllSucceeded() {
		t.Fatal("AllSucceeded must be false")
	}
	if result.FirstError() == nil {
		t.Fatal("FirstError must surface the failure")
	}
}

func TestBulkSiblingFailureDoesNotShortCircuit(t *testing.T) {
	fake := &fakeClient{}
	fake.putFn = func(in *sdk.PutItemInput) (*sdk.PutItemOutput, error) {
		if attributeString(in.Item[idAttributeKey]) == "o-0" {
			return nil, &types.ConditionalCheckFailedException{}
		}
		return &sdk.PutItemOutput{}, nil
	}
	store := newOrderStore(t, fake, nil)

	const n = 50
	result, err := store.AddMany(context.Background(), makeOrders(n), nil)
	if err != nil {
		t.Fatalf("AddMany failed: %v", err)
	}
	if fake.putCalls != n {
		t.Fatalf("every entity must be attempted: got %d calls for %d entities", fake.putCalls, n)
	}
	if result.Len() != n {
		t.Fatalf("result must cover every entity: %d", result.Len())
	}
}

func TestBulkValidationFailuresLandInResult(t *testing.T) {
	fake := &fakeClient{}
	store := newOrderStore(t, fake, nil)

	orders := makeOrders(2)
	orders = append(orders, testmodels.Order{CustomerID: "c-1"}) // no identifier

	result, err := store.UpsertMany(context.Background(), orders, nil)
	if err != nil {
		t.Fatalf("UpsertMany failed: %v", err)
	}
	if len(result.Failed) != 1 {
		t.Fatalf("expected 1 failed entity, got %d", len(result.Failed))
	}
	if !errors.IsValidationError(result.Failed[0].Outcome.Err) {
		t.Fatalf("expected validation failure, got: %v", result.Failed[0].Outcome.Err)
	}
	if fake.putCalls != 2 {
		t.Fatalf("invalid entity must not reach the store: %d calls", fake.putCalls)
	}
}

func TestBulkUpscalesAroundLargeBatch(t *testing.T) {
	fake := &fakeClient{}
	store := newOrderStore(t, fake, func(cfg *Config) { cfg.AutoScale = true })

	const n = 150
	result, err := store.UpsertMany(context.Background(), makeOrders(n), nil)
	if err != nil {
		t.Fatalf("UpsertMany failed: %v", err)
	}
	if !result.AllSucceeded() {
		t.Fatalf("expected all to succeed: %+v", result.FirstError())
	}
	if fake.putCalls != n {
		t.Fatalf("expected %d puts, got %d", n, fake.putCalls)
	}

	values := fake.updateThroughputValues()
	if len(values) != 2 {
		t.Fatalf("expected one upscale and one restore, got %d updates", len(values))
	}
	if values[0] != int64(n)*defaultThroughputPerEntity {
		t.Fatalf("upscale target = %d", values[0])
	}
	if values[1] != defaultThroughput {
		t.Fatalf("restore value = %d", values[1])
	}
}

func TestBulkSmallBatchDoesNotScale(t *testing.T) {
	fake := &fakeClient{}
	store := newOrderStore(t, fake, func(cfg *Config) { cfg.AutoScale = true })

	if _, err := store.UpsertMany(context.Background(), makeOrders(10), nil); err != nil {
		t.Fatalf("UpsertMany failed: %v", err)
	}
	if fake.updateCalls != 0 {
		t.Fatalf("small batch must not scale, got %d updates", fake.updateCalls)
	}
}

func TestBulkCancelledContextFailsWhole(t *testing.T) {
	fake := &fakeClient{}
	store := newOrderStore(t, fake, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.UpsertMany(ctx, makeOrders(5), nil)
	if err == nil {
		t.Fatal("expected cancellation to fail the whole bulk call")
	}
}

func TestDeleteManyUsesEntityPartitions(t *testing.T) {
	fake := &fakeClient{}
	var deletedKeys []string
	fake.deleteFn = func(in *sdk.DeleteItemInput) (*sdk.DeleteItemOutput, error) {
		fake.mu.Lock()
		deletedKeys = append(deletedKeys, attributeString(in.Key[partitionAttributeKey]))
		fake.mu.Unlock()
		attrs := in.Key
		return &sdk.DeleteItemOutput{Attributes: attrs}, nil
	}
	store := newOrderStore(t, fake, nil)

	orders := []testmodels.Order{
		{ID: "o-1", CustomerID: "c-1"},
		{ID: "o-2", CustomerID: "c-2"},
	}
	result, err := store.DeleteMany(context.Background(), orders, nil)
	if err != nil {
		t.Fatalf("DeleteMany failed: %v", err)
	}
	if !result.AllSucceeded() {
		t.Fatalf("expected all deletes to succeed: %v", result.FirstError())
	}
	seen := map[string]bool{}
	for _, k := range deletedKeys {
		seen[k] = true
	}
	if !seen["c-1"] || !seen["c-2"] {
		t.Fatalf("expected per-entity partition routing, got %v", deletedKeys)
	}
}
