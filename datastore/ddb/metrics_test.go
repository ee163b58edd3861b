/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/suparena/docstore/datastore/testmodels"
	"github.com/suparena/docstore/storagemodels"
)

func TestMeasuresRecordOperationsAndCapacity(t *testing.T) {
	measures := NewMeasures(prometheus.NewPedanticRegistry())

	fake := &fakeClient{}
	fake.putFn = func(in *sdk.PutItemInput) (*sdk.PutItemOutput, error) {
		return &sdk.PutItemOutput{
			ConsumedCapacity: &types.ConsumedCapacity{WriteCapacityUnits: aws.Float64(2)},
		}, nil
	}
	fake.getFn = func(in *sdk.GetItemInput) (*sdk.GetItemOutput, error) {
		return &sdk.GetItemOutput{
			ConsumedCapacity: &types.ConsumedCapacity{ReadCapacityUnits: aws.Float64(0.5)},
		}, nil
	}
	registerTestTypes()
	store, err := NewEntityStore[testmodels.Order](context.Background(), fake, Config{DatabaseName: "testdb"}, WithMeasures(measures))
	if err != nil {
		t.Fatalf("NewEntityStore failed: %v", err)
	}

	if _, err := store.Add(context.Background(), testmodels.Order{ID: "o-1", CustomerID: "c-1"}, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	pk := "c-1"
	if _, err := store.Get(context.Background(), "o-404", &storagemodels.RequestOptions{PartitionKey: &pk}); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got := testutil.ToFloat64(measures.OperationSuccessCount.WithLabelValues(string(storagemodels.OperationAdd))); got != 1 {
		t.Fatalf("add success count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(measures.OperationFailureCount.WithLabelValues(string(storagemodels.OperationGet))); got != 1 {
		t.Fatalf("get failure count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(measures.WriteCapacityConsumed); got != 2 {
		t.Fatalf("write capacity consumed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(measures.ReadCapacityConsumed); got != 0.5 {
		t.Fatalf("read capacity consumed = %v, want 0.5", got)
	}
}

func TestMeasuresRecordScalingEvents(t *testing.T) {
	measures := NewMeasures(prometheus.NewPedanticRegistry())

	fake := &fakeClient{}
	registerTestTypes()
	cfg := Config{DatabaseName: "testdb", AutoScale: true}
	store, err := NewEntityStore[testmodels.Order](context.Background(), fake, cfg, WithMeasures(measures))
	if err != nil {
		t.Fatalf("NewEntityStore failed: %v", err)
	}

	if _, err := store.UpsertMany(context.Background(), makeOrders(150), nil); err != nil {
		t.Fatalf("UpsertMany failed: %v", err)
	}

	if got := testutil.ToFloat64(measures.ThroughputUpscales); got != 1 {
		t.Fatalf("upscale count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(measures.ThroughputRestores); got != 1 {
		t.Fatalf("restore count = %v, want 1", got)
	}
}
