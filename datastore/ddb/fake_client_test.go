/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeClient implements StoreAPI for tests. Each operation counts its calls
// and delegates to an optional hook; without a hook a benign default answer
// is returned. DescribeTable defaults to an active table so store
// construction succeeds without further setup.
type fakeClient struct {
	mu sync.Mutex

	putCalls      int
	getCalls      int
	deleteCalls   int
	queryCalls    int
	scanCalls     int
	createCalls   int
	describeCalls int
	updateCalls   int

	updateInputs []*sdk.UpdateTableInput

	putFn      func(*sdk.PutItemInput) (*sdk.PutItemOutput, error)
	getFn      func(*sdk.GetItemInput) (*sdk.GetItemOutput, error)
	deleteFn   func(*sdk.DeleteItemInput) (*sdk.DeleteItemOutput, error)
	queryFn    func(*sdk.QueryInput) (*sdk.QueryOutput, error)
	scanFn     func(*sdk.ScanInput) (*sdk.ScanOutput, error)
	createFn   func(*sdk.CreateTableInput) (*sdk.CreateTableOutput, error)
	describeFn func(*sdk.DescribeTableInput) (*sdk.DescribeTableOutput, error)
	updateFn   func(*sdk.UpdateTableInput) (*sdk.UpdateTableOutput, error)
}

func (f *fakeClient) PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	f.putCalls++
	fn := f.putFn
	f.mu.Unlock()
	if fn != nil {
		return fn(params)
	}
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeClient) GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	f.getCalls++
	fn := f.getFn
	f.mu.Unlock()
	if fn != nil {
		return fn(params)
	}
	return &sdk.GetItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	f.deleteCalls++
	fn := f.deleteFn
	f.mu.Unlock()
	if fn != nil {
		return fn(params)
	}
	return &sdk.DeleteItemOutput{}, nil
}

func (f *fakeClient) Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	f.queryCalls++
	fn := f.queryFn
	f.mu.Unlock()
	if fn != nil {
		return fn(params)
	}
	return &sdk.QueryOutput{}, nil
}

func (f *fakeClient) Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.mu.Lock()
	f.scanCalls++
	fn := f.scanFn
	f.mu.Unlock()
	if fn != nil {
		return fn(params)
	}
	return &sdk.ScanOutput{}, nil
}

func (f *fakeClient) CreateTable(ctx context.Context, params *sdk.CreateTableInput, optFns ...func(*sdk.Options)) (*sdk.CreateTableOutput, error) {
	f.mu.Lock()
	f.createCalls++
	fn := f.createFn
	f.mu.Unlock()
	if fn != nil {
		return fn(params)
	}
	return &sdk.CreateTableOutput{}, nil
}

func (f *fakeClient) DescribeTable(ctx context.Context, params *sdk.DescribeTableInput, optFns ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error) {
	f.mu.Lock()
	f.describeCalls++
	fn := f.describeFn
	f.mu.Unlock()
	if fn != nil {
		return fn(params)
	}
	return activeTable(defaultThroughput), nil
}

func (f *fakeClient) UpdateTable(ctx context.Context, params *sdk.UpdateTableInput, optFns ...func(*sdk.Options)) (*sdk.UpdateTableOutput, error) {
	f.mu.Lock()
	f.updateCalls++
	f.updateInputs = append(f.updateInputs, params)
	fn := f.updateFn
	f.mu.Unlock()
	if fn != nil {
		return fn(params)
	}
	return &sdk.UpdateTableOutput{}, nil
}

func (f *fakeClient) updateThroughputValues() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := make([]int64, 0, len(f.updateInputs))
	for _, in := range f.updateInputs {
		values = append(values, *in.ProvisionedThroughput.WriteCapacityUnits)
	}
	return values
}

func activeTable(throughput int64) *sdk.DescribeTableOutput {
	return &sdk.DescribeTableOutput{
		Table: &types.TableDescription{
			TableStatus: types.TableStatusActive,
			ProvisionedThroughput: &types.ProvisionedThroughputDescription{
				ReadCapacityUnits:  aws.Int64(throughput),
				WriteCapacityUnits: aws.Int64(throughput),
			},
		},
	}
}
