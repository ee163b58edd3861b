/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/suparena/docstore/errors"
)

// EnsureCollection provisions the named collection of the configured
// database ahead of store construction. Intended for deployment tooling;
// NewEntityStore performs the same step on demand.
func EnsureCollection(ctx context.Context, api StoreAPI, cfg Config, collection string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	if err := ensureDatabase(cfg.DatabaseName); err != nil {
		return err
	}
	if collection == "" {
		return errors.NewConfigurationError("collection", "must not be empty")
	}
	_, err := ensureCollection(ctx, api, tableName(cfg.DatabaseName, collection), cfg.DefaultThroughput, cfg.IndexingPolicy, logger)
	return err
}

// tableName derives the physical table name. The logical database has no
// first-class counterpart in DynamoDB's flat namespace, so it becomes a
// name prefix.
func tableName(database, collection string) string {
	return database + "." + collection
}

// ensureDatabase validates the logical database name. DynamoDB has no
// database object to create; the name only needs to be usable as a table
// name prefix.
func ensureDatabase(name string) error {
	if name == "" {
		return errors.NewConfigurationError("DatabaseName", "must not be empty")
	}
	if strings.ContainsAny(name, " \t\n") {
		return errors.NewConfigurationError("DatabaseName", "must not contain whitespace")
	}
	return nil
}

// ensureCollection guarantees the collection exists and is active before
// the store serves its first operation, and reports its current provisioned
// throughput. Creation applies the indexing policy and the default
// throughput.
func ensureCollection(ctx context.Context, api StoreAPI, table string, throughput int64, policy []IndexDefinition, logger *zap.Logger) (int64, error) {
	out, err := api.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: aws.String(table)})
	if err == nil {
		if out.Table.TableStatus != types.TableStatusActive {
			if werr := waitForActive(ctx, api, table); werr != nil {
				return 0, werr
			}
		}
		return currentThroughput(out.Table, throughput), nil
	}

	var notFound *types.ResourceNotFoundException
	if !stderrors.As(err, &notFound) {
		return 0, errors.NewProvisioningError("describe collection", table, err)
	}

	logger.Info("creating collection", zap.String("collection", table), zap.Int64("throughput", throughput))
	if cerr := createCollection(ctx, api, table, throughput, policy); cerr != nil {
		return 0, cerr
	}
	if werr := waitForActive(ctx, api, table); werr != nil {
		return 0, werr
	}
	return throughput, nil
}

func createCollection(ctx context.Context, api StoreAPI, table string, throughput int64, policy []IndexDefinition) error {
	attributes := map[string]struct{}{
		partitionAttributeKey: {},
		idAttributeKey:        {},
	}

	input := &sdk.CreateTableInput{
		TableName: aws.String(table),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(partitionAttributeKey), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(idAttributeKey), KeyType: types.KeyTypeRange},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(throughput),
			WriteCapacityUnits: aws.Int64(throughput),
		},
	}

	for _, idx := range policy {
		schema := []types.KeySchemaElement{
			{AttributeName: aws.String(idx.PartitionKeyName), KeyType: types.KeyTypeHash},
		}
		attributes[idx.PartitionKeyName] = struct{}{}
		if idx.SortKeyName != "" {
			schema = append(schema, types.KeySchemaElement{
				AttributeName: aws.String(idx.SortKeyName),
				KeyType:       types.KeyTypeRange,
			})
			attributes[idx.SortKeyName] = struct{}{}
		}
		input.GlobalSecondaryIndexes = append(input.GlobalSecondaryIndexes, types.GlobalSecondaryIndex{
			IndexName:  aws.String(idx.IndexName),
			KeySchema:  schema,
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			ProvisionedThroughput: &types.ProvisionedThroughput{
				ReadCapacityUnits:  aws.Int64(throughput),
				WriteCapacityUnits: aws.Int64(throughput),
			},
		})
	}

	for name := range attributes {
		input.AttributeDefinitions = append(input.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: types.ScalarAttributeTypeS,
		})
	}

	if _, err := api.CreateTable(ctx, input); err != nil {
		var exists *types.ResourceInUseException
		if stderrors.As(err, &exists) {
			// Concurrent creation by another store instance.
			return nil
		}
		return errors.NewProvisioningError("create collection", table, err)
	}
	return nil
}

// waitForActive polls until the table reaches ACTIVE.
func waitForActive(ctx context.Context, api StoreAPI, table string) error {
	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	err := backoff.Retry(func() error {
		out, err := api.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: aws.String(table)})
		if err != nil {
			return backoff.Permanent(err)
		}
		if out.Table.TableStatus != types.TableStatusActive {
			return stderrors.New("collection not yet active")
		}
		return nil
	}, policy)
	if err != nil {
		return errors.NewProvisioningError("await collection", table, err)
	}
	return nil
}

func currentThroughput(table *types.TableDescription, fallback int64) int64 {
	if table != nil && table.ProvisionedThroughput != nil && table.ProvisionedThroughput.ReadCapacityUnits != nil {
		if rcu := *table.ProvisionedThroughput.ReadCapacityUnits; rcu > 0 {
			return rcu
		}
	}
	return fallback
}
