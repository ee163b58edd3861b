/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/registry"
	"github.com/suparena/docstore/storagemodels"
)

// resolvePartitionValue computes the partition value for an entity from its
// type metadata. It is a pure function of the metadata and the entity.
// Returns ("", nil) when the type declares no partition key; a validation
// error when the declared field is absent or empty on the entity.
func resolvePartitionValue(md *registry.EntityTypeMetadata, entity any) (string, error) {
	if !md.HasPartitionKey() {
		return "", nil
	}

	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return "", fmt.Errorf("failed to marshal entity: %w", err)
	}

	val, ok := av[md.PartitionKeyPath]
	if !ok {
		return "", errors.NewValidationError(md.PartitionKeyPath, "partition key field not found on entity")
	}
	s := attributeString(val)
	if s == "" {
		return "", errors.NewValidationError(md.PartitionKeyPath, "partition key value missing")
	}
	return s, nil
}

// partitionValueForID resolves a partition value from an identifier alone.
// This is only defined when the partition key path is the identifier path
// itself (the id doubles as the routing value) or when the type declares no
// partition key; identifier-only operations then avoid loading the entity.
func partitionValueForID(md *registry.EntityTypeMetadata, id string) (string, bool) {
	if !md.HasPartitionKey() || md.PartitionKeyIsIdentifier() {
		return id, true
	}
	return "", false
}

// identifierValue extracts the entity's identifier via the serializer.
func identifierValue(md *registry.EntityTypeMetadata, entity any) (string, error) {
	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return "", fmt.Errorf("failed to marshal entity: %w", err)
	}

	val, ok := av[md.IdentifierPath()]
	if !ok {
		return "", errors.NewValidationError(md.IdentifierPath(), "identifier field not found on entity")
	}
	s := attributeString(val)
	if s == "" {
		return "", errors.NewValidationError(md.IdentifierPath(), "identifier must not be empty")
	}
	return s, nil
}

// composeOptions merges caller-supplied request options with a freshly
// resolved partition value. The resolved value always overrides a partition
// value already present in the caller's options; resolution from metadata
// beats a possibly stale caller-supplied value. The caller's options value
// is never mutated.
func composeOptions(opts *storagemodels.RequestOptions, resolved string) *storagemodels.RequestOptions {
	effective := opts.Clone()
	if resolved != "" {
		effective.PartitionKey = &resolved
	}
	return effective
}

// composeQueryPartition decides the partition scope of a query: the
// partition value to use, and whether the query must fall back to
// cross-partition scanning. Scanning is required when the type is
// partitioned but no specific partition value is available, or when the
// caller asked for it explicitly.
func composeQueryPartition(md *registry.EntityTypeMetadata, params *storagemodels.QueryParams) (partition string, crossPartition bool) {
	if params != nil && params.PartitionKey != nil && *params.PartitionKey != "" {
		partition = *params.PartitionKey
	}
	if params != nil && params.CrossPartition {
		return partition, true
	}
	if md.HasPartitionKey() && partition == "" {
		return "", true
	}
	return partition, partition == ""
}

// attributeString renders a scalar attribute value as the string form used
// for keys. Non-scalar attributes have no key form and yield "".
func attributeString(val types.AttributeValue) string {
	switch tv := val.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value
	case *types.AttributeValueMemberN:
		return tv.Value
	case *types.AttributeValueMemberBOOL:
		return fmt.Sprintf("%v", tv.Value)
	default:
		return ""
	}
}
