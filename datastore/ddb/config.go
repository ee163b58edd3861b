/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/suparena/docstore/errors"
)

const (
	// defaultThroughput is the provisioned throughput a collection is
	// created with and restored to, absent an explicit value.
	defaultThroughput = 400

	// defaultMaxThroughput caps any computed upscale target.
	defaultMaxThroughput = 40000

	// defaultScaleThreshold is the batch size above which a bulk operation
	// considers upscaling.
	defaultScaleThreshold = 100

	// defaultThroughputPerEntity is the assumed per-request throughput cost
	// used to size an upscale target.
	defaultThroughputPerEntity = 5

	// defaultMaxRetries bounds throttle retries when InfiniteRetries is off.
	defaultMaxRetries = 3
)

// IndexDefinition describes one secondary index of the collection's indexing
// policy, applied when this library creates the collection.
type IndexDefinition struct {
	// IndexName is the index name in the store (e.g., "GSI1").
	IndexName string `yaml:"indexName"`
	// PartitionKeyName is the partition key attribute name of the index.
	PartitionKeyName string `yaml:"partitionKeyName"`
	// SortKeyName is the optional sort key attribute name of the index.
	SortKeyName string `yaml:"sortKeyName,omitempty"`
}

// Config is the explicit, immutable configuration an entity store is
// constructed with. There is no process-wide settings object; every store
// receives its own copy.
type Config struct {
	// DatabaseName is the logical database the collection belongs to.
	// Required. On DynamoDB it becomes the table-name prefix.
	DatabaseName string `yaml:"databaseName"`

	// CollectionNameOverride overrides the collection name derived from
	// entity type metadata.
	CollectionNameOverride string `yaml:"collectionNameOverride,omitempty"`

	// AutoScale permits temporarily raising collection throughput for large
	// bulk operations.
	AutoScale bool `yaml:"autoScale"`

	// InfiniteRetries retries throttled operations without an attempt
	// bound. When off, throttled operations are retried MaxRetries times
	// and then surface as failed outcomes.
	InfiniteRetries bool `yaml:"infiniteRetries"`

	// IndexingPolicy lists the secondary indexes created with the
	// collection.
	IndexingPolicy []IndexDefinition `yaml:"indexingPolicy,omitempty"`

	// DefaultThroughput is the throughput for collection creation and
	// post-bulk restoration. Entity type metadata may override it per type.
	DefaultThroughput int64 `yaml:"defaultThroughput,omitempty"`

	// MaxThroughput caps any upscale target.
	MaxThroughput int64 `yaml:"maxThroughput,omitempty"`

	// ScaleThreshold is the batch size a bulk operation must exceed before
	// an upscale is considered.
	ScaleThreshold int `yaml:"scaleThreshold,omitempty"`

	// ThroughputPerEntity is the assumed throughput cost of one request,
	// used to compute the upscale target for a batch.
	ThroughputPerEntity int64 `yaml:"throughputPerEntity,omitempty"`

	// MaxRetries bounds throttle retries when InfiniteRetries is off.
	MaxRetries uint64 `yaml:"maxRetries,omitempty"`
}

// validate applies defaults and rejects unusable configuration.
func (c *Config) validate() error {
	if c.DatabaseName == "" {
		return errors.NewConfigurationError("DatabaseName", "must not be empty")
	}
	if c.DefaultThroughput <= 0 {
		c.DefaultThroughput = defaultThroughput
	}
	if c.MaxThroughput <= 0 {
		c.MaxThroughput = defaultMaxThroughput
	}
	if c.DefaultThroughput > c.MaxThroughput {
		return errors.NewConfigurationError("DefaultThroughput", "must not exceed MaxThroughput")
	}
	if c.ScaleThreshold <= 0 {
		c.ScaleThreshold = defaultScaleThreshold
	}
	if c.ThroughputPerEntity <= 0 {
		c.ThroughputPerEntity = defaultThroughputPerEntity
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	for i, idx := range c.IndexingPolicy {
		if idx.IndexName == "" || idx.PartitionKeyName == "" {
			return errors.NewConfigurationError(
				fmt.Sprintf("IndexingPolicy[%d]", i),
				"indexName and partitionKeyName are required",
			)
		}
	}
	return nil
}

// LoadConfig reads a Config from a YAML file.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
