/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/suparena/docstore/storagemodels"
)

// Metric names.
const (
	OperationSuccessCounter      = "docstore_operation_success_count"
	OperationFailureCounter      = "docstore_operation_failure_count"
	ReadCapacityConsumedCounter  = "docstore_read_capacity_unit_consumed"
	WriteCapacityConsumedCounter = "docstore_write_capacity_unit_consumed"
	ThroughputUpscaleCounter     = "docstore_throughput_upscale_count"
	ThroughputRestoreCounter     = "docstore_throughput_restore_count"
)

const operationLabel = "operation"

// Measures holds the store's metrics. A nil *Measures is valid and records
// nothing, so instrumentation stays optional.
type Measures struct {
	OperationSuccessCount *prometheus.CounterVec
	OperationFailureCount *prometheus.CounterVec
	ReadCapacityConsumed  prometheus.Counter
	WriteCapacityConsumed prometheus.Counter
	ThroughputUpscales    prometheus.Counter
	ThroughputRestores    prometheus.Counter
}

// NewMeasures builds and registers the store metrics against the given
// registerer.
func NewMeasures(reg prometheus.Registerer) *Measures {
	factory := promauto.With(reg)
	return &Measures{
		OperationSuccessCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: OperationSuccessCounter,
			Help: "The total number of successful store operations",
		}, []string{operationLabel}),
		OperationFailureCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: OperationFailureCounter,
			Help: "The total number of failed store operations",
		}, []string{operationLabel}),
		ReadCapacityConsumed: factory.NewCounter(prometheus.CounterOpts{
			Name: ReadCapacityConsumedCounter,
			Help: "The number of read capacity units consumed by store operations",
		}),
		WriteCapacityConsumed: factory.NewCounter(prometheus.CounterOpts{
			Name: WriteCapacityConsumedCounter,
			Help: "The number of write capacity units consumed by store operations",
		}),
		ThroughputUpscales: factory.NewCounter(prometheus.CounterOpts{
			Name: ThroughputUpscaleCounter,
			Help: "The number of bulk operations that raised collection throughput",
		}),
		ThroughputRestores: factory.NewCounter(prometheus.CounterOpts{
			Name: ThroughputRestoreCounter,
			Help: "The number of throughput restorations after bulk operations",
		}),
	}
}

func (m *Measures) observeOutcome(kind storagemodels.OperationKind, ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.OperationSuccessCount.WithLabelValues(string(kind)).Inc()
	} else {
		m.OperationFailureCount.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Measures) observeCapacity(cc *types.ConsumedCapacity) {
	if m == nil || cc == nil {
		return
	}
	if cc.ReadCapacityUnits != nil {
		m.ReadCapacityConsumed.Add(*cc.ReadCapacityUnits)
	}
	if cc.WriteCapacityUnits != nil {
		m.WriteCapacityConsumed.Add(*cc.WriteCapacityUnits)
	}
}

func (m *Measures) observeUpscale() {
	if m == nil {
		return
	}
	m.ThroughputUpscales.Inc()
}

func (m *Measures) observeRestore() {
	if m == nil {
		return
	}
	m.ThroughputRestores.Inc()
}
