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
	"go.uber.org/zap"

	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/storagemodels"
)

// throughputScaler temporarily raises a collection's provisioned throughput
// for large bulk operations and guarantees restoration to the default
// afterward. One scaler is bound to one entity store; its mutex serializes
// overlapping brackets so a second bulk call's upscale cannot race a first
// call's downscale. The collection descriptor's throughput fields are
// mutated only here, under that mutex.
type throughputScaler struct {
	mu sync.Mutex

	api        StoreAPI
	table      string
	cfg        Config
	descriptor *storagemodels.CollectionDescriptor
	logger     *zap.Logger
	measures   *Measures
}

func newThroughputScaler(api StoreAPI, table string, cfg Config, descriptor *storagemodels.CollectionDescriptor, logger *zap.Logger, measures *Measures) *throughputScaler {
	return &throughputScaler{
		api:        api,
		table:      table,
		cfg:        cfg,
		descriptor: descriptor,
		logger:     logger,
		measures:   measures,
	}
}

// upscaleTarget decides whether a batch of the given size warrants an
// upscale, and to which value. Upscaling applies only when the collection
// allows auto-scaling, the batch exceeds the configured density threshold,
// and the computed target actually exceeds current provisioning. The target
// assumes a fixed per-request throughput cost and is capped at the
// configured maximum.
func (s *throughputScaler) upscaleTarget(batchSize int) (int64, bool) {
	if !s.descriptor.AutoScale {
		return 0, false
	}
	if batchSize <= s.cfg.ScaleThreshold {
		return 0, false
	}
	target := int64(batchSize) * s.cfg.ThroughputPerEntity
	if target > s.cfg.MaxThroughput {
		target = s.cfg.MaxThroughput
	}
	if target <= s.descriptor.CurrentThroughput {
		return 0, false
	}
	return target, true
}

// bracket runs fn inside an upscale/downscale envelope. The downscale step
// runs exactly once on every exit path: normal return, error return, panic,
// and caller cancellation (restoration is issued under a context detached
// from cancellation — leaving throughput elevated after a cancelled batch
// would keep billing at the elevated rate indefinitely). When both fn and
// the downscale fail, fn's error wins and the downscale failure is logged.
func (s *throughputScaler) bracket(ctx context.Context, batchSize int, fn func(context.Context) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, upscale := s.upscaleTarget(batchSize)
	if upscale {
		if uerr := s.setThroughput(ctx, target); uerr != nil {
			return errors.NewProvisioningError("update throughput", s.table, uerr)
		}
		s.descriptor.CurrentThroughput = target
		s.descriptor.IsUpscaled = true
		s.measures.observeUpscale()
		s.logger.Info("raised collection throughput for bulk operation",
			zap.String("collection", s.table),
			zap.Int("batchSize", batchSize),
			zap.Int64("throughput", target),
		)

		defer func() {
			restoreErr := s.restore(context.WithoutCancel(ctx))
			if restoreErr == nil {
				return
			}
			if err == nil {
				err = restoreErr
				return
			}
			// The primary failure takes precedence; report the restore
			// failure without masking it.
			s.logger.Error("failed to restore default throughput",
				zap.String("collection", s.table),
				zap.Error(restoreErr),
			)
		}()
	}

	return fn(ctx)
}

// restore puts the collection back at its default throughput. No-op when no
// upscale happened.
func (s *throughputScaler) restore(ctx context.Context) error {
	if !s.descriptor.IsUpscaled {
		return nil
	}
	if err := s.setThroughput(ctx, s.descriptor.DefaultThroughput); err != nil {
		return errors.NewProvisioningError("restore throughput", s.table, err)
	}
	s.descriptor.CurrentThroughput = s.descriptor.DefaultThroughput
	s.descriptor.IsUpscaled = false
	s.measures.observeRestore()
	s.logger.Info("restored default collection throughput",
		zap.String("collection", s.table),
		zap.Int64("throughput", s.descriptor.DefaultThroughput),
	)
	return nil
}

func (s *throughputScaler) setThroughput(ctx context.Context, value int64) error {
	_, err := s.api.UpdateTable(ctx, &sdk.UpdateTableInput{
		TableName: aws.String(s.table),
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(value),
			WriteCapacityUnits: aws.Int64(value),
		},
	})
	return err
}
