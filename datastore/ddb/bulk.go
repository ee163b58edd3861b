/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"sync"

	"github.com/suparena/docstore/storagemodels"
)

// runBulk executes one operation per entity concurrently inside the
// throughput bracket and aggregates the outcomes. Every entity's operation
// runs to completion regardless of sibling failures; per-entity failures
// land in the result's Failed partition. Only programmer errors and
// cancellation fail the call as a whole — and even then the bracket has
// already restored throughput before the error returns.
func (s *EntityStore[T]) runBulk(ctx context.Context, kind storagemodels.OperationKind, entities []T, opts *storagemodels.RequestOptions) (storagemodels.BulkResult[T], error) {
	result := storagemodels.BulkResult[T]{}
	if len(entities) == 0 {
		return result, nil
	}

	outcomes := make([]storagemodels.OperationOutcome[T], len(entities))
	errs := make([]error, len(entities))

	err := s.scaler.bracket(ctx, len(entities), func(ctx context.Context) error {
		var wg sync.WaitGroup
		for i := range entities {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i], errs[i] = s.executeEntity(ctx, kind, entities[i], opts)
			}(i)
		}
		wg.Wait()

		for _, e := range errs {
			if e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	for i, outcome := range outcomes {
		if outcome.OK {
			result.Succeeded = append(result.Succeeded, entities[i])
		} else {
			result.Failed = append(result.Failed, storagemodels.FailedEntity[T]{
				Entity:  entities[i],
				Outcome: outcome,
			})
		}
	}
	return result, nil
}
