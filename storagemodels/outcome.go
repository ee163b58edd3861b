/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// OperationKind identifies the logical store operation an outcome belongs to.
type OperationKind string

const (
	OperationAdd    = OperationKind("add")
	OperationGet    = OperationKind("get")
	OperationUpdate = OperationKind("update")
	OperationUpsert = OperationKind("upsert")
	OperationDelete = OperationKind("delete")
)

// OperationOutcome is the normalized result of one single-entity operation.
// Expected store-level failures (not found, conflict, throttling, transient
// transport errors) are captured here rather than returned as Go errors, so
// bulk operations can aggregate them without aborting sibling calls.
type OperationOutcome[T any] struct {
	// Kind is the operation that produced this outcome.
	Kind OperationKind

	// OK reports whether the operation succeeded.
	OK bool

	// Entity is the echoed (possibly server-mutated) entity on success, and
	// on failure the entity the operation was attempted with, when known.
	Entity *T

	// Err classifies the failure; nil when OK. Match it with the errors
	// package sentinels (errors.IsNotFound, errors.IsThroughputExceeded, ...).
	Err error

	// StatusCode is the store's raw HTTP status for the failed call, when
	// available; zero otherwise.
	StatusCode int
}

// FailedEntity pairs an input entity with the outcome that failed it.
type FailedEntity[T any] struct {
	Entity  T
	Outcome OperationOutcome[T]
}

// BulkResult partitions a bulk operation's input into successful and failed
// entities. Every input entity appears in exactly one of the two sequences,
// regardless of how many operations in the batch fail. Order within the
// sequences is not guaranteed.
type BulkResult[T any] struct {
	Succeeded []T
	Failed    []FailedEntity[T]
}

// Len returns the total number of entities accounted for.
func (r BulkResult[T]) Len() int {
	return len(r.Succeeded) + len(r.Failed)
}

// AllSucceeded reports whether no entity failed.
func (r BulkResult[T]) AllSucceeded() bool {
	return len(r.Failed) == 0
}

// FirstError returns the first recorded failure classification, or nil.
func (r BulkResult[T]) FirstError() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return r.Failed[0].Outcome.Err
}

// Success builds a successful outcome echoing the given entity.
func Success[T any](kind OperationKind, entity *T) OperationOutcome[T] {
	return OperationOutcome[T]{Kind: kind, OK: true, Entity: entity}
}

// Failure builds a failed outcome with its error classification.
func Failure[T any](kind OperationKind, entity *T, err error) OperationOutcome[T] {
	return OperationOutcome[T]{Kind: kind, Entity: entity, Err: err}
}
