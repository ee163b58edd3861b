/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when attempting to create an entity that already exists
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConditionFailed is returned when a conditional write fails
	ErrConditionFailed = errors.New("condition check failed")

	// ErrThroughputExceeded is returned when the store throttles an operation
	// because demand exceeded the collection's provisioned throughput
	ErrThroughputExceeded = errors.New("provisioned throughput exceeded")

	// ErrProvisioning is returned when collection or throughput provisioning fails
	ErrProvisioning = errors.New("provisioning failed")

	// ErrConfiguration is returned when store configuration is invalid
	ErrConfiguration = errors.New("invalid configuration")

	// ErrNoMetadata is returned when no entity type metadata is registered for a type
	ErrNoMetadata = errors.New("no metadata registered for type")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when an entity already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConditionFailedError represents a failed conditional operation
type ConditionFailedError struct {
	Operation string
	Condition string
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("condition check failed for %s operation: %s", e.Operation, e.Condition)
}

func (e *ConditionFailedError) Is(target error) bool {
	return target == ErrConditionFailed
}

// ThroughputExceededError represents a throttled store operation
type ThroughputExceededError struct {
	Collection string
	Err        error
}

func (e *ThroughputExceededError) Error() string {
	return fmt.Sprintf("provisioned throughput exceeded on collection %q: %v", e.Collection, e.Err)
}

func (e *ThroughputExceededError) Is(target error) bool {
	return target == ErrThroughputExceeded
}

func (e *ThroughputExceededError) Unwrap() error {
	return e.Err
}

// ProvisioningError represents a failure to provision a database, collection,
// or throughput value. It is fatal to store construction or to a scaling
// bracket and is returned as an error, never as an operation outcome.
type ProvisioningError struct {
	Operation string
	Resource  string
	Err       error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning %s failed for %q: %v", e.Operation, e.Resource, e.Err)
}

func (e *ProvisioningError) Is(target error) bool {
	return target == ErrProvisioning
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// ConfigurationError represents invalid store configuration detected at
// construction time
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConditionFailedError creates a new ConditionFailedError
func NewConditionFailedError(operation, condition string) error {
	return &ConditionFailedError{Operation: operation, Condition: condition}
}

// NewThroughputExceededError creates a new ThroughputExceededError
func NewThroughputExceededError(collection string, err error) error {
	return &ThroughputExceededError{Collection: collection, Err: err}
}

// NewProvisioningError creates a new ProvisioningError
func NewProvisioningError(operation, resource string, err error) error {
	return &ProvisioningError{Operation: operation, Resource: resource, Err: err}
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(field, message string) error {
	return &ConfigurationError{Field: field, Message: message}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConditionFailed checks if an error is a condition failed error
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

// IsThroughputExceeded checks if an error is a throttling error
func IsThroughputExceeded(err error) bool {
	return errors.Is(err, ErrThroughputExceeded)
}

// IsProvisioningError checks if an error is a provisioning error
func IsProvisioningError(err error) bool {
	return errors.Is(err, ErrProvisioning)
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
