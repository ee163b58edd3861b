/*
Package errors provides semantic error types for the docstore library.

The package defines common error scenarios with specific types that can be
checked using the standard errors.Is() function or the provided helper
functions.

Common Errors:

	var (
	    ErrNotFound           = errors.New("entity not found")
	    ErrAlreadyExists      = errors.New("entity already exists")
	    ErrInvalidInput       = errors.New("invalid input")
	    ErrConditionFailed    = errors.New("condition check failed")
	    ErrThroughputExceeded = errors.New("provisioned throughput exceeded")
	    ErrProvisioning       = errors.New("provisioning failed")
	    ErrConfiguration      = errors.New("invalid configuration")
	    ErrNoMetadata         = errors.New("no metadata registered for type")
	)

The taxonomy follows the store's propagation policy: validation errors are
produced before any remote call; expected store failures (not found,
conflict, throttling) are captured inside operation outcomes so bulk calls
can aggregate them; provisioning and configuration errors are fatal and
returned as plain Go errors.

Usage:

	outcome, err := store.Get(ctx, "123", nil)
	if err != nil {
	    return err // configuration or programmer error
	}
	if !outcome.OK {
	    if errors.IsNotFound(outcome.Err) {
	        // handle missing entity
	    }
	}

	// Create typed errors
	err := errors.NewNotFoundError("Order", "123")
	err := errors.NewValidationError("CustomerId", "partition key value missing")
	err := errors.NewProvisioningError("update throughput", "appdb.Order", cause)

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors
