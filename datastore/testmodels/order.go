package testmodels

import "github.com/go-openapi/strfmt"

// Order is a partitioned test entity: orders are routed by customer.
type Order struct {

	// Timestamp when the order was created.
	// Required: true
	// Format: date-time
	CreatedAt *strfmt.DateTime `json:"CreatedAt"`

	// Identifier of the customer the order belongs to.
	// Required: true
	CustomerID string `json:"CustomerId"`

	// Unique identifier for the order.
	// Required: true
	ID string `json:"Id"`

	// Current order status.
	Status string `json:"Status,omitempty"`

	// Order total in minor currency units.
	Total int64 `json:"Total,omitempty"`

	// Timestamp when the order was last updated.
	// Format: date-time
	UpdatedAt *strfmt.DateTime `json:"UpdatedAt"`
}

// Customer is a test entity without a distinct partition key; its
// identifier doubles as the routing value. Used together with Order to
// exercise shared collections.
type Customer struct {

	// Contact email address.
	Email string `json:"Email,omitempty"`

	// Unique identifier for the customer.
	// Required: true
	ID string `json:"Id"`

	// Display name.
	// Required: true
	Name *string `json:"Name"`
}
