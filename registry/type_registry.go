package registry

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// UnmarshalFunc defines a function that takes a raw stored document and returns the unmarshaled object.
type UnmarshalFunc func(item map[string]types.AttributeValue) (interface{}, error)

// typeRegistry holds the mapping from a discriminator value (like "Order", "Customer")
// to its unmarshal function. Mixed-type queries on shared collections use it to
// rebuild each document as its proper Go type.
var typeRegistry = make(map[string]UnmarshalFunc)

// RegisterType registers an unmarshal function for a given discriminator value.
// If a type is already registered for the given discriminator, it panics to prevent accidental overrides.
func RegisterType(discriminator string, fn UnmarshalFunc) {
	if _, exists := typeRegistry[discriminator]; exists {
		panic(fmt.Sprintf("type registry: type with discriminator %q already registered", discriminator))
	}
	typeRegistry[discriminator] = fn
}

// GetUnmarshalFunc returns the registered unmarshal function for the given discriminator value.
// If no function is registered, it returns an error.
func GetUnmarshalFunc(discriminator string) (UnmarshalFunc, error) {
	fn, ok := typeRegistry[discriminator]
	if !ok {
		return nil, fmt.Errorf("type registry: no type registered for discriminator %q", discriminator)
	}
	return fn, nil
}
