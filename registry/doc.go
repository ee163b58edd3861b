/*
Package registry manages entity-type metadata and discriminator registration
for docstore.

The registry system enables:
  - Static, compile-time-checked metadata per entity type (collection name,
    partition key path, discriminator, throughput hint)
  - Polymorphic storage of multiple entity types in one shared collection
  - Dynamic type resolution of query results based on the stored
    discriminator attribute

Metadata Registry:
Associates Go types with their stored-document layout:

	registry.RegisterEntityType[Order](&registry.EntityTypeMetadata{
	    EntityType:       "Order",
	    CollectionName:   "Order",
	    IDPath:           "Id",
	    PartitionKeyPath: "CustomerId",
	    DefaultThroughput: 400,
	})

Type Registry:
Maps discriminator values to unmarshal functions for mixed-type queries:

	registry.RegisterType("Order", func(item map[string]types.AttributeValue) (interface{}, error) {
	    var o Order
	    err := attributevalue.UnmarshalMap(item, &o)
	    return &o, err
	})

The registry is thread-safe and should be populated during initialization,
typically in init() functions or through generated code.
*/
package registry
