/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

/*
Package ddb implements the DataStore interface on Amazon DynamoDB.

Every stored document carries three injected attributes alongside the
serialized entity fields: the partition value (PK), the identifier (ID)
and the entity-type discriminator (EntityType). The logical database name
becomes a table-name prefix, so collections of one database group together
in DynamoDB's flat namespace.

Single operations normalize their results into OperationOutcome values;
bulk operations fan out concurrently inside a throughput bracket that
raises provisioned capacity for large batches and restores it on every
exit path.
*/
package ddb
