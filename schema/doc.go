// Package schema provides schema export and drift detection for protolite
// message types.
//
// The schema package describes a message type by shape alone, so producers
// and consumers compiled independently can check they agree on the wire
// layout before exchanging payloads. Type and field names never take part
// in the comparison; field order, kinds and rules do.
//
// Key features:
//   - Collect: a deduplicated export of a type and every nested type
//   - Checksum: a BLAKE2b-256 digest over the canonical CBOR export
//   - CheckCompatibility: a per-position report of structural differences
//   - JSON Schema generation for documentation and tooling
//
// Basic usage:
//
//	s, err := schema.Collect(descriptor)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	data, err := schema.MarshalCanonical(s)
//	// ship data to the consumer, then on the other side:
//	remote, err := schema.UnmarshalCanonical(data)
//	if err := schema.CheckCompatibility(remote, local); err != nil {
//	    log.Printf("schema drift: %v", err)
//	}
package schema
