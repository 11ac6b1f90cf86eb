// Package wire compiles flattened message definitions into protobuf
// descriptors and encodes, decodes and verifies plain value trees against
// them using dynamic messages.
//
// Definitions are compiled as proto2 so required, optional and repeated
// cardinality survives on the wire. All message types reachable from a root
// are compiled into one file, which lets nested types reference each other
// (including cycles) without a shared descriptor registry.
//
// Value trees are map[string]any. On encode, int32 fields accept any Go
// integer (truncated to 32 bits) or integral float; bytes fields accept
// []byte; nested messages accept map[string]any or a contracts.Valuer.
// On decode, repeated fields come back as typed slices ([]string, []int32,
// []bool, [][]byte, []map[string]any).
package wire
