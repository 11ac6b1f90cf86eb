// Package contracts provides the shared error kinds and the decoded message
// value for the protolite schema framework.
//
// This package defines:
//   - Sentinel errors for every registration, payload and lookup failure
//   - SchemaError: a sentinel error with operation, type and field context
//   - Message: a decoded value tree tagged with its message type
//
// Callers match failures with errors.Is against the sentinels; every error
// returned by the other packages wraps one of them.
package contracts
