package contracts

import (
	"errors"
	"fmt"
)

var (
	// Registration errors
	ErrSchemaSealed             = errors.New("protolite: schema is sealed, no more fields can be registered")
	ErrDuplicateFieldName       = errors.New("protolite: field name already declared in the ancestor chain")
	ErrUnsupportedType          = errors.New("protolite: unsupported field type")
	ErrArrayElementTypeRequired = errors.New("protolite: repeated field requires an explicit element type")
	ErrNestedArrayNotAllowed    = errors.New("protolite: nested arrays are not allowed")
	ErrOptionalArrayNotAllowed  = errors.New("protolite: field cannot be optional and repeated at the same time")
	ErrTypeMismatch             = errors.New("protolite: declared type does not match inferred type")
	ErrInvalidFieldName         = errors.New("protolite: invalid field name")
	ErrInvalidInheritance       = errors.New("protolite: invalid inheritance")

	// Payload errors
	ErrRequiredFieldMissing = errors.New("protolite: required field was not provided")
	ErrVerificationFailed   = errors.New("protolite: payload verification failed")
	ErrMalformedPayload     = errors.New("protolite: malformed payload")
	ErrCodecFailed          = errors.New("protolite: codec failed")
	ErrNilPayload           = errors.New("protolite: payload was not provided")

	// Lookup errors
	ErrNoMetadata = errors.New("protolite: type has no registered metadata")

	// Compatibility errors
	ErrIncompatibleSchema = errors.New("protolite: schemas are not wire compatible")
)

// SchemaError adds the operation, message type and field to one of the
// sentinel errors above.
type SchemaError struct {
	Op    string // Operation that failed
	Type  string // Message type name
	Field string // Field name or path, may be empty
	Err   error  // Underlying error
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s %s.%s: %v", e.Op, e.Type, e.Field, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Type, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// NewSchemaError builds a SchemaError.
func NewSchemaError(op, typeName, field string, err error) *SchemaError {
	return &SchemaError{Op: op, Type: typeName, Field: field, Err: err}
}

// IsRegistrationError reports whether err comes from declaring a message
// type rather than from handling a payload.
func IsRegistrationError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrSchemaSealed),
		errors.Is(err, ErrDuplicateFieldName),
		errors.Is(err, ErrUnsupportedType),
		errors.Is(err, ErrArrayElementTypeRequired),
		errors.Is(err, ErrNestedArrayNotAllowed),
		errors.Is(err, ErrOptionalArrayNotAllowed),
		errors.Is(err, ErrTypeMismatch),
		errors.Is(err, ErrInvalidFieldName),
		errors.Is(err, ErrInvalidInheritance):
		return true
	}
	return false
}
