package schema

import (
	"fmt"

	cbor "github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	opts := cbor.CanonicalEncOptions()
	opts.NilContainers = cbor.NilContainerAsEmpty

	var err error
	if encMode, err = opts.EncMode(); err != nil {
		panic(fmt.Sprintf("schema: cbor encoder: %v", err))
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(fmt.Sprintf("schema: cbor decoder: %v", err))
	}
}

// MarshalCanonical encodes s as canonical CBOR. Equal schemas always
// produce equal bytes.
func MarshalCanonical(s *Schema) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("schema: nil schema")
	}
	return encMode.Marshal(s)
}

// UnmarshalCanonical decodes a schema written by MarshalCanonical
func UnmarshalCanonical(data []byte) (*Schema, error) {
	var s Schema
	if err := decMode.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("schema: decode export: %w", err)
	}
	return &s, nil
}
