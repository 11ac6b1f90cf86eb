package protolite

import (
	"sync"

	"github.com/glimte/protolite-go/contracts"
	"github.com/glimte/protolite-go/metadata"
	"github.com/glimte/protolite-go/schema"
)

var (
	defaultClient     *Client
	defaultClientOnce sync.Once
)

// Default returns the process-wide client backed by metadata.Default
func Default() *Client {
	defaultClientOnce.Do(func() {
		defaultClient = NewClient(WithRegistry(metadata.Default()))
	})
	return defaultClient
}

// Declare returns the descriptor for ref from the process-wide registry
func Declare(ref metadata.TypeRef) *metadata.MessageDescriptor {
	return Default().Declare(ref)
}

// RegisterField declares a field on ref in the process-wide registry
func RegisterField(ref metadata.TypeRef, name string, inferred metadata.TypeRef, opts ...metadata.FieldOption) error {
	return Default().RegisterField(ref, name, inferred, opts...)
}

// Encode encodes payload as ref using the process-wide client
func Encode(ref metadata.TypeRef, payload map[string]any) ([]byte, error) {
	return Default().Encode(ref, payload)
}

// Decode decodes data as ref using the process-wide client
func Decode(ref metadata.TypeRef, data []byte) (*contracts.Message, error) {
	return Default().Decode(ref, data)
}

// CollectSchema exports the schema of ref from the process-wide registry
func CollectSchema(ref metadata.TypeRef) (*schema.Schema, error) {
	return Default().CollectSchema(ref)
}

// Checksum returns the structural digest of ref from the process-wide registry
func Checksum(ref metadata.TypeRef) (schema.Digest, error) {
	return Default().Checksum(ref)
}

// ResetRegistry clears the process-wide registry
func ResetRegistry() {
	Default().ResetRegistry()
}
