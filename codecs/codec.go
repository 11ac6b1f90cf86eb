package codecs

import (
	"sync"
)

// FieldCodec converts a domain value the wire format cannot carry natively
// to and from bytes. Implementations must be safe for concurrent use.
type FieldCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// Registry maps declared type names to the codec used for fields of that type.
type Registry struct {
	byType map[string]FieldCodec
	mu     sync.RWMutex
}

// NewRegistry constructs a registry preloaded with the built-in codecs.
func NewRegistry() *Registry {
	r := &Registry{byType: make(map[string]FieldCodec)}
	r.Register(DateTypeName, DateCodec{})
	return r
}

// Register binds a codec to a type name, replacing any previous binding.
func (r *Registry) Register(typeName string, c FieldCodec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[typeName] = c
}

// Lookup returns the codec bound to typeName.
func (r *Registry) Lookup(typeName string) (FieldCodec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byType[typeName]
	return c, ok
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide codec registry
func Default() *Registry {
	return defaultRegistry
}
