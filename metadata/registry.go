package metadata

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/glimte/protolite-go/codecs"
	"github.com/glimte/protolite-go/contracts"
)

// Registry maps type identities to their message descriptors. Lookups and
// inserts are safe for concurrent use.
type Registry struct {
	descriptors map[TypeRef]*MessageDescriptor
	codecs      *codecs.Registry
	logger      *slog.Logger
	mu          sync.RWMutex
	sealMu      sync.Mutex
}

// RegistryOption configures a registry
type RegistryOption func(*Registry)

// WithCodecRegistry sets the codec registry consulted for codec-backed types
func WithCodecRegistry(c *codecs.Registry) RegistryOption {
	return func(r *Registry) {
		r.codecs = c
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a new descriptor registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		descriptors: make(map[TypeRef]*MessageDescriptor),
		codecs:      codecs.Default(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.codecs == nil {
		r.codecs = codecs.Default()
	}

	return r
}

// Declare returns the descriptor for ref, creating it on first use
func (r *Registry) Declare(ref TypeRef) *MessageDescriptor {
	if d, ok := r.lookup(ref); ok {
		return d
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.descriptors[ref]; ok {
		return d
	}
	d := newMessageDescriptor(ref, r)
	r.descriptors[ref] = d

	r.logger.Debug("message type declared", "type", ref.name)
	return d
}

// Lookup returns the descriptor for ref
func (r *Registry) Lookup(ref TypeRef) (*MessageDescriptor, error) {
	d, ok := r.lookup(ref)
	if !ok {
		return nil, contracts.NewSchemaError("lookup", ref.name, "", contracts.ErrNoMetadata)
	}
	return d, nil
}

// Has reports whether ref has a descriptor
func (r *Registry) Has(ref TypeRef) bool {
	_, ok := r.lookup(ref)
	return ok
}

func (r *Registry) lookup(ref TypeRef) (*MessageDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.descriptors[ref]
	return d, ok
}

// ListTypes returns all declared type names, sorted
func (r *Registry) ListTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.descriptors))
	for ref := range r.descriptors {
		types = append(types, ref.name)
	}
	sort.Strings(types)

	return types
}

// Codecs returns the codec registry used for type resolution
func (r *Registry) Codecs() *codecs.Registry {
	return r.codecs
}

// Logger returns the registry logger
func (r *Registry) Logger() *slog.Logger {
	return r.logger
}

// Reset forgets every descriptor. Descriptors obtained earlier keep working
// but are no longer reachable through the registry.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.descriptors = make(map[TypeRef]*MessageDescriptor)
	r.logger.Debug("registry reset")
}

// Global registry instance
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry
func Default() *Registry {
	return defaultRegistry
}

// Declare returns the descriptor for ref from the process-wide registry
func Declare(ref TypeRef) *MessageDescriptor {
	return defaultRegistry.Declare(ref)
}

// Reset clears the process-wide registry
func Reset() {
	defaultRegistry.Reset()
}
