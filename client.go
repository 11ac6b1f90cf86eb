// Copyright 2024 Protolite Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protolite

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/glimte/protolite-go/codecs"
	"github.com/glimte/protolite-go/contracts"
	"github.com/glimte/protolite-go/metadata"
	"github.com/glimte/protolite-go/schema"
	"github.com/glimte/protolite-go/wire"
	"github.com/prometheus/client_golang/prometheus"
)

// Client provides the main entry point for protolite
type Client struct {
	registry *metadata.Registry
	logger   *slog.Logger
	metrics  *Metrics
}

// NewClient creates a new client. Without WithRegistry it owns a fresh
// descriptor registry and codec registry. With WithRegistry and no
// WithLogger it logs through the registry logger.
func NewClient(options ...ClientOption) *Client {
	cfg := &clientConfig{}

	for _, opt := range options {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
		if cfg.registry != nil {
			cfg.logger = cfg.registry.Logger()
		}
	}

	registry := cfg.registry
	if registry == nil {
		if cfg.codecs == nil {
			cfg.codecs = codecs.NewRegistry()
		}
		registry = metadata.NewRegistry(
			metadata.WithLogger(cfg.logger),
			metadata.WithCodecRegistry(cfg.codecs),
		)
	}

	var m *Metrics
	if cfg.metricsRegisterer != nil {
		m = NewMetrics(cfg.metricsRegisterer)
	}

	return &Client{
		registry: registry,
		logger:   cfg.logger,
		metrics:  m,
	}
}

// Registry returns the descriptor registry
func (c *Client) Registry() *metadata.Registry {
	return c.registry
}

// Metrics returns the client collectors, or nil without WithMetrics
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// Declare returns the descriptor for ref, creating it on first use
func (c *Client) Declare(ref metadata.TypeRef) *metadata.MessageDescriptor {
	return c.registry.Declare(ref)
}

// RegisterField declares a field on the message type ref
func (c *Client) RegisterField(ref metadata.TypeRef, name string, inferred metadata.TypeRef, opts ...metadata.FieldOption) error {
	return c.registry.Declare(ref).Field(name, inferred, opts...)
}

// RegisterCodec binds a codec to every field declared with the named type
func (c *Client) RegisterCodec(typeName string, codec codecs.FieldCodec) {
	c.registry.Codecs().Register(typeName, codec)
}

// CompiledSchema seals ref and returns its wire schema
func (c *Client) CompiledSchema(ref metadata.TypeRef) (*wire.Schema, error) {
	d, err := c.registry.Lookup(ref)
	if err != nil {
		return nil, err
	}
	return d.Seal()
}

// Encode applies the codec overlay to payload, verifies it against the
// sealed schema of ref and marshals it. payload is not modified.
func (c *Client) Encode(ref metadata.TypeRef, payload map[string]any) ([]byte, error) {
	data, err := c.encode(ref, payload)
	c.metrics.observeEncode(ref.Name(), len(data), err)
	if err != nil {
		c.logger.Warn("encode failed", "type", ref.Name(), "error", err)
		return nil, err
	}
	return data, nil
}

func (c *Client) encode(ref metadata.TypeRef, payload map[string]any) ([]byte, error) {
	if payload == nil {
		return nil, contracts.NewSchemaError("encode", ref.Name(), "", contracts.ErrNilPayload)
	}

	d, err := c.registry.Lookup(ref)
	if err != nil {
		return nil, err
	}
	s, err := d.Seal()
	if err != nil {
		return nil, err
	}

	transformed, err := metadata.ApplyEncodeCodecs(d, payload)
	if err != nil {
		return nil, err
	}
	if err := s.Verify(transformed); err != nil {
		return nil, wrap("verify", ref, err)
	}

	data, err := s.Encode(transformed)
	if err != nil {
		return nil, wrap("encode", ref, err)
	}
	return data, nil
}

// EncodeMessage encodes a previously decoded message as its own type
func (c *Client) EncodeMessage(msg *contracts.Message) ([]byte, error) {
	if msg == nil {
		return nil, contracts.NewSchemaError("encode", "", "", contracts.ErrNilPayload)
	}
	return c.Encode(metadata.Named(msg.TypeName()), msg.Values())
}

// Decode unmarshals data as ref, decodes codec fields and tags the result
// and every nested message with its type.
func (c *Client) Decode(ref metadata.TypeRef, data []byte) (*contracts.Message, error) {
	msg, err := c.decode(ref, data)
	c.metrics.observeDecode(ref.Name(), len(data), err)
	if err != nil {
		c.logger.Warn("decode failed", "type", ref.Name(), "error", err)
		return nil, err
	}
	return msg, nil
}

func (c *Client) decode(ref metadata.TypeRef, data []byte) (*contracts.Message, error) {
	d, err := c.registry.Lookup(ref)
	if err != nil {
		return nil, err
	}
	s, err := d.Seal()
	if err != nil {
		return nil, err
	}

	tree, err := s.Decode(data)
	if err != nil {
		return nil, wrap("decode", ref, err)
	}
	if err := metadata.ApplyDecodeCodecs(d, tree); err != nil {
		return nil, err
	}
	return metadata.RestoreIdentity(d, tree)
}

// CollectSchema exports the structural schema of ref
func (c *Client) CollectSchema(ref metadata.TypeRef) (*schema.Schema, error) {
	d, err := c.registry.Lookup(ref)
	if err != nil {
		return nil, err
	}
	return schema.Collect(d)
}

// Checksum returns the structural digest of ref
func (c *Client) Checksum(ref metadata.TypeRef) (schema.Digest, error) {
	d, err := c.registry.Lookup(ref)
	if err != nil {
		return schema.Digest{}, err
	}
	return schema.Checksum(d)
}

// JSONSchema generates a draft-07 JSON schema for ref
func (c *Client) JSONSchema(ref metadata.TypeRef) (json.RawMessage, error) {
	d, err := c.registry.Lookup(ref)
	if err != nil {
		return nil, err
	}
	return schema.NewJSONSchemaGenerator().Generate(d)
}

// ResetRegistry forgets every declared message type
func (c *Client) ResetRegistry() {
	c.registry.Reset()
}

// wrap adds operation and type context to wire engine errors
func wrap(op string, ref metadata.TypeRef, err error) error {
	var se *contracts.SchemaError
	if errors.As(err, &se) {
		return err
	}
	return contracts.NewSchemaError(op, ref.Name(), "", err)
}

// clientConfig holds client configuration
type clientConfig struct {
	logger            *slog.Logger
	registry          *metadata.Registry
	codecs            *codecs.Registry
	metricsRegisterer prometheus.Registerer
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

// WithLogger sets the logger for all components
func WithLogger(logger *slog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// WithDefaultLogger uses the default logger
func WithDefaultLogger() ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = slog.Default()
	}
}

// WithRegistry shares an existing descriptor registry. The registry keeps
// its own logger and codecs, and the client logs through that logger
// unless WithLogger is given.
func WithRegistry(r *metadata.Registry) ClientOption {
	return func(cfg *clientConfig) {
		cfg.registry = r
	}
}

// WithCodecs sets the codec registry of the client's own descriptor registry
func WithCodecs(r *codecs.Registry) ClientOption {
	return func(cfg *clientConfig) {
		cfg.codecs = r
	}
}

// WithMetrics registers Prometheus collectors for encode and decode calls
func WithMetrics(reg prometheus.Registerer) ClientOption {
	return func(cfg *clientConfig) {
		cfg.metricsRegisterer = reg
	}
}
