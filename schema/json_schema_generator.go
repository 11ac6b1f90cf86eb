package schema

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/glimte/protolite-go/metadata"
	"github.com/glimte/protolite-go/wire"
)

const draft07 = "http://json-schema.org/draft-07/schema#"

// JSONSchemaGenerator generates JSON schemas from message descriptors
type JSONSchemaGenerator struct {
	// Track types we've already emitted to stop at cycles
	seen        map[*metadata.MessageDescriptor]bool
	definitions map[string]any
	root        *metadata.MessageDescriptor
}

// NewJSONSchemaGenerator creates a new JSON schema generator
func NewJSONSchemaGenerator() *JSONSchemaGenerator {
	return &JSONSchemaGenerator{
		seen:        make(map[*metadata.MessageDescriptor]bool),
		definitions: make(map[string]any),
	}
}

// Generate generates a draft-07 JSON schema for the message type described
// by d. Nested message types are emitted under definitions and referenced
// with $ref.
func (g *JSONSchemaGenerator) Generate(d *metadata.MessageDescriptor) (json.RawMessage, error) {
	// Reset for each generation
	g.seen = map[*metadata.MessageDescriptor]bool{d: true}
	g.definitions = make(map[string]any)
	g.root = d

	schema, err := g.objectSchema(d)
	if err != nil {
		return nil, err
	}

	// Add metadata
	schema["$schema"] = draft07
	schema["title"] = d.Name()
	schema["description"] = fmt.Sprintf("Schema for %s message", d.Name())
	if len(g.definitions) > 0 {
		schema["definitions"] = g.definitions
	}

	return json.Marshal(schema)
}

func (g *JSONSchemaGenerator) objectSchema(d *metadata.MessageDescriptor) (map[string]any, error) {
	fields, err := d.ResolvedFields()
	if err != nil {
		return nil, err
	}

	properties := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))

	for _, f := range fields {
		fieldSchema, err := g.valueSchema(f)
		if err != nil {
			return nil, err
		}

		if f.Rule() == wire.RuleRepeated {
			fieldSchema = map[string]any{
				"type":  "array",
				"items": fieldSchema,
			}
		}

		properties[f.Name()] = fieldSchema
		if f.Rule() == wire.RuleRequired {
			required = append(required, f.Name())
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema, nil
}

// valueSchema describes a single value of the field, ignoring its rule
func (g *JSONSchemaGenerator) valueSchema(f metadata.ResolvedField) (map[string]any, error) {
	switch f.Kind() {
	case metadata.KindNestedMessage:
		return g.reference(f.Nested())

	case metadata.KindOpaqueCodec:
		return map[string]any{
			"type":            "string",
			"contentEncoding": "base64",
			"description":     fmt.Sprintf("%s encoded by a field codec", f.Type()),
		}, nil
	}

	switch f.WireKind() {
	case wire.KindString:
		return map[string]any{"type": "string"}, nil
	case wire.KindInt32:
		return map[string]any{
			"type":    "integer",
			"minimum": math.MinInt32,
			"maximum": math.MaxInt32,
		}, nil
	case wire.KindBool:
		return map[string]any{"type": "boolean"}, nil
	case wire.KindBytes:
		return map[string]any{"type": "string", "contentEncoding": "base64"}, nil
	default:
		// Unknown kind
		return map[string]any{
			"description": fmt.Sprintf("Unknown kind: %v", f.WireKind()),
		}, nil
	}
}

func (g *JSONSchemaGenerator) reference(d *metadata.MessageDescriptor) (map[string]any, error) {
	ref := map[string]any{"$ref": "#/definitions/" + d.Name()}

	// Check if we've seen this type before (avoid infinite recursion)
	if _, seen := g.seen[d]; seen {
		if d == g.root {
			g.definitions[d.Name()] = map[string]any{"$ref": "#"}
		}
		return ref, nil
	}
	g.seen[d] = true

	def, err := g.objectSchema(d)
	if err != nil {
		return nil, err
	}
	def["title"] = d.Name()
	g.definitions[d.Name()] = def
	return ref, nil
}
