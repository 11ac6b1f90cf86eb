package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/glimte/protolite-go/metadata"
)

const refPrefix = "ref:"

// FieldSummary is the structural description of one field: its wire kind
// (or a reference to a collected type) and its rule. Names are left out.
type FieldSummary struct {
	Kind string `json:"kind" cbor:"1,keyasint"`
	Rule string `json:"rule" cbor:"2,keyasint"`
}

// Ref reports the referenced type index when the field is a nested message
func (f FieldSummary) Ref() (int, bool) {
	if !strings.HasPrefix(f.Kind, refPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(f.Kind, refPrefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// TypeDefinition summarizes the flattened fields of one referenced type
type TypeDefinition struct {
	Fields []FieldSummary `json:"fields" cbor:"1,keyasint"`
}

// Schema is the exported shape of a message type and every message type
// reachable from it. ReferencedTypes is ordered by first discovery.
type Schema struct {
	ReferencedTypes []TypeDefinition `json:"referencedTypes" cbor:"1,keyasint"`
	RootFields      []FieldSummary   `json:"rootFields" cbor:"2,keyasint"`
}

// Collect exports the shape of d. Nested message fields are summarized as
// ref:<n> pointers into ReferencedTypes, so shared and cyclic types appear
// once. Collect reads the declarations and does not seal anything.
func Collect(d *metadata.MessageDescriptor) (*Schema, error) {
	rootFields, err := d.ResolvedFields()
	if err != nil {
		return nil, err
	}

	c := &collector{index: make(map[*metadata.MessageDescriptor]int)}
	if err := c.discover(rootFields); err != nil {
		return nil, err
	}

	s := &Schema{
		ReferencedTypes: make([]TypeDefinition, len(c.fields)),
		RootFields:      c.summarize(rootFields),
	}
	for i, fields := range c.fields {
		s.ReferencedTypes[i] = TypeDefinition{Fields: c.summarize(fields)}
	}
	return s, nil
}

type collector struct {
	index  map[*metadata.MessageDescriptor]int
	fields [][]metadata.ResolvedField
}

func (c *collector) discover(fields []metadata.ResolvedField) error {
	for _, f := range fields {
		if f.Kind() != metadata.KindNestedMessage {
			continue
		}
		n := f.Nested()
		if _, seen := c.index[n]; seen {
			continue
		}

		nested, err := n.ResolvedFields()
		if err != nil {
			return err
		}
		c.index[n] = len(c.fields)
		c.fields = append(c.fields, nested)

		if err := c.discover(nested); err != nil {
			return err
		}
	}
	return nil
}

func (c *collector) summarize(fields []metadata.ResolvedField) []FieldSummary {
	out := make([]FieldSummary, len(fields))
	for i, f := range fields {
		kind := f.WireKind().String()
		if f.Kind() == metadata.KindNestedMessage {
			kind = fmt.Sprintf("%s%d", refPrefix, c.index[f.Nested()])
		}
		out[i] = FieldSummary{Kind: kind, Rule: f.Rule().String()}
	}
	return out
}
