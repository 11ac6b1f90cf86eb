package metadata

import (
	"github.com/glimte/protolite-go/wire"
)

type sealedState struct {
	schema *wire.Schema
	fields []ResolvedField
	codecs bool // a codec field is reachable from the type
}

// Seal compiles the descriptor into its wire schema. The first successful
// call freezes the descriptor; later calls return the cached schema. A
// failed seal leaves the descriptor unsealed.
func (d *MessageDescriptor) Seal() (*wire.Schema, error) {
	if st := d.state.Load(); st != nil {
		return st.schema, nil
	}

	r := d.registry
	r.sealMu.Lock()
	defer r.sealMu.Unlock()

	return r.seal(d, make(map[*MessageDescriptor]bool))
}

// CompiledSchema returns the wire schema, sealing the descriptor if needed
func (d *MessageDescriptor) CompiledSchema() (*wire.Schema, error) {
	return d.Seal()
}

func (r *Registry) seal(d *MessageDescriptor, inProgress map[*MessageDescriptor]bool) (*wire.Schema, error) {
	if st := d.state.Load(); st != nil {
		return st.schema, nil
	}
	inProgress[d] = true
	defer delete(inProgress, d)

	fields, err := d.flatten()
	if err != nil {
		return nil, err
	}

	graph, err := reachable(d)
	if err != nil {
		return nil, err
	}

	hasCodecs := false
	nested := make([]wire.Definition, 0, len(graph))
	for _, n := range graph {
		if containsCodec(n.fields) {
			hasCodecs = true
		}
		if n.desc == d {
			continue
		}
		nested = append(nested, definition(n.desc, n.fields))
	}

	schema, err := wire.Compile(definition(d, fields), nested...)
	if err != nil {
		return nil, err
	}

	for _, f := range fields {
		if f.kind != KindNestedMessage || inProgress[f.nested] {
			continue
		}
		if _, err := r.seal(f.nested, inProgress); err != nil {
			return nil, err
		}
	}

	d.state.Store(&sealedState{schema: schema, fields: fields, codecs: hasCodecs})

	r.logger.Debug("message type sealed",
		"type", d.Name(), "fields", len(fields), "nested", len(nested))
	return schema, nil
}

type graphNode struct {
	desc   *MessageDescriptor
	fields []ResolvedField
}

// reachable walks the type graph from d depth first and returns every
// distinct descriptor with its flattened fields, d first.
func reachable(d *MessageDescriptor) ([]graphNode, error) {
	seen := make(map[*MessageDescriptor]bool)
	var nodes []graphNode

	var walk func(n *MessageDescriptor) error
	walk = func(n *MessageDescriptor) error {
		if seen[n] {
			return nil
		}
		seen[n] = true

		fields, err := n.ResolvedFields()
		if err != nil {
			return err
		}
		nodes = append(nodes, graphNode{desc: n, fields: fields})

		for _, f := range fields {
			if f.kind == KindNestedMessage {
				if err := walk(f.nested); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(d); err != nil {
		return nil, err
	}
	return nodes, nil
}

func containsCodec(fields []ResolvedField) bool {
	for _, f := range fields {
		if f.codec != nil {
			return true
		}
	}
	return false
}

func definition(d *MessageDescriptor, fields []ResolvedField) wire.Definition {
	def := wire.Definition{Name: d.Name(), Fields: make([]wire.Field, 0, len(fields))}
	for _, f := range fields {
		wf := wire.Field{
			Name: f.name,
			Tag:  f.Tag,
			Kind: f.primitive,
			Rule: f.rule,
		}
		if f.nested != nil {
			wf.Message = f.nested.Name()
		}
		def.Fields = append(def.Fields, wf)
	}
	return def
}
