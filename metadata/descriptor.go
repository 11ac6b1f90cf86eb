package metadata

import (
	"fmt"
	"sync/atomic"

	"github.com/glimte/protolite-go/codecs"
	"github.com/glimte/protolite-go/contracts"
	"github.com/glimte/protolite-go/wire"
)

// CodecBinding ties a codec to a field. The flags mirror the field's rule.
type CodecBinding struct {
	Codec      codecs.FieldCodec
	IsArray    bool
	IsOptional bool
}

// FieldDescriptor is one declared field
type FieldDescriptor struct {
	name      string
	declared  TypeRef
	kind      FieldKind
	primitive wire.Kind
	nested    *MessageDescriptor
	rule      wire.Rule
	codec     *CodecBinding
}

// Name returns the field name
func (f *FieldDescriptor) Name() string { return f.name }

// Type returns the resolved declared type (the element type for repeated fields)
func (f *FieldDescriptor) Type() TypeRef { return f.declared }

// Kind returns how the field reaches the wire
func (f *FieldDescriptor) Kind() FieldKind { return f.kind }

// WireKind returns the wire representation; codec fields are bytes
func (f *FieldDescriptor) WireKind() wire.Kind { return f.primitive }

// Rule returns the field cardinality
func (f *FieldDescriptor) Rule() wire.Rule { return f.rule }

// Nested returns the referenced message descriptor, or nil
func (f *FieldDescriptor) Nested() *MessageDescriptor { return f.nested }

// Codec returns the codec binding, or nil
func (f *FieldDescriptor) Codec() *CodecBinding { return f.codec }

// ResolvedField is a field of the flattened ancestor chain with its tag
type ResolvedField struct {
	*FieldDescriptor
	Tag int
}

// FieldOptions holds the per-field declaration options
type FieldOptions struct {
	Optional bool
	Type     TypeRef
	Codec    codecs.FieldCodec
}

// FieldOption configures a field declaration
type FieldOption func(*FieldOptions)

var defaultFieldOptions = FieldOptions{Optional: false}

// Optional marks the field as optional
func Optional() FieldOption {
	return func(o *FieldOptions) {
		o.Optional = true
	}
}

// OfType gives the element type of a repeated field, or the concrete type
// of a field declared as Object.
func OfType(t TypeRef) FieldOption {
	return func(o *FieldOptions) {
		o.Type = t
	}
}

// WithCodec binds a codec to the field regardless of its type
func WithCodec(c codecs.FieldCodec) FieldOption {
	return func(o *FieldOptions) {
		o.Codec = c
	}
}

// MessageDescriptor accumulates the field declarations of one message type
// until it is sealed. Registration is not synchronized; declare fields
// before concurrent use.
type MessageDescriptor struct {
	ref       TypeRef
	registry  *Registry
	fields    []*FieldDescriptor
	parent    *MessageDescriptor
	nested    []*MessageDescriptor
	nestedSet map[*MessageDescriptor]struct{}
	state     atomic.Pointer[sealedState]
}

func newMessageDescriptor(ref TypeRef, r *Registry) *MessageDescriptor {
	return &MessageDescriptor{
		ref:       ref,
		registry:  r,
		nestedSet: make(map[*MessageDescriptor]struct{}),
	}
}

// Type returns the message type identity
func (d *MessageDescriptor) Type() TypeRef { return d.ref }

// Name returns the message type name
func (d *MessageDescriptor) Name() string { return d.ref.name }

// Parent returns the ancestor descriptor, or nil
func (d *MessageDescriptor) Parent() *MessageDescriptor { return d.parent }

// Sealed reports whether the descriptor has been compiled
func (d *MessageDescriptor) Sealed() bool { return d.state.Load() != nil }

// Fields returns the fields declared on this type, excluding ancestors
func (d *MessageDescriptor) Fields() []*FieldDescriptor {
	return append([]*FieldDescriptor(nil), d.fields...)
}

// NestedTypes returns the message types referenced by fields declared on
// this type, in first-reference order
func (d *MessageDescriptor) NestedTypes() []*MessageDescriptor {
	return append([]*MessageDescriptor(nil), d.nested...)
}

// Extends makes parent the ancestor of d. Its fields come first in the
// flattened field list.
func (d *MessageDescriptor) Extends(parent TypeRef) error {
	if d.Sealed() {
		return contracts.NewSchemaError("extend", d.Name(), "", contracts.ErrSchemaSealed)
	}
	if parent == d.ref {
		return contracts.NewSchemaError("extend", d.Name(), "",
			fmt.Errorf("%w: type cannot extend itself", contracts.ErrInvalidInheritance))
	}

	p := d.registry.Declare(parent)
	for a := p; a != nil; a = a.parent {
		if a == d {
			return contracts.NewSchemaError("extend", d.Name(), "",
				fmt.Errorf("%w: %s already descends from %s", contracts.ErrInvalidInheritance, parent, d.ref))
		}
	}

	d.parent = p
	return nil
}

// Field declares a field. inferred is the declared type of the field;
// Array requires OfType. Duplicate names across the ancestor chain are
// reported when the type is sealed.
func (d *MessageDescriptor) Field(name string, inferred TypeRef, opts ...FieldOption) error {
	if d.Sealed() {
		return d.fieldError(name, contracts.ErrSchemaSealed)
	}
	if name == "" {
		return d.fieldError(name, fmt.Errorf("%w: name cannot be empty", contracts.ErrInvalidFieldName))
	}
	if inferred.IsZero() {
		return d.fieldError(name, fmt.Errorf("%w: type cannot be undefined", contracts.ErrUnsupportedType))
	}

	o := defaultFieldOptions
	for _, opt := range opts {
		opt(&o)
	}

	if inferred.class == classSymbol {
		return d.fieldError(name, fmt.Errorf("%w: %s is not serializable", contracts.ErrUnsupportedType, inferred))
	}

	isArray := inferred.IsArray()
	if isArray && o.Optional {
		return d.fieldError(name, contracts.ErrOptionalArrayNotAllowed)
	}

	t := inferred
	if isArray {
		if o.Type.IsZero() {
			return d.fieldError(name, contracts.ErrArrayElementTypeRequired)
		}
		if o.Type.IsArray() {
			return d.fieldError(name, contracts.ErrNestedArrayNotAllowed)
		}
		t = o.Type
	} else if !o.Type.IsZero() && o.Type != inferred {
		if inferred.class != classObject {
			return d.fieldError(name, fmt.Errorf("%w: %s != %s", contracts.ErrTypeMismatch, o.Type, inferred))
		}
		t = o.Type
	}

	res, err := d.registry.resolve(t, o.Codec)
	if err != nil {
		return d.fieldError(name, err)
	}

	f := &FieldDescriptor{
		name:      name,
		declared:  t,
		kind:      res.kind,
		primitive: res.primitive,
		nested:    res.nested,
		rule:      ruleFor(isArray, o.Optional),
	}
	if res.kind == KindOpaqueCodec {
		f.codec = &CodecBinding{Codec: res.codec, IsArray: isArray, IsOptional: o.Optional}
	}
	if res.kind == KindNestedMessage {
		d.addNested(res.nested)
	}
	d.fields = append(d.fields, f)

	d.registry.logger.Debug("field registered",
		"type", d.Name(), "field", name, "kind", f.kind.String(), "rule", f.rule.String())
	return nil
}

// MustField is like Field but panics on error. It is meant for package
// initialization.
func (d *MessageDescriptor) MustField(name string, inferred TypeRef, opts ...FieldOption) *MessageDescriptor {
	if err := d.Field(name, inferred, opts...); err != nil {
		panic(err)
	}
	return d
}

func (d *MessageDescriptor) addNested(n *MessageDescriptor) {
	if _, ok := d.nestedSet[n]; ok {
		return
	}
	d.nestedSet[n] = struct{}{}
	d.nested = append(d.nested, n)
}

func (d *MessageDescriptor) fieldError(name string, err error) error {
	return contracts.NewSchemaError("register field", d.Name(), name, err)
}

func ruleFor(isArray, optional bool) wire.Rule {
	switch {
	case isArray:
		return wire.RuleRepeated
	case optional:
		return wire.RuleOptional
	default:
		return wire.RuleRequired
	}
}

// ResolvedFields returns the flattened field list: the oldest ancestor's
// fields first, each level in declaration order, tagged 0..N-1.
func (d *MessageDescriptor) ResolvedFields() ([]ResolvedField, error) {
	if st := d.state.Load(); st != nil {
		return append([]ResolvedField(nil), st.fields...), nil
	}
	return d.flatten()
}

// chain returns the ancestor chain, root first, ending with d.
func (d *MessageDescriptor) chain() []*MessageDescriptor {
	var chain []*MessageDescriptor
	for a := d; a != nil; a = a.parent {
		chain = append(chain, a)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func (d *MessageDescriptor) flatten() ([]ResolvedField, error) {
	var out []ResolvedField
	declaredBy := make(map[string]string)

	for _, level := range d.chain() {
		for _, f := range level.fields {
			if owner, dup := declaredBy[f.name]; dup {
				return nil, contracts.NewSchemaError("flatten", d.Name(), f.name,
					fmt.Errorf("%w: declared by %s and %s", contracts.ErrDuplicateFieldName, owner, level.Name()))
			}
			declaredBy[f.name] = level.Name()
			out = append(out, ResolvedField{FieldDescriptor: f, Tag: len(out)})
		}
	}
	return out, nil
}
