package wire

import (
	"fmt"
	"strings"

	"github.com/glimte/protolite-go/contracts"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

const packageName = "protolite"

// Field is one compiled field. Tag is zero-based; the protobuf field number
// is Tag+1.
type Field struct {
	Name    string
	Tag     int
	Kind    Kind
	Rule    Rule
	Message string // referenced type name when Kind is KindMessage
}

// Definition is the flattened field list of one message type
type Definition struct {
	Name   string
	Fields []Field
}

// Schema is an immutable compiled message schema. It is safe for
// concurrent use.
type Schema struct {
	name    string
	fields  []Field
	nested  []string
	root    *layout
	layouts map[protoreflect.FullName]*layout
}

type layout struct {
	md     protoreflect.MessageDescriptor
	fields []layoutField
}

type layoutField struct {
	Field
	fd protoreflect.FieldDescriptor
}

// Compile builds the schema for root. nested must contain the definition
// of every message type reachable from root; duplicates by name are ignored.
func Compile(root Definition, nested ...Definition) (*Schema, error) {
	defs := make([]Definition, 0, 1+len(nested))
	defs = append(defs, root)
	seen := map[string]bool{root.Name: true}
	nestedNames := make([]string, 0, len(nested))
	for _, d := range nested {
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		defs = append(defs, d)
		nestedNames = append(nestedNames, d.Name)
	}

	taken := make(map[string]bool, len(defs))
	idents := make(map[string]string, len(defs))
	for _, d := range defs {
		idents[d.Name] = uniqueIdent(d.Name, taken)
	}

	messages := make([]*descriptorpb.DescriptorProto, 0, len(defs))
	for _, d := range defs {
		mp, err := messageProto(d, idents)
		if err != nil {
			return nil, err
		}
		messages = append(messages, mp)
	}

	fdp := &descriptorpb.FileDescriptorProto{
		Name:        proto.String(packageName + "/" + idents[root.Name] + ".proto"),
		Package:     proto.String(packageName),
		Syntax:      proto.String("proto2"),
		MessageType: messages,
	}
	fd, err := protodesc.NewFile(fdp, new(protoregistry.Files))
	if err != nil {
		return nil, fmt.Errorf("wire: compile %s: %w", root.Name, err)
	}

	s := &Schema{
		name:    root.Name,
		fields:  append([]Field(nil), root.Fields...),
		nested:  nestedNames,
		layouts: make(map[protoreflect.FullName]*layout, len(defs)),
	}
	for _, d := range defs {
		md := fd.Messages().ByName(protoreflect.Name(idents[d.Name]))
		l := &layout{md: md, fields: make([]layoutField, 0, len(d.Fields))}
		for _, f := range d.Fields {
			l.fields = append(l.fields, layoutField{Field: f, fd: md.Fields().ByNumber(protoreflect.FieldNumber(f.Tag + 1))})
		}
		s.layouts[md.FullName()] = l
		if d.Name == root.Name {
			s.root = l
		}
	}
	return s, nil
}

func messageProto(d Definition, idents map[string]string) (*descriptorpb.DescriptorProto, error) {
	mp := &descriptorpb.DescriptorProto{Name: proto.String(idents[d.Name])}
	names := make(map[string]bool, len(d.Fields))
	tags := make(map[int]bool, len(d.Fields))

	for _, f := range d.Fields {
		if names[f.Name] {
			return nil, contracts.NewSchemaError("compile", d.Name, f.Name, contracts.ErrDuplicateFieldName)
		}
		names[f.Name] = true
		if f.Tag < 0 || tags[f.Tag] {
			return nil, contracts.NewSchemaError("compile", d.Name, f.Name, fmt.Errorf("wire: invalid tag %d", f.Tag))
		}
		tags[f.Tag] = true

		typ, ok := f.Kind.protoType()
		if !ok {
			return nil, contracts.NewSchemaError("compile", d.Name, f.Name, contracts.ErrUnsupportedType)
		}
		label, ok := f.Rule.protoLabel()
		if !ok {
			return nil, contracts.NewSchemaError("compile", d.Name, f.Name, fmt.Errorf("wire: invalid rule %d", f.Rule))
		}

		fp := &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(fmt.Sprintf("field_%d", f.Tag)),
			Number: proto.Int32(int32(f.Tag + 1)),
			Label:  label.Enum(),
			Type:   typ.Enum(),
		}
		if f.Kind == KindMessage {
			ident, ok := idents[f.Message]
			if !ok {
				return nil, contracts.NewSchemaError("compile", d.Name, f.Name,
					fmt.Errorf("%w: message type %s has no definition", contracts.ErrUnsupportedType, f.Message))
			}
			fp.TypeName = proto.String("." + packageName + "." + ident)
		}
		mp.Field = append(mp.Field, fp)
	}
	return mp, nil
}

// uniqueIdent turns a type name into a protobuf identifier not yet in taken.
func uniqueIdent(name string, taken map[string]bool) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	base := b.String()
	if base == "" || (base[0] >= '0' && base[0] <= '9') {
		base = "M" + base
	}

	id := base
	for i := 1; taken[id]; i++ {
		id = fmt.Sprintf("%s_%d", base, i)
	}
	taken[id] = true
	return id
}

// Name returns the root message type name
func (s *Schema) Name() string {
	return s.name
}

// Fields returns the root fields in tag order
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// NestedTypes returns the names of the message types compiled alongside the root
func (s *Schema) NestedTypes() []string {
	return append([]string(nil), s.nested...)
}

// Descriptor returns the protobuf descriptor of the root message
func (s *Schema) Descriptor() protoreflect.MessageDescriptor {
	return s.root.md
}
