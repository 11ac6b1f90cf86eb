package metadata

import (
	"fmt"

	"github.com/glimte/protolite-go/codecs"
	"github.com/glimte/protolite-go/contracts"
	"github.com/glimte/protolite-go/wire"
)

// FieldKind says how a field value reaches the wire
type FieldKind int

const (
	KindPrimitive FieldKind = iota + 1
	KindNestedMessage
	KindOpaqueCodec
)

func (k FieldKind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindNestedMessage:
		return "message"
	case KindOpaqueCodec:
		return "codec"
	default:
		return "unknown"
	}
}

var primitives = map[typeClass]wire.Kind{
	classString:  wire.KindString,
	classNumber:  wire.KindInt32,
	classBoolean: wire.KindBool,
	classBuffer:  wire.KindBytes,
}

type resolution struct {
	kind      FieldKind
	primitive wire.Kind
	nested    *MessageDescriptor
	codec     codecs.FieldCodec
}

// resolve maps a declared type to a field kind. Codecs win over message
// descriptors, which win over the primitive table.
func (r *Registry) resolve(t TypeRef, override codecs.FieldCodec) (resolution, error) {
	if t.class == classSymbol {
		return resolution{}, fmt.Errorf("%w: %s is not serializable", contracts.ErrUnsupportedType, t)
	}

	if override != nil {
		return resolution{kind: KindOpaqueCodec, primitive: wire.KindBytes, codec: override}, nil
	}
	if c, ok := r.codecs.Lookup(t.name); ok {
		return resolution{kind: KindOpaqueCodec, primitive: wire.KindBytes, codec: c}, nil
	}

	if t.class == classNamed {
		if d, ok := r.lookup(t); ok {
			return resolution{kind: KindNestedMessage, primitive: wire.KindMessage, nested: d}, nil
		}
	}

	if k, ok := primitives[t.class]; ok {
		return resolution{kind: KindPrimitive, primitive: k}, nil
	}

	if t.class == classObject {
		return resolution{}, fmt.Errorf("%w: untyped object requires an explicit OfType", contracts.ErrUnsupportedType)
	}
	return resolution{}, fmt.Errorf("%w: couldn't lookup type %s", contracts.ErrUnsupportedType, t)
}
