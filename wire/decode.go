package wire

import (
	"fmt"

	"github.com/glimte/protolite-go/contracts"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

var unmarshalOptions = proto.UnmarshalOptions{AllowPartial: true}

// Decode unmarshals data into a plain value tree. Repeated fields are always
// present; absent singular fields are omitted.
func (s *Schema) Decode(data []byte) (map[string]any, error) {
	m := dynamicpb.NewMessage(s.root.md)
	if err := unmarshalOptions.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", contracts.ErrMalformedPayload, s.name, err)
	}
	if err := proto.CheckInitialized(m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", contracts.ErrVerificationFailed, s.name, err)
	}
	return s.tree(m, s.root), nil
}

func (s *Schema) tree(m protoreflect.Message, l *layout) map[string]any {
	out := make(map[string]any, len(l.fields))
	for _, f := range l.fields {
		if f.Rule == RuleRepeated {
			out[f.Name] = s.list(m.Get(f.fd).List(), f)
			continue
		}
		if !m.Has(f.fd) {
			continue
		}

		v := m.Get(f.fd)
		switch f.Kind {
		case KindString:
			out[f.Name] = v.String()
		case KindInt32:
			out[f.Name] = int32(v.Int())
		case KindBool:
			out[f.Name] = v.Bool()
		case KindBytes:
			out[f.Name] = cloneBytes(v.Bytes())
		case KindMessage:
			nested := v.Message()
			out[f.Name] = s.tree(nested, s.layouts[nested.Descriptor().FullName()])
		}
	}
	return out
}

func (s *Schema) list(list protoreflect.List, f layoutField) any {
	n := list.Len()
	switch f.Kind {
	case KindString:
		out := make([]string, n)
		for i := range out {
			out[i] = list.Get(i).String()
		}
		return out
	case KindInt32:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(list.Get(i).Int())
		}
		return out
	case KindBool:
		out := make([]bool, n)
		for i := range out {
			out[i] = list.Get(i).Bool()
		}
		return out
	case KindBytes:
		out := make([][]byte, n)
		for i := range out {
			out[i] = cloneBytes(list.Get(i).Bytes())
		}
		return out
	case KindMessage:
		out := make([]map[string]any, n)
		l := s.layouts[f.fd.Message().FullName()]
		for i := range out {
			out[i] = s.tree(list.Get(i).Message(), l)
		}
		return out
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
