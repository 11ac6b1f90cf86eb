package wire

import (
	"fmt"
	"math"
	"reflect"

	"github.com/glimte/protolite-go/contracts"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

var marshalOptions = proto.MarshalOptions{Deterministic: true}

// Verify checks that payload matches the schema shape.
func (s *Schema) Verify(payload map[string]any) error {
	_, err := s.build(payload)
	return err
}

// Encode verifies payload and marshals it.
func (s *Schema) Encode(payload map[string]any) ([]byte, error) {
	m, err := s.build(payload)
	if err != nil {
		return nil, err
	}

	data, err := marshalOptions.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", contracts.ErrVerificationFailed, s.name, err)
	}
	return data, nil
}

func (s *Schema) build(payload map[string]any) (*dynamicpb.Message, error) {
	if payload == nil {
		return nil, contracts.ErrNilPayload
	}

	m := dynamicpb.NewMessage(s.root.md)
	if err := s.fill(m, s.root, payload, ""); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Schema) fill(m protoreflect.Message, l *layout, values map[string]any, path string) error {
	for _, f := range l.fields {
		fieldPath := joinPath(path, f.Name)
		v, ok := values[f.Name]
		if !ok || isNil(v) {
			if f.Rule == RuleRequired {
				return verifyError(fieldPath, "missing required field")
			}
			continue
		}

		switch {
		case f.Rule == RuleRepeated:
			if err := s.fillList(m.Mutable(f.fd).List(), f, v, fieldPath); err != nil {
				return err
			}
		case f.Kind == KindMessage:
			if err := s.fillMessage(m.Mutable(f.fd).Message(), v, fieldPath); err != nil {
				return err
			}
		default:
			pv, err := scalar(f.Kind, v, fieldPath)
			if err != nil {
				return err
			}
			m.Set(f.fd, pv)
		}
	}
	return nil
}

func (s *Schema) fillList(list protoreflect.List, f layoutField, v any, path string) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return verifyError(path, "array expected")
	}

	for i := 0; i < rv.Len(); i++ {
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		elem := rv.Index(i).Interface()

		if f.Kind == KindMessage {
			ev := list.NewElement()
			if err := s.fillMessage(ev.Message(), elem, elemPath); err != nil {
				return err
			}
			list.Append(ev)
			continue
		}

		ev, err := scalar(f.Kind, elem, elemPath)
		if err != nil {
			return err
		}
		list.Append(ev)
	}
	return nil
}

func (s *Schema) fillMessage(m protoreflect.Message, v any, path string) error {
	values, ok := asValues(v)
	if !ok {
		return verifyError(path, fmt.Sprintf("object expected, got %T", v))
	}
	return s.fill(m, s.layouts[m.Descriptor().FullName()], values, path)
}

func asValues(v any) (map[string]any, bool) {
	if isNil(v) {
		return nil, false
	}
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case contracts.Valuer:
		return val.Values(), true
	default:
		return nil, false
	}
}

func scalar(kind Kind, v any, path string) (protoreflect.Value, error) {
	rv := reflect.ValueOf(v)

	switch kind {
	case KindString:
		if rv.Kind() == reflect.String {
			return protoreflect.ValueOfString(rv.String()), nil
		}
		return protoreflect.Value{}, verifyError(path, fmt.Sprintf("string expected, got %T", v))

	case KindInt32:
		n, ok := toInt32(rv)
		if !ok {
			return protoreflect.Value{}, verifyError(path, fmt.Sprintf("integer expected, got %T", v))
		}
		return protoreflect.ValueOfInt32(n), nil

	case KindBool:
		if rv.Kind() == reflect.Bool {
			return protoreflect.ValueOfBool(rv.Bool()), nil
		}
		return protoreflect.Value{}, verifyError(path, fmt.Sprintf("boolean expected, got %T", v))

	case KindBytes:
		if b, ok := v.([]byte); ok {
			return protoreflect.ValueOfBytes(b), nil
		}
		return protoreflect.Value{}, verifyError(path, fmt.Sprintf("buffer expected, got %T", v))
	}

	return protoreflect.Value{}, verifyError(path, fmt.Sprintf("unsupported kind %s", kind))
}

// toInt32 truncates any Go integer to 32 bits. Floats are accepted only
// when integral.
func toInt32(rv reflect.Value) (int32, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int32(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int32(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int32(int64(f)), true
	}
	return 0, false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func verifyError(path, reason string) error {
	return fmt.Errorf("%w: %s: %s", contracts.ErrVerificationFailed, path, reason)
}
