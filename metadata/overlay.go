package metadata

import (
	"errors"
	"fmt"
	"maps"
	"reflect"

	"github.com/glimte/protolite-go/contracts"
	"github.com/glimte/protolite-go/wire"
)

// codecView returns the flattened fields of d and whether any codec field
// is reachable from it.
func (d *MessageDescriptor) codecView() ([]ResolvedField, bool, error) {
	if st := d.state.Load(); st != nil {
		return st.fields, st.codecs, nil
	}

	graph, err := reachable(d)
	if err != nil {
		return nil, false, err
	}
	for _, n := range graph {
		if containsCodec(n.fields) {
			return graph[0].fields, true, nil
		}
	}
	return graph[0].fields, false, nil
}

// ApplyEncodeCodecs replaces every codec-bound value with its encoded bytes.
// payload is never mutated: a shallow copy is returned, or payload itself
// when no codec field is reachable from d.
func ApplyEncodeCodecs(d *MessageDescriptor, payload map[string]any) (map[string]any, error) {
	fields, hasCodecs, err := d.codecView()
	if err != nil {
		return nil, err
	}
	if !hasCodecs {
		return payload, nil
	}
	return encodeCodecs(d, fields, payload)
}

func encodeCodecs(d *MessageDescriptor, fields []ResolvedField, payload map[string]any) (map[string]any, error) {
	out := maps.Clone(payload)

	for _, f := range fields {
		v, present := presentValue(out, f.name)

		switch {
		case f.codec != nil && f.codec.IsArray:
			if !present {
				continue
			}
			encoded, err := encodeEach(d, f, v)
			if err != nil {
				return nil, err
			}
			out[f.name] = encoded

		case f.codec != nil:
			if !present {
				if f.codec.IsOptional {
					continue
				}
				return nil, contracts.NewSchemaError("encode", d.Name(), f.name, contracts.ErrRequiredFieldMissing)
			}
			b, err := f.codec.Codec.Encode(v)
			if err != nil {
				return nil, codecError("encode", d, f.name, err)
			}
			out[f.name] = b

		case f.kind == KindNestedMessage && present:
			nested, err := encodeNested(f, v)
			if err != nil {
				return nil, err
			}
			out[f.name] = nested
		}
	}
	return out, nil
}

func encodeEach(d *MessageDescriptor, f ResolvedField, v any) ([][]byte, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, contracts.NewSchemaError("encode", d.Name(), f.name,
			fmt.Errorf("%w: array expected, got %T", contracts.ErrVerificationFailed, v))
	}

	encoded := make([][]byte, rv.Len())
	for i := range encoded {
		b, err := f.codec.Codec.Encode(rv.Index(i).Interface())
		if err != nil {
			return nil, codecError("encode", d, fmt.Sprintf("%s[%d]", f.name, i), err)
		}
		encoded[i] = b
	}
	return encoded, nil
}

// encodeNested runs the overlay on a nested message value. Values the
// overlay cannot read are passed through for the wire engine to reject.
func encodeNested(f ResolvedField, v any) (any, error) {
	fields, hasCodecs, err := f.nested.codecView()
	if err != nil || !hasCodecs {
		return v, err
	}

	if f.rule != wire.RuleRepeated {
		values, ok := valuesOf(v)
		if !ok {
			return v, nil
		}
		return encodeCodecs(f.nested, fields, values)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return v, nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		elem := rv.Index(i).Interface()
		values, ok := valuesOf(elem)
		if !ok {
			out[i] = elem
			continue
		}
		encoded, err := encodeCodecs(f.nested, fields, values)
		if err != nil {
			return nil, err
		}
		out[i] = encoded
	}
	return out, nil
}

// ApplyDecodeCodecs decodes every codec-bound value of a freshly decoded
// tree in place. Repeated codec fields are always decoded element by
// element, so an empty list becomes an empty []any.
func ApplyDecodeCodecs(d *MessageDescriptor, tree map[string]any) error {
	fields, hasCodecs, err := d.codecView()
	if err != nil || !hasCodecs {
		return err
	}
	return decodeCodecs(d, fields, tree)
}

func decodeCodecs(d *MessageDescriptor, fields []ResolvedField, tree map[string]any) error {
	for _, f := range fields {
		v, present := presentValue(tree, f.name)

		switch {
		case f.codec != nil && f.codec.IsArray:
			if !present {
				continue
			}
			decoded, err := decodeEach(d, f, v)
			if err != nil {
				return err
			}
			tree[f.name] = decoded

		case f.codec != nil:
			if !present {
				if f.codec.IsOptional {
					continue
				}
				return contracts.NewSchemaError("decode", d.Name(), f.name, contracts.ErrRequiredFieldMissing)
			}
			b, ok := v.([]byte)
			if !ok {
				return codecError("decode", d, f.name, fmt.Errorf("expected bytes, got %T", v))
			}
			decoded, err := f.codec.Codec.Decode(b)
			if err != nil {
				return codecError("decode", d, f.name, err)
			}
			tree[f.name] = decoded

		case f.kind == KindNestedMessage && present:
			if err := decodeNested(f, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeEach(d *MessageDescriptor, f ResolvedField, v any) ([]any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, codecError("decode", d, f.name, fmt.Errorf("expected a list, got %T", v))
	}

	decoded := make([]any, rv.Len())
	for i := range decoded {
		path := fmt.Sprintf("%s[%d]", f.name, i)
		b, ok := rv.Index(i).Interface().([]byte)
		if !ok {
			return nil, codecError("decode", d, path, fmt.Errorf("expected bytes, got %s", rv.Index(i).Type()))
		}
		out, err := f.codec.Codec.Decode(b)
		if err != nil {
			return nil, codecError("decode", d, path, err)
		}
		decoded[i] = out
	}
	return decoded, nil
}

func decodeNested(f ResolvedField, v any) error {
	fields, hasCodecs, err := f.nested.codecView()
	if err != nil || !hasCodecs {
		return err
	}

	switch val := v.(type) {
	case map[string]any:
		return decodeCodecs(f.nested, fields, val)
	case []map[string]any:
		for _, item := range val {
			if err := decodeCodecs(f.nested, fields, item); err != nil {
				return err
			}
		}
	case contracts.Valuer:
		return decodeCodecs(f.nested, fields, val.Values())
	}
	return nil
}

func presentValue(values map[string]any, name string) (any, bool) {
	v, ok := values[name]
	if !ok || isNil(v) {
		return nil, false
	}
	return v, true
}

// isNil reports untyped and typed nils alike.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func valuesOf(v any) (map[string]any, bool) {
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

func codecError(op string, d *MessageDescriptor, field string, err error) error {
	if !errors.Is(err, contracts.ErrCodecFailed) {
		err = fmt.Errorf("%w: %v", contracts.ErrCodecFailed, err)
	}
	return contracts.NewSchemaError(op, d.Name(), field, err)
}
