package metadata

import (
	"testing"

	"github.com/glimte/protolite-go/contracts"
	"github.com/glimte/protolite-go/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringCodec struct{}

func (stringCodec) Encode(v any) ([]byte, error)   { return []byte(v.(string)), nil }
func (stringCodec) Decode(data []byte) (any, error) { return string(data), nil }

func TestMessageDescriptor_Field(t *testing.T) {
	t.Run("records kind and rule", func(t *testing.T) {
		r := NewRegistry()
		r.Declare(Named("Address"))
		d := r.Declare(Named("User"))

		require.NoError(t, d.Field("name", String))
		require.NoError(t, d.Field("age", Number, Optional()))
		require.NoError(t, d.Field("tags", Array, OfType(String)))
		require.NoError(t, d.Field("home", Named("Address")))
		require.NoError(t, d.Field("born", Date, Optional()))

		fields := d.Fields()
		require.Len(t, fields, 5)

		assert.Equal(t, KindPrimitive, fields[0].Kind())
		assert.Equal(t, wire.KindString, fields[0].WireKind())
		assert.Equal(t, wire.RuleRequired, fields[0].Rule())

		assert.Equal(t, wire.KindInt32, fields[1].WireKind())
		assert.Equal(t, wire.RuleOptional, fields[1].Rule())

		assert.Equal(t, wire.RuleRepeated, fields[2].Rule())
		assert.Equal(t, String, fields[2].Type())

		assert.Equal(t, KindNestedMessage, fields[3].Kind())
		assert.Equal(t, "Address", fields[3].Nested().Name())

		assert.Equal(t, KindOpaqueCodec, fields[4].Kind())
		assert.Equal(t, wire.KindBytes, fields[4].WireKind())
		require.NotNil(t, fields[4].Codec())
		assert.True(t, fields[4].Codec().IsOptional)
		assert.False(t, fields[4].Codec().IsArray)
	})

	t.Run("nested types dedup by identity", func(t *testing.T) {
		r := NewRegistry()
		addr := r.Declare(Named("Address"))
		d := r.Declare(Named("User"))

		d.MustField("home", Named("Address")).
			MustField("work", Named("Address")).
			MustField("previous", Array, OfType(Named("Address")))

		nested := d.NestedTypes()
		require.Len(t, nested, 1)
		assert.Same(t, addr, nested[0])
	})

	t.Run("codec override wins over the declared type", func(t *testing.T) {
		r := NewRegistry()
		r.Declare(Named("Address"))
		d := r.Declare(Named("User"))

		require.NoError(t, d.Field("home", Named("Address"), WithCodec(stringCodec{})))
		require.NoError(t, d.Field("labels", Array, OfType(String), WithCodec(stringCodec{})))

		fields := d.Fields()
		assert.Equal(t, KindOpaqueCodec, fields[0].Kind())
		assert.Nil(t, fields[0].Nested())
		assert.Empty(t, d.NestedTypes())
		assert.True(t, fields[1].Codec().IsArray)
	})

	t.Run("object placeholder takes the explicit type", func(t *testing.T) {
		r := NewRegistry()
		r.Declare(Named("Address"))
		d := r.Declare(Named("User"))

		require.NoError(t, d.Field("home", Object, OfType(Named("Address"))))
		assert.Equal(t, KindNestedMessage, d.Fields()[0].Kind())
	})

	t.Run("matching explicit type is accepted", func(t *testing.T) {
		d := NewRegistry().Declare(Named("User"))
		require.NoError(t, d.Field("name", String, OfType(String)))
	})

	t.Run("must field panics on error", func(t *testing.T) {
		d := NewRegistry().Declare(Named("User"))
		assert.Panics(t, func() {
			d.MustField("tags", Array)
		})
	})
}

func TestMessageDescriptor_FieldValidation(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		inferred TypeRef
		opts     []FieldOption
		want     error
	}{
		{"empty name", "", String, nil, contracts.ErrInvalidFieldName},
		{"undefined type", "x", TypeRef{}, nil, contracts.ErrUnsupportedType},
		{"symbol", "x", Symbol, nil, contracts.ErrUnsupportedType},
		{"symbol with override", "x", Symbol, []FieldOption{OfType(String)}, contracts.ErrUnsupportedType},
		{"optional array", "x", Array, []FieldOption{Optional(), OfType(String)}, contracts.ErrOptionalArrayNotAllowed},
		{"optional array without element type", "x", Array, []FieldOption{Optional()}, contracts.ErrOptionalArrayNotAllowed},
		{"array without element type", "x", Array, nil, contracts.ErrArrayElementTypeRequired},
		{"nested array", "x", Array, []FieldOption{OfType(Array)}, contracts.ErrNestedArrayNotAllowed},
		{"type mismatch", "x", String, []FieldOption{OfType(Number)}, contracts.ErrTypeMismatch},
		{"untyped object", "x", Object, nil, contracts.ErrUnsupportedType},
		{"unknown named type", "x", Named("Missing"), nil, contracts.ErrUnsupportedType},
		{"array of symbols", "x", Array, []FieldOption{OfType(Symbol)}, contracts.ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewRegistry().Declare(Named("User"))

			err := d.Field(tt.field, tt.inferred, tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, contracts.IsRegistrationError(err))

			var se *contracts.SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "User", se.Type)
			assert.Equal(t, tt.field, se.Field)
			assert.Empty(t, d.Fields())
		})
	}
}

func TestMessageDescriptor_Extends(t *testing.T) {
	t.Run("rejects self inheritance", func(t *testing.T) {
		r := NewRegistry()
		d := r.Declare(Named("Node"))

		err := d.Extends(Named("Node"))
		assert.ErrorIs(t, err, contracts.ErrInvalidInheritance)
	})

	t.Run("rejects inheritance cycles", func(t *testing.T) {
		r := NewRegistry()
		a := r.Declare(Named("A"))
		b := r.Declare(Named("B"))

		require.NoError(t, b.Extends(Named("A")))
		err := a.Extends(Named("B"))
		assert.ErrorIs(t, err, contracts.ErrInvalidInheritance)
		assert.Nil(t, a.Parent())
	})

	t.Run("declares the parent lazily", func(t *testing.T) {
		r := NewRegistry()
		child := r.Declare(Named("Child"))

		require.NoError(t, child.Extends(Named("Base")))
		assert.True(t, r.Has(Named("Base")))
		assert.Equal(t, "Base", child.Parent().Name())
	})
}
