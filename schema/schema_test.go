package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/glimte/protolite-go/contracts"
	"github.com/glimte/protolite-go/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	t.Run("summarizes root fields", func(t *testing.T) {
		d := metadata.NewRegistry().Declare(metadata.Named("Event"))
		d.MustField("name", metadata.String).
			MustField("count", metadata.Number, metadata.Optional()).
			MustField("flags", metadata.Array, metadata.OfType(metadata.Boolean)).
			MustField("at", metadata.Date)

		s, err := Collect(d)
		require.NoError(t, err)

		assert.Empty(t, s.ReferencedTypes)
		assert.Equal(t, []FieldSummary{
			{Kind: "string", Rule: "required"},
			{Kind: "int32", Rule: "optional"},
			{Kind: "bool", Rule: "repeated"},
			{Kind: "bytes", Rule: "required"},
		}, s.RootFields)
	})

	t.Run("shared types appear once", func(t *testing.T) {
		r := metadata.NewRegistry()
		r.Declare(metadata.Named("T")).MustField("v", metadata.String)
		root := r.Declare(metadata.Named("Root"))
		root.MustField("first", metadata.Named("T")).
			MustField("second", metadata.Named("T"))

		s, err := Collect(root)
		require.NoError(t, err)

		require.Len(t, s.ReferencedTypes, 1)
		assert.Equal(t, "ref:0", s.RootFields[0].Kind)
		assert.Equal(t, "ref:0", s.RootFields[1].Kind)

		idx, ok := s.RootFields[1].Ref()
		require.True(t, ok)
		assert.Equal(t, 0, idx)
	})

	t.Run("diamond references use discovery order", func(t *testing.T) {
		r := metadata.NewRegistry()
		r.Declare(metadata.Named("C")).MustField("v", metadata.Number)
		r.Declare(metadata.Named("A")).MustField("c", metadata.Named("C"))
		r.Declare(metadata.Named("B")).
			MustField("flag", metadata.Boolean).
			MustField("c", metadata.Named("C"), metadata.Optional())
		root := r.Declare(metadata.Named("Root"))
		root.MustField("a", metadata.Named("A")).
			MustField("b", metadata.Named("B"))

		s, err := Collect(root)
		require.NoError(t, err)

		assert.Equal(t, []TypeDefinition{
			{Fields: []FieldSummary{{Kind: "ref:1", Rule: "required"}}},
			{Fields: []FieldSummary{{Kind: "int32", Rule: "required"}}},
			{Fields: []FieldSummary{{Kind: "bool", Rule: "required"}, {Kind: "ref:1", Rule: "optional"}}},
		}, s.ReferencedTypes)
		assert.Equal(t, []FieldSummary{
			{Kind: "ref:0", Rule: "required"},
			{Kind: "ref:2", Rule: "required"},
		}, s.RootFields)
	})

	t.Run("cycles become references", func(t *testing.T) {
		r := metadata.NewRegistry()
		node := r.Declare(metadata.Named("Node"))
		node.MustField("value", metadata.String).
			MustField("children", metadata.Array, metadata.OfType(metadata.Named("Node")))

		s, err := Collect(node)
		require.NoError(t, err)

		require.Len(t, s.ReferencedTypes, 1)
		assert.Equal(t, s.RootFields, s.ReferencedTypes[0].Fields)
		assert.Equal(t, "ref:0", s.RootFields[1].Kind)
	})

	t.Run("includes inherited fields and their nested types", func(t *testing.T) {
		r := metadata.NewRegistry()
		r.Declare(metadata.Named("Meta")).MustField("id", metadata.String)
		r.Declare(metadata.Named("Base")).MustField("meta", metadata.Named("Meta"))
		child := r.Declare(metadata.Named("Child"))
		child.MustField("title", metadata.String)
		require.NoError(t, child.Extends(metadata.Named("Base")))

		s, err := Collect(child)
		require.NoError(t, err)

		require.Len(t, s.ReferencedTypes, 1)
		assert.Equal(t, []FieldSummary{
			{Kind: "ref:0", Rule: "required"},
			{Kind: "string", Rule: "required"},
		}, s.RootFields)
	})

	t.Run("does not seal", func(t *testing.T) {
		d := metadata.NewRegistry().Declare(metadata.Named("Event"))
		d.MustField("name", metadata.String)

		_, err := Collect(d)
		require.NoError(t, err)
		assert.False(t, d.Sealed())
	})

	t.Run("duplicate names abort collection", func(t *testing.T) {
		r := metadata.NewRegistry()
		r.Declare(metadata.Named("Base")).MustField("id", metadata.String)
		child := r.Declare(metadata.Named("Child"))
		child.MustField("id", metadata.String)
		require.NoError(t, child.Extends(metadata.Named("Base")))

		_, err := Collect(child)
		assert.ErrorIs(t, err, contracts.ErrDuplicateFieldName)
	})

	t.Run("ref parsing", func(t *testing.T) {
		_, ok := FieldSummary{Kind: "string"}.Ref()
		assert.False(t, ok)
		_, ok = FieldSummary{Kind: "ref:x"}.Ref()
		assert.False(t, ok)
	})
}

func TestChecksum(t *testing.T) {
	t.Run("ignores names and inheritance", func(t *testing.T) {
		r := metadata.NewRegistry()
		r.Declare(metadata.Named("Parent")).MustField("a", metadata.String)
		child := r.Declare(metadata.Named("Child"))
		child.MustField("b", metadata.Number)
		require.NoError(t, child.Extends(metadata.Named("Parent")))

		flat := r.Declare(metadata.Named("ParentAndChild"))
		flat.MustField("x", metadata.String).MustField("y", metadata.Number)

		a, err := Checksum(child)
		require.NoError(t, err)
		b, err := Checksum(flat)
		require.NoError(t, err)

		assert.True(t, a.Equal(b))
		assert.Len(t, a.String(), 64)
	})

	t.Run("optional and required differ", func(t *testing.T) {
		r := metadata.NewRegistry()
		r.Declare(metadata.Named("A")).MustField("v", metadata.String)
		r.Declare(metadata.Named("B")).MustField("v", metadata.String, metadata.Optional())

		a, err := Checksum(mustLookup(t, r, "A"))
		require.NoError(t, err)
		b, err := Checksum(mustLookup(t, r, "B"))
		require.NoError(t, err)
		assert.False(t, a.Equal(b))
	})

	t.Run("field order matters", func(t *testing.T) {
		r := metadata.NewRegistry()
		r.Declare(metadata.Named("A")).MustField("s", metadata.String).MustField("n", metadata.Number)
		r.Declare(metadata.Named("B")).MustField("n", metadata.Number).MustField("s", metadata.String)

		a, err := Checksum(mustLookup(t, r, "A"))
		require.NoError(t, err)
		b, err := Checksum(mustLookup(t, r, "B"))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("field count matters", func(t *testing.T) {
		r := metadata.NewRegistry()
		r.Declare(metadata.Named("A")).MustField("s", metadata.String)
		r.Declare(metadata.Named("B")).MustField("s", metadata.String).MustField("t", metadata.String)

		a, err := Checksum(mustLookup(t, r, "A"))
		require.NoError(t, err)
		b, err := Checksum(mustLookup(t, r, "B"))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("nested shape matters", func(t *testing.T) {
		r := metadata.NewRegistry()
		r.Declare(metadata.Named("V1")).MustField("v", metadata.String)
		r.Declare(metadata.Named("V2")).MustField("v", metadata.Number)
		r.Declare(metadata.Named("A")).MustField("n", metadata.Named("V1"))
		r.Declare(metadata.Named("B")).MustField("n", metadata.Named("V2"))

		a, err := Checksum(mustLookup(t, r, "A"))
		require.NoError(t, err)
		b, err := Checksum(mustLookup(t, r, "B"))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("is stable", func(t *testing.T) {
		r := metadata.NewRegistry()
		d := r.Declare(metadata.Named("A"))
		d.MustField("s", metadata.String)

		a, err := Checksum(d)
		require.NoError(t, err)
		_, err = d.Seal()
		require.NoError(t, err)
		b, err := Checksum(d)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestCanonicalExport(t *testing.T) {
	r := metadata.NewRegistry()
	r.Declare(metadata.Named("Line")).MustField("sku", metadata.String)
	order := r.Declare(metadata.Named("Order"))
	order.MustField("id", metadata.String).
		MustField("lines", metadata.Array, metadata.OfType(metadata.Named("Line")))

	s, err := Collect(order)
	require.NoError(t, err)

	data, err := MarshalCanonical(s)
	require.NoError(t, err)

	again, err := MarshalCanonical(s)
	require.NoError(t, err)
	assert.Equal(t, data, again)

	decoded, err := UnmarshalCanonical(data)
	require.NoError(t, err)
	assert.Equal(t, s, decoded)

	_, err = UnmarshalCanonical([]byte{0xff})
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)
}

func TestCheckCompatibility(t *testing.T) {
	r := metadata.NewRegistry()
	r.Declare(metadata.Named("Item")).MustField("sku", metadata.String)
	r.Declare(metadata.Named("ItemV2")).MustField("sku", metadata.Number)
	r.Declare(metadata.Named("Producer")).
		MustField("id", metadata.String).
		MustField("item", metadata.Named("Item"), metadata.Optional())
	r.Declare(metadata.Named("SameShape")).
		MustField("key", metadata.String).
		MustField("entry", metadata.Named("Item"), metadata.Optional())
	r.Declare(metadata.Named("Consumer")).
		MustField("id", metadata.String).
		MustField("item", metadata.Named("ItemV2")).
		MustField("extra", metadata.Boolean)

	producer, err := Collect(mustLookup(t, r, "Producer"))
	require.NoError(t, err)

	t.Run("same shape is compatible", func(t *testing.T) {
		same, err := Collect(mustLookup(t, r, "SameShape"))
		require.NoError(t, err)
		assert.NoError(t, CheckCompatibility(producer, same))
	})

	t.Run("reports every difference", func(t *testing.T) {
		consumer, err := Collect(mustLookup(t, r, "Consumer"))
		require.NoError(t, err)

		err = CheckCompatibility(producer, consumer)
		require.Error(t, err)
		assert.ErrorIs(t, err, contracts.ErrIncompatibleSchema)

		var ie *IncompatibilityError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, []Difference{
			{Path: "root", Code: CodeFieldCount, Producer: "2", Consumer: "3"},
			{Path: "root[1]", Code: CodeRule, Producer: "optional", Consumer: "required"},
			{Path: "ref:0[0]", Code: CodeKind, Producer: "string", Consumer: "int32"},
		}, ie.Differences)
		assert.Contains(t, err.Error(), "root[1]: rule differs")
	})

	t.Run("requires both schemas", func(t *testing.T) {
		assert.Error(t, CheckCompatibility(producer, nil))
	})
}

func TestJSONSchemaGenerator(t *testing.T) {
	r := metadata.NewRegistry()
	r.Declare(metadata.Named("Address")).
		MustField("street", metadata.String).
		MustField("zip", metadata.Number, metadata.Optional())
	user := r.Declare(metadata.Named("User"))
	user.MustField("name", metadata.String).
		MustField("home", metadata.Named("Address")).
		MustField("tags", metadata.Array, metadata.OfType(metadata.String)).
		MustField("born", metadata.Date, metadata.Optional()).
		MustField("avatar", metadata.Buffer, metadata.Optional()).
		MustField("manager", metadata.Named("User"), metadata.Optional())

	raw, err := NewJSONSchemaGenerator().Generate(user)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "http://json-schema.org/draft-07/schema#", doc["$schema"])
	assert.Equal(t, "User", doc["title"])
	assert.Equal(t, "object", doc["type"])
	assert.ElementsMatch(t, []any{"name", "home"}, doc["required"])

	props := doc["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "string"}, props["name"])
	assert.Equal(t, map[string]any{"$ref": "#/definitions/Address"}, props["home"])
	assert.Equal(t, map[string]any{"type": "array", "items": map[string]any{"type": "string"}}, props["tags"])
	assert.Equal(t, "base64", props["born"].(map[string]any)["contentEncoding"])
	assert.Equal(t, "base64", props["avatar"].(map[string]any)["contentEncoding"])
	assert.Equal(t, map[string]any{"$ref": "#/definitions/User"}, props["manager"])

	defs := doc["definitions"].(map[string]any)
	address := defs["Address"].(map[string]any)
	assert.Equal(t, []any{"street"}, address["required"])
	assert.Equal(t, map[string]any{"$ref": "#"}, defs["User"])
}

func mustLookup(t *testing.T, r *metadata.Registry, name string) *metadata.MessageDescriptor {
	t.Helper()
	d, err := r.Lookup(metadata.Named(name))
	require.NoError(t, err)
	return d
}
