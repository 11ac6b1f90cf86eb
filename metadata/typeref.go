package metadata

import (
	"reflect"
	"strings"
	"time"

	"github.com/glimte/protolite-go/codecs"
	"github.com/google/uuid"
)

type typeClass int

const (
	classNamed typeClass = iota
	classString
	classNumber
	classBoolean
	classBuffer
	classArray
	classObject
	classSymbol
)

// TypeRef names a declared type by a stable identity. Two refs are the same
// type exactly when they compare equal.
type TypeRef struct {
	name  string
	class typeClass
}

// Built-in declared types
var (
	String  = TypeRef{name: "String", class: classString}
	Number  = TypeRef{name: "Number", class: classNumber}
	Boolean = TypeRef{name: "Boolean", class: classBoolean}
	Buffer  = TypeRef{name: "Buffer", class: classBuffer}
	Array   = TypeRef{name: "Array", class: classArray}
	// Object is the untyped placeholder of fields declared through an
	// interface; such fields need an explicit OfType.
	Object = TypeRef{name: "Object", class: classObject}
	// Symbol stands for values that can never be serialized.
	Symbol = TypeRef{name: "Symbol", class: classSymbol}
	// Date is backed by codecs.DateCodec in the default codec registry.
	Date = Named(codecs.DateTypeName)
)

// Named refers to a message type or a codec-backed type.
func Named(name string) TypeRef {
	return TypeRef{name: name, class: classNamed}
}

// Generated mints a new unique type identity for types without a stable name.
func Generated(prefix string) TypeRef {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	if prefix == "" {
		return Named(id)
	}
	return Named(prefix + "_" + id)
}

// Name returns the type name
func (t TypeRef) Name() string {
	return t.name
}

// IsZero reports whether t is the zero TypeRef
func (t TypeRef) IsZero() bool {
	return t == TypeRef{}
}

// IsArray reports whether t is array-like
func (t TypeRef) IsArray() bool {
	return t.class == classArray
}

func (t TypeRef) String() string {
	return t.name
}

var timeType = reflect.TypeOf(time.Time{})

// TypeOf infers the declared type of a Go value, for code generators that
// declare fields from existing structs.
func TypeOf(v any) TypeRef {
	if v == nil {
		return Object
	}
	return typeOf(reflect.TypeOf(v))
}

func typeOf(t reflect.Type) TypeRef {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == timeType {
		return Date
	}

	switch t.Kind() {
	case reflect.String:
		return String
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return Number
	case reflect.Bool:
		return Boolean
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return Buffer
		}
		return Array
	case reflect.Array:
		return Array
	case reflect.Map, reflect.Interface:
		return Object
	case reflect.Struct:
		if t.Name() == "" {
			return Object
		}
		return Named(t.Name())
	default:
		return Symbol
	}
}
