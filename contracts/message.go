package contracts

import (
	"fmt"
)

// Valuer is implemented by anything that can hand its field values to the
// wire engine.
type Valuer interface {
	Values() map[string]any
}

// Message is a decoded value tree tagged with the message type it was
// decoded as. Nested message values are *Message (or []*Message for
// repeated fields).
type Message struct {
	typeName string
	fields   map[string]any
}

// NewMessage tags fields with typeName. A nil map is replaced by an empty one.
func NewMessage(typeName string, fields map[string]any) *Message {
	if fields == nil {
		fields = make(map[string]any)
	}
	return &Message{typeName: typeName, fields: fields}
}

// TypeName returns the message type name
func (m *Message) TypeName() string {
	if m == nil {
		return ""
	}
	return m.typeName
}

// Is reports whether the message was decoded as typeName
func (m *Message) Is(typeName string) bool {
	return m != nil && m.typeName == typeName
}

// Get returns a field value
func (m *Message) Get(name string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.fields[name]
	return v, ok
}

// Values returns the field map. Nested messages keep their identity.
func (m *Message) Values() map[string]any {
	if m == nil {
		return nil
	}
	return m.fields
}

// Map returns a plain copy of the value tree with type identity removed.
func (m *Message) Map() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m.fields))
	for k, v := range m.fields {
		out[k] = plain(v)
	}
	return out
}

func (m *Message) String() string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s%v", m.typeName, m.fields)
}

func plain(v any) any {
	switch val := v.(type) {
	case *Message:
		return val.Map()
	case []*Message:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = item.Map()
		}
		return out
	default:
		return v
	}
}
