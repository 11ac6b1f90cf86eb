package wire

import (
	"google.golang.org/protobuf/types/descriptorpb"
)

// Kind is the wire representation of a field value
type Kind int

const (
	KindString Kind = iota + 1
	KindInt32
	KindBool
	KindBytes
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt32:
		return "int32"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindMessage:
		return "message"
	default:
		return "unknown"
	}
}

func (k Kind) protoType() (descriptorpb.FieldDescriptorProto_Type, bool) {
	switch k {
	case KindString:
		return descriptorpb.FieldDescriptorProto_TYPE_STRING, true
	case KindInt32:
		return descriptorpb.FieldDescriptorProto_TYPE_INT32, true
	case KindBool:
		return descriptorpb.FieldDescriptorProto_TYPE_BOOL, true
	case KindBytes:
		return descriptorpb.FieldDescriptorProto_TYPE_BYTES, true
	case KindMessage:
		return descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, true
	default:
		return 0, false
	}
}

// Rule is the cardinality of a field
type Rule int

const (
	RuleRequired Rule = iota + 1
	RuleOptional
	RuleRepeated
)

func (r Rule) String() string {
	switch r {
	case RuleRequired:
		return "required"
	case RuleOptional:
		return "optional"
	case RuleRepeated:
		return "repeated"
	default:
		return "unknown"
	}
}

func (r Rule) protoLabel() (descriptorpb.FieldDescriptorProto_Label, bool) {
	switch r {
	case RuleRequired:
		return descriptorpb.FieldDescriptorProto_LABEL_REQUIRED, true
	case RuleOptional:
		return descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL, true
	case RuleRepeated:
		return descriptorpb.FieldDescriptorProto_LABEL_REPEATED, true
	default:
		return 0, false
	}
}
