package metadata

import (
	"fmt"

	"github.com/glimte/protolite-go/contracts"
	"github.com/glimte/protolite-go/wire"
)

// RestoreIdentity tags a decoded tree with the type of d. Every nested
// message value is tagged with its own type; absent nested values are left
// alone. Field values are not changed.
func RestoreIdentity(d *MessageDescriptor, value map[string]any) (*contracts.Message, error) {
	if value == nil {
		return nil, contracts.NewSchemaError("restore identity", d.Name(), "", contracts.ErrNilPayload)
	}

	fields, err := d.ResolvedFields()
	if err != nil {
		return nil, err
	}

	for _, f := range fields {
		if f.kind != KindNestedMessage {
			continue
		}
		v, present := presentValue(value, f.name)
		if !present {
			continue
		}

		restored, err := restoreNested(d, f, v)
		if err != nil {
			return nil, err
		}
		value[f.name] = restored
	}

	return contracts.NewMessage(d.Name(), value), nil
}

func restoreNested(d *MessageDescriptor, f ResolvedField, v any) (any, error) {
	if f.rule == wire.RuleRepeated {
		items, ok := v.([]map[string]any)
		if !ok {
			if msgs, ok := v.([]*contracts.Message); ok {
				return msgs, nil
			}
			return nil, contracts.NewSchemaError("restore identity", d.Name(), f.name,
				fmt.Errorf("%w: expected a list of messages, got %T", contracts.ErrVerificationFailed, v))
		}
		out := make([]*contracts.Message, len(items))
		for i, item := range items {
			msg, err := RestoreIdentity(f.nested, item)
			if err != nil {
				return nil, err
			}
			out[i] = msg
		}
		return out, nil
	}

	switch val := v.(type) {
	case *contracts.Message:
		return val, nil
	case map[string]any:
		return RestoreIdentity(f.nested, val)
	default:
		return nil, contracts.NewSchemaError("restore identity", d.Name(), f.name,
			fmt.Errorf("%w: expected a message, got %T", contracts.ErrVerificationFailed, v))
	}
}
