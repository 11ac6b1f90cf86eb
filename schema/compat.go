package schema

import (
	"fmt"
	"strings"

	"github.com/glimte/protolite-go/contracts"
)

// Difference codes
const (
	CodeFieldCount = "field_count"
	CodeTypeCount  = "type_count"
	CodeKind       = "kind"
	CodeRule       = "rule"
)

// Difference is one structural mismatch between two schemas
type Difference struct {
	Path     string `json:"path"`
	Code     string `json:"code"`
	Producer string `json:"producer"`
	Consumer string `json:"consumer"`
}

func (d Difference) String() string {
	return fmt.Sprintf("%s: %s differs (producer %s, consumer %s)", d.Path, d.Code, d.Producer, d.Consumer)
}

// IncompatibilityError lists every difference found by CheckCompatibility
type IncompatibilityError struct {
	Differences []Difference `json:"differences"`
}

func (e *IncompatibilityError) Error() string {
	parts := make([]string, len(e.Differences))
	for i, d := range e.Differences {
		parts[i] = d.String()
	}
	return fmt.Sprintf("%v: %s", contracts.ErrIncompatibleSchema, strings.Join(parts, "; "))
}

func (e *IncompatibilityError) Unwrap() error {
	return contracts.ErrIncompatibleSchema
}

// CheckCompatibility compares the schema a producer encodes with against
// the schema a consumer decodes with. It returns nil when both have the
// same shape, or an *IncompatibilityError.
func CheckCompatibility(producer, consumer *Schema) error {
	if producer == nil || consumer == nil {
		return fmt.Errorf("schema: producer and consumer schemas are required")
	}

	var diffs []Difference
	diffs = compareFields("root", producer.RootFields, consumer.RootFields, diffs)

	if len(producer.ReferencedTypes) != len(consumer.ReferencedTypes) {
		diffs = append(diffs, Difference{
			Path:     "referencedTypes",
			Code:     CodeTypeCount,
			Producer: fmt.Sprint(len(producer.ReferencedTypes)),
			Consumer: fmt.Sprint(len(consumer.ReferencedTypes)),
		})
	}
	for i := 0; i < min(len(producer.ReferencedTypes), len(consumer.ReferencedTypes)); i++ {
		diffs = compareFields(fmt.Sprintf("%s%d", refPrefix, i),
			producer.ReferencedTypes[i].Fields, consumer.ReferencedTypes[i].Fields, diffs)
	}

	if len(diffs) == 0 {
		return nil
	}
	return &IncompatibilityError{Differences: diffs}
}

func compareFields(path string, producer, consumer []FieldSummary, diffs []Difference) []Difference {
	if len(producer) != len(consumer) {
		diffs = append(diffs, Difference{
			Path:     path,
			Code:     CodeFieldCount,
			Producer: fmt.Sprint(len(producer)),
			Consumer: fmt.Sprint(len(consumer)),
		})
	}

	for i := 0; i < min(len(producer), len(consumer)); i++ {
		p, c := producer[i], consumer[i]
		fieldPath := fmt.Sprintf("%s[%d]", path, i)
		if p.Kind != c.Kind {
			diffs = append(diffs, Difference{Path: fieldPath, Code: CodeKind, Producer: p.Kind, Consumer: c.Kind})
		}
		if p.Rule != c.Rule {
			diffs = append(diffs, Difference{Path: fieldPath, Code: CodeRule, Producer: p.Rule, Consumer: c.Rule})
		}
	}
	return diffs
}
