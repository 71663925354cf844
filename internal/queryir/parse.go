package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/framekb/internal/ir"
)

// TypeDirective is the condition key that selects HasSlotType.
const TypeDirective = "@type"

// ParseError reports a malformed condition.
type ParseError struct {
	Index     int    // position in the condition list
	Condition string // the offending text
	Message   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("condition %d %q: %s", e.Index, e.Condition, e.Message)
}

// ParseText parses a comma-separated condition list such as
// "color=red, size=3".
func ParseText(text string) (And, error) {
	return Parse(strings.Split(text, ","))
}

// Parse parses conditions of the form slot=value into a conjunction.
//
// Whitespace around the slot name and value is trimmed, and blank entries
// are skipped. The value is everything after the first '=', so it may itself
// contain '='. A condition without '=' or with an empty slot name is an
// error, as is an unknown @ directive.
func Parse(conditions []string) (And, error) {
	out := And{Predicates: []Predicate{}}
	for i, raw := range conditions {
		cond := strings.TrimSpace(raw)
		if cond == "" {
			continue
		}

		key, value, ok := strings.Cut(cond, "=")
		if !ok {
			return And{}, &ParseError{Index: i, Condition: raw, Message: "expected slot=value"}
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			return And{}, &ParseError{Index: i, Condition: raw, Message: "slot name is empty"}
		}

		if strings.HasPrefix(key, "@") {
			if key != TypeDirective {
				return And{}, &ParseError{Index: i, Condition: raw, Message: fmt.Sprintf("unknown directive %s", key)}
			}
			st, err := ir.ParseSlotType(value)
			if err != nil {
				return And{}, &ParseError{Index: i, Condition: raw, Message: err.Error()}
			}
			out.Predicates = append(out.Predicates, HasSlotType{Type: st})
			continue
		}

		out.Predicates = append(out.Predicates, Equals{Slot: key, Value: value})
	}
	return out, nil
}
