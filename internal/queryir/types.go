package queryir

import (
	"strings"

	"github.com/roach88/framekb/internal/ir"
)

// Predicate is a condition over a frame (or a trace row).
// Sealed: only types in this package implement it.
type Predicate interface {
	predicateNode()
	String() string
}

// Equals matches when the named slot's value, coerced to text, equals Value.
type Equals struct {
	Slot  string
	Value string
}

func (Equals) predicateNode() {}

func (e Equals) String() string {
	return e.Slot + "=" + e.Value
}

// HasSlotType matches frames that own at least one local slot of Type.
// It does not look at inherited slots.
type HasSlotType struct {
	Type ir.SlotType
}

func (HasSlotType) predicateNode() {}

func (h HasSlotType) String() string {
	return TypeDirective + "=" + string(h.Type)
}

// And is a conjunction. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

func (a And) String() string {
	parts := make([]string, len(a.Predicates))
	for i, p := range a.Predicates {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}

// Flatten returns the leaf predicates of p in order, expanding nested Ands.
func Flatten(p Predicate) []Predicate {
	switch pred := p.(type) {
	case nil:
		return nil
	case And:
		var out []Predicate
		for _, sub := range pred.Predicates {
			out = append(out, Flatten(sub)...)
		}
		return out
	case *And:
		return Flatten(*pred)
	default:
		return []Predicate{p}
	}
}
