package queryir

import "fmt"

// ValidationResult contains the static analysis of a predicate.
//
// Warnings never block evaluation: an unsatisfiable conjunction simply
// matches nothing. They exist so the CLI and the engine log can point at
// probable typos.
type ValidationResult struct {
	// Satisfiable is false when two conditions can never hold together.
	Satisfiable bool

	// Warnings lists redundant or contradictory conditions.
	Warnings []string
}

// Validate checks a predicate for duplicate and contradictory conditions.
// Validate is a pure function.
func Validate(p Predicate) ValidationResult {
	res := ValidationResult{Satisfiable: true, Warnings: []string{}}

	seen := make(map[string]string)
	seenTypes := make(map[string]bool)
	for _, leaf := range Flatten(p) {
		switch pred := leaf.(type) {
		case Equals:
			prev, ok := seen[pred.Slot]
			switch {
			case !ok:
				seen[pred.Slot] = pred.Value
			case prev == pred.Value:
				res.Warnings = append(res.Warnings, fmt.Sprintf("duplicate condition %s", pred))
			default:
				res.Satisfiable = false
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"slot %q cannot equal both %q and %q", pred.Slot, prev, pred.Value))
			}
		case HasSlotType:
			if seenTypes[string(pred.Type)] {
				res.Warnings = append(res.Warnings, fmt.Sprintf("duplicate condition %s", pred))
			}
			seenTypes[string(pred.Type)] = true
		default:
			res.Warnings = append(res.Warnings, fmt.Sprintf("unsupported predicate %T", leaf))
		}
	}
	return res
}
