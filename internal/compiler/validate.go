package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/framekb/internal/ir"
	"github.com/roach88/framekb/internal/queryir"
)

// Validation error codes (E100-E199)
const (
	ErrFrameNameEmpty      = "E101" // frame name is required
	ErrDuplicateFrame      = "E102" // frame declared twice
	ErrUnknownParent       = "E103" // parent not declared
	ErrParentCycle         = "E104" // inheritance cycle
	ErrDuplicateSlot       = "E105" // slot declared twice on one frame
	ErrSameOverride        = "E106" // child redeclares a Same slot of an ancestor
	ErrInvalidFind         = "E107" // FIND payload does not parse
	ErrInvalidSlotType     = "E108" // unknown slot type or inheritance
	ErrInvalidProcedure    = "E109" // unknown procedure kind
	ErrSlotNameEmpty       = "E110" // slot name is required
	WarnUnsatisfiableQuery = "W101" // FIND conditions can never hold together
)

// ValidationError represents a knowledge definition problem.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// IsWarning reports whether the problem is advisory only.
func (e ValidationError) IsWarning() bool {
	return strings.HasPrefix(e.Code, "W")
}

// Validate checks compiled frame definitions as a whole. It returns every
// problem found rather than stopping at the first. external lists frame
// names that exist outside defs and may be used as parents.
func Validate(defs []ir.FrameDef, external ...string) []ValidationError {
	var errs []ValidationError

	byName := make(map[string]ir.FrameDef, len(defs))
	for _, name := range external {
		byName[name] = ir.FrameDef{Name: name}
	}
	for _, d := range defs {
		field := "frame." + d.Name
		if strings.TrimSpace(d.Name) == "" {
			errs = append(errs, ValidationError{Field: "frame", Message: "frame name is required", Code: ErrFrameNameEmpty})
			continue
		}
		if _, dup := byName[d.Name]; dup {
			errs = append(errs, ValidationError{Field: field, Message: "frame is declared more than once", Code: ErrDuplicateFrame})
			continue
		}
		byName[d.Name] = d
	}

	for _, d := range defs {
		if d.Parent == "" {
			continue
		}
		if _, ok := byName[d.Parent]; !ok {
			errs = append(errs, ValidationError{
				Field:   "frame." + d.Name + ".parent",
				Message: fmt.Sprintf("parent %q is not declared", d.Parent),
				Code:    ErrUnknownParent,
			})
		}
	}

	for _, cycle := range ParentCycles(defs) {
		errs = append(errs, ValidationError{
			Field:   "frame." + cycle[0] + ".parent",
			Message: "inheritance cycle: " + strings.Join(cycle, " -> "),
			Code:    ErrParentCycle,
		})
	}

	for _, d := range defs {
		errs = append(errs, validateSlots(d, byName)...)
	}

	return errs
}

func validateSlots(d ir.FrameDef, byName map[string]ir.FrameDef) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(d.Slots))

	for _, s := range d.Slots {
		field := fmt.Sprintf("frame.%s.slot.%s", d.Name, s.Name)
		if strings.TrimSpace(s.Name) == "" {
			errs = append(errs, ValidationError{Field: "frame." + d.Name + ".slot", Message: "slot name is required", Code: ErrSlotNameEmpty})
			continue
		}
		if seen[s.Name] {
			errs = append(errs, ValidationError{Field: field, Message: "slot is declared more than once", Code: ErrDuplicateSlot})
		}
		seen[s.Name] = true

		if s.Type != "" {
			if _, err := ir.ParseSlotType(string(s.Type)); err != nil {
				errs = append(errs, ValidationError{Field: field + ".type", Message: err.Error(), Code: ErrInvalidSlotType})
			}
		}
		if _, err := ir.ParseInheritance(string(s.Inheritance)); err != nil {
			errs = append(errs, ValidationError{Field: field + ".inheritance", Message: err.Error(), Code: ErrInvalidSlotType})
		}

		if owner, ok := sameAncestor(d, s.Name, byName); ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("cannot override slot inherited from %q with Same inheritance", owner),
				Code:    ErrSameOverride,
			})
		}

		errs = append(errs, validateProcedure(field+".if_needed", s.IfNeeded)...)
		errs = append(errs, validateProcedure(field+".if_added", s.IfAdded)...)
		errs = append(errs, validateProcedure(field+".procedure", s.Procedure)...)
	}
	return errs
}

func validateProcedure(field string, p *ir.ProcedureDef) []ValidationError {
	if p == nil {
		return nil
	}
	switch p.Kind {
	case ir.ProcPrint:
		return nil
	case ir.ProcFind:
		conds, err := queryir.ParseText(p.Payload)
		if err != nil {
			return []ValidationError{{Field: field, Message: err.Error(), Code: ErrInvalidFind}}
		}
		res := queryir.Validate(conds)
		if !res.Satisfiable {
			return []ValidationError{{Field: field, Message: strings.Join(res.Warnings, "; "), Code: WarnUnsatisfiableQuery}}
		}
		return nil
	default:
		return []ValidationError{{Field: field, Message: fmt.Sprintf("unknown procedure kind %q", p.Kind), Code: ErrInvalidProcedure}}
	}
}

// sameAncestor reports the nearest ancestor of d that declares slot with
// Same inheritance.
func sameAncestor(d ir.FrameDef, slot string, byName map[string]ir.FrameDef) (string, bool) {
	visited := map[string]bool{d.Name: true}
	for parent := d.Parent; parent != "" && !visited[parent]; {
		visited[parent] = true
		anc, ok := byName[parent]
		if !ok {
			return "", false
		}
		for _, s := range anc.Slots {
			if s.Name == slot {
				return anc.Name, s.Inheritance == ir.InheritSame
			}
		}
		parent = anc.Parent
	}
	return "", false
}

// Errors returns only the non-warning entries of errs.
func Errors(errs []ValidationError) []ValidationError {
	var out []ValidationError
	for _, e := range errs {
		if !e.IsWarning() {
			out = append(out, e)
		}
	}
	return out
}
