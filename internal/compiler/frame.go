package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/framekb/internal/ir"
)

// CompileFrames compiles every frame declared under the top-level "frame"
// field of a knowledge definition, in declaration order:
//
//	frame: Bird: {
//		parent: "Animal"
//		slot: {
//			covering: {type: "TEXT", value: "feathers"}
//			sound: if_needed: print: "tweet"
//			mate: {type: "FRAME", if_needed: find: "kind=bird"}
//		}
//	}
//
// A definition without a "frame" field compiles to an empty list.
func CompileFrames(v cue.Value) ([]ir.FrameDef, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	framesVal := v.LookupPath(cue.ParsePath("frame"))
	if !framesVal.Exists() {
		return []ir.FrameDef{}, nil
	}

	iter, err := framesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	defs := []ir.FrameDef{}
	for iter.Next() {
		def, err := CompileFrame(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// CompileFrame compiles one frame body.
func CompileFrame(name string, v cue.Value) (ir.FrameDef, error) {
	if err := v.Err(); err != nil {
		return ir.FrameDef{}, formatCUEError(err)
	}

	def := ir.FrameDef{Name: name, Slots: []ir.SlotDef{}}

	parentVal := v.LookupPath(cue.ParsePath("parent"))
	if parentVal.Exists() {
		parent, err := parentVal.String()
		if err != nil {
			return ir.FrameDef{}, &CompileError{
				Field:   fmt.Sprintf("frame.%s.parent", name),
				Message: "parent must be a frame name string",
				Pos:     parentVal.Pos(),
			}
		}
		def.Parent = parent
	}

	slotsVal := v.LookupPath(cue.ParsePath("slot"))
	if !slotsVal.Exists() {
		return def, nil
	}

	iter, err := slotsVal.Fields()
	if err != nil {
		return ir.FrameDef{}, formatCUEError(err)
	}
	for iter.Next() {
		slot, err := compileSlot(name, iter.Label(), iter.Value())
		if err != nil {
			return ir.FrameDef{}, err
		}
		def.Slots = append(def.Slots, slot)
	}
	return def, nil
}

func compileSlot(frame, name string, v cue.Value) (ir.SlotDef, error) {
	field := fmt.Sprintf("frame.%s.slot.%s", frame, name)
	slot := ir.SlotDef{Name: name, Type: ir.SlotText, Inheritance: ir.InheritUnique}

	if tv := v.LookupPath(cue.ParsePath("type")); tv.Exists() {
		s, err := tv.String()
		if err != nil {
			return ir.SlotDef{}, &CompileError{Field: field + ".type", Message: "type must be a string", Pos: tv.Pos()}
		}
		t, err := ir.ParseSlotType(s)
		if err != nil {
			return ir.SlotDef{}, &CompileError{Field: field + ".type", Message: err.Error(), Pos: tv.Pos()}
		}
		slot.Type = t
	}

	if iv := v.LookupPath(cue.ParsePath("inheritance")); iv.Exists() {
		s, err := iv.String()
		if err != nil {
			return ir.SlotDef{}, &CompileError{Field: field + ".inheritance", Message: "inheritance must be a string", Pos: iv.Pos()}
		}
		inh, err := ir.ParseInheritance(s)
		if err != nil {
			return ir.SlotDef{}, &CompileError{Field: field + ".inheritance", Message: err.Error(), Pos: iv.Pos()}
		}
		slot.Inheritance = inh
	}

	if vv := v.LookupPath(cue.ParsePath("value")); vv.Exists() {
		val, err := compileValue(field+".value", vv)
		if err != nil {
			return ir.SlotDef{}, err
		}
		slot.Value = val
	}

	hooks := []struct {
		label string
		dst   **ir.ProcedureDef
	}{
		{"if_needed", &slot.IfNeeded},
		{"if_added", &slot.IfAdded},
		{"procedure", &slot.Procedure},
	}
	for _, h := range hooks {
		hv := v.LookupPath(cue.ParsePath(h.label))
		if !hv.Exists() {
			continue
		}
		proc, err := compileProcedure(field+"."+h.label, hv)
		if err != nil {
			return ir.SlotDef{}, err
		}
		*h.dst = proc
	}

	return slot, nil
}

// compileProcedure accepts {print: "text"} or {find: "cond, cond"}.
func compileProcedure(field string, v cue.Value) (*ir.ProcedureDef, error) {
	var found []*ir.ProcedureDef
	for _, pk := range []struct {
		label string
		kind  ir.ProcedureKind
	}{
		{"print", ir.ProcPrint},
		{"find", ir.ProcFind},
	} {
		label, kind := pk.label, pk.kind
		pv := v.LookupPath(cue.ParsePath(label))
		if !pv.Exists() {
			continue
		}
		payload, err := pv.String()
		if err != nil {
			return nil, &CompileError{Field: field + "." + label, Message: "payload must be a string", Pos: pv.Pos()}
		}
		found = append(found, &ir.ProcedureDef{Kind: kind, Payload: payload})
	}

	if len(found) != 1 {
		return nil, &CompileError{
			Field:   field,
			Message: "procedure must have exactly one of print or find",
			Pos:     v.Pos(),
		}
	}
	return found[0], nil
}

// compileValue converts a concrete CUE value into an IRValue.
// Floats are rejected.
func compileValue(field string, v cue.Value) (ir.IRValue, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, &CompileError{Field: field, Message: "value must be concrete", Pos: v.Pos()}
	}

	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.IRInt(n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.ListKind, cue.StructKind:
		var raw any
		if err := v.Decode(&raw); err != nil {
			return nil, formatCUEError(err)
		}
		val, err := ir.FromAny(raw)
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return val, nil
	case cue.FloatKind:
		return nil, &CompileError{Field: field, Message: "float values are not supported, use int", Pos: v.Pos()}
	default:
		return nil, &CompileError{Field: field, Message: fmt.Sprintf("unsupported value kind: %v", v.Kind()), Pos: v.Pos()}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
