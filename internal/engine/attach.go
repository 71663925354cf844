package engine

import (
	"strings"

	"github.com/roach88/framekb/internal/ir"
)

// AttachProcedure creates a procedure and binds it to the slot resolved from
// frame. demon selects the hook: IF_NEEDED or IF_ADDED install a demon,
// NONE only registers the procedure so that RunProcedure can invoke it.
//
// When no slot resolves, a local LISP slot with Unique inheritance is created
// to carry the procedure. The registration is keyed by the frame that owns
// the slot.
func (b *FrameBase) AttachProcedure(frame, slot string, demon ir.DemonKind, kind ir.ProcedureKind, payload string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.begin(ir.OpAttach, opArgs(
		"frame", frame,
		"slot", slot,
		"demon", string(demon),
		"procedure", string(kind),
		"payload", payload))
	return s.end(ir.OutcomeOK, b.attach(frame, slot, demon, kind, payload))
}

func (b *FrameBase) attach(frame, name string, demon ir.DemonKind, kind ir.ProcedureKind, payload string) error {
	f, ok := b.frames[frame]
	if !ok {
		return errNotFound("", frame, "", "frame does not exist")
	}
	if strings.TrimSpace(name) == "" {
		return errInvariant("", frame, "", "slot name is empty")
	}
	demon, err := ir.ParseDemonKind(string(demon))
	if err != nil {
		return errInvariant("", frame, name, "%v", err)
	}
	kind, err = ir.ParseProcedureKind(string(kind))
	if err != nil {
		return errInvariant("", frame, name, "%v", err)
	}

	proc, err := NewProcedure(kind, payload)
	if err != nil {
		e := errInvariant("", frame, name, "invalid %s procedure", kind)
		e.Err = err
		return e
	}

	var d *Demon
	if demon != ir.DemonNone {
		if d, err = NewDemon(demon, proc); err != nil {
			return errInvariant("", frame, name, "%v", err)
		}
	}

	slot, owner := b.resolve(f, name)
	if slot == nil {
		slot, owner = newSlot(name, ir.SlotLisp, ir.InheritUnique, nil), f
		f.putSlot(slot)
		b.logger.Debug("slot created for procedure", "frame", frame, "slot", name)
	}
	if d != nil {
		slot.attach(d)
	}
	b.register(ProcedureKey{Frame: owner.name, Slot: name}, proc)
	return nil
}

// RunProcedure runs the procedure registered on the slot resolved from
// frame, with frame as the origin that FIND excludes. A FIND that matches
// nothing returns NotFound and no error.
func (b *FrameBase) RunProcedure(frame, slot string) (Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.begin(ir.OpRunProcedure, opArgs("frame", frame, "slot", slot))
	out, err := b.runProcedure(frame, slot)
	if err != nil {
		return Outcome{}, s.end("", err)
	}
	if !out.Found {
		return out, s.end(ir.OutcomeNoValue, nil)
	}
	return out, s.end(ir.OutcomeOK, nil)
}

func (b *FrameBase) runProcedure(frame, name string) (Outcome, error) {
	f, ok := b.frames[frame]
	if !ok {
		return Outcome{}, errNotFound("", frame, "", "frame does not exist")
	}
	slot, owner := b.resolve(f, name)
	if slot == nil {
		return Outcome{}, errNotFound("", frame, name, "slot does not exist")
	}
	proc, ok := b.procedures[ProcedureKey{Frame: owner.name, Slot: name}]
	if !ok {
		return Outcome{}, errNotFound("", frame, name, "no procedure registered on slot of %q", owner.name)
	}
	return proc.execute(&env{base: b, origin: f.name, owner: owner.name, slot: name})
}
