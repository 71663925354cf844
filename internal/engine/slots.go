package engine

import (
	"strings"

	"github.com/roach88/framekb/internal/ir"
)

// AddSlot adds a local slot to frame, replacing a local slot of the same
// name along with its demons and registered procedure.
//
// A slot that the frame inherits with Same inheritance cannot be overridden.
// value may be nil for a slot with no stored value.
func (b *FrameBase) AddSlot(frame, name string, typ ir.SlotType, inh ir.Inheritance, value ir.IRValue) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	a := opArgs("frame", frame, "slot", name, "type", string(typ), "inheritance", string(inh))
	if value != nil {
		a["value"] = value
	}
	s := b.begin(ir.OpAddSlot, a)
	return s.end(ir.OutcomeOK, b.addSlot(frame, name, typ, inh, value))
}

func (b *FrameBase) addSlot(frame, name string, typ ir.SlotType, inh ir.Inheritance, value ir.IRValue) error {
	f, ok := b.frames[frame]
	if !ok {
		return errNotFound("", frame, "", "frame does not exist")
	}
	if strings.TrimSpace(name) == "" {
		return errInvariant("", frame, "", "slot name is empty")
	}
	typ, err := ir.ParseSlotType(string(typ))
	if err != nil {
		return errInvariant("", frame, name, "%v", err)
	}
	inh, err = ir.ParseInheritance(string(inh))
	if err != nil {
		return errInvariant("", frame, name, "%v", err)
	}

	if existing, owner := b.resolve(f, name); existing != nil && owner != f && existing.inheritance == ir.InheritSame {
		return errInvariant("", frame, name, "cannot override slot inherited from %q with Same inheritance", owner.name)
	}

	if f.putSlot(newSlot(name, typ, inh, value)) {
		b.unregister(ProcedureKey{Frame: frame, Slot: name})
		b.logger.Debug("slot replaced", "frame", frame, "slot", name)
	}
	return nil
}

// DeleteSlot removes a local slot. It reports false, with no error, when the
// frame has no local slot of that name; inherited slots are never removed.
func (b *FrameBase) DeleteSlot(frame, name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.begin(ir.OpDeleteSlot, opArgs("frame", frame, "slot", name))
	f, ok := b.frames[frame]
	if !ok {
		return false, s.end("", errNotFound("", frame, "", "frame does not exist"))
	}
	if !f.removeSlot(name) {
		return false, s.end(ir.OutcomeNoValue, nil)
	}
	b.unregister(ProcedureKey{Frame: frame, Slot: name})
	return true, s.end(ir.OutcomeOK, nil)
}

// SetSlotValue writes v to the slot resolved from frame, firing its IF-ADDED
// demon after the value is stored. When the slot is inherited the write goes
// to the ancestor's slot. When no slot resolves, a local TEXT slot with
// Unique inheritance is created to hold v. A nil v clears the value.
func (b *FrameBase) SetSlotValue(frame, name string, v ir.IRValue) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	a := opArgs("frame", frame, "slot", name)
	if v != nil {
		a["value"] = v
	}
	s := b.begin(ir.OpSetSlotValue, a)
	return s.end(ir.OutcomeOK, b.setSlotValue(frame, name, v))
}

func (b *FrameBase) setSlotValue(frame, name string, v ir.IRValue) error {
	f, ok := b.frames[frame]
	if !ok {
		return errNotFound("", frame, "", "frame does not exist")
	}
	if strings.TrimSpace(name) == "" {
		return errInvariant("", frame, "", "slot name is empty")
	}

	slot, owner := b.resolve(f, name)
	if slot == nil {
		f.putSlot(newSlot(name, ir.SlotText, ir.InheritUnique, v))
		b.logger.Debug("slot created on write", "frame", frame, "slot", name)
		return nil
	}
	return slot.write(b, f, owner, v)
}

// GetSlotValue reads the slot resolved from frame. The stored value wins;
// otherwise the IF-NEEDED demon runs and its result is returned uncached.
// ok is false when there is neither a stored value nor a demon result.
// A slot name that does not resolve is a NOT_FOUND error.
func (b *FrameBase) GetSlotValue(frame, name string) (ir.IRValue, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.begin(ir.OpGetSlotValue, opArgs("frame", frame, "slot", name))
	v, err := b.getSlotValue(frame, name)
	if err != nil {
		return nil, false, s.end("", err)
	}
	if v == nil {
		return nil, false, s.end(ir.OutcomeNoValue, nil)
	}
	return v, true, s.end(ir.OutcomeOK, nil)
}

func (b *FrameBase) getSlotValue(frame, name string) (ir.IRValue, error) {
	f, ok := b.frames[frame]
	if !ok {
		return nil, errNotFound("", frame, "", "frame does not exist")
	}
	slot, owner := b.resolve(f, name)
	if slot == nil {
		return nil, errNotFound("", frame, name, "slot does not exist")
	}
	return slot.read(b, f, owner)
}

// SlotRef is a resolved slot together with the frame that owns it.
type SlotRef struct {
	Slot  *Slot
	Owner string
}

// Inherited reports whether the slot belongs to an ancestor of from.
func (r SlotRef) Inherited(from string) bool {
	return r.Owner != from
}

// GetSlot resolves name from frame without reading its value.
func (b *FrameBase) GetSlot(frame, name string) (SlotRef, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.frames[frame]
	if !ok {
		return SlotRef{}, errNotFound("", frame, "", "frame does not exist")
	}
	slot, owner := b.resolve(f, name)
	if slot == nil {
		return SlotRef{}, errNotFound("", frame, name, "slot does not exist")
	}
	return SlotRef{Slot: slot, Owner: owner.name}, nil
}

// DescribeSlot returns a snapshot of the slot resolved from frame.
// It fires no demons.
func (b *FrameBase) DescribeSlot(frame, name string) (SlotInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.frames[frame]
	if !ok {
		return SlotInfo{}, errNotFound("", frame, "", "frame does not exist")
	}
	slot, owner := b.resolve(f, name)
	if slot == nil {
		return SlotInfo{}, errNotFound("", frame, name, "slot does not exist")
	}
	return slot.info(owner.name, owner != f), nil
}

// DescribeFrame returns snapshots of every slot visible from frame: its
// local slots first, then inherited slots not shadowed by a nearer one,
// nearest ancestor first.
func (b *FrameBase) DescribeFrame(frame string) ([]SlotInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.frames[frame]
	if !ok {
		return nil, errNotFound("", frame, "", "frame does not exist")
	}
	out := []SlotInfo{}
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	for cur := f; cur != nil && !visited[cur.name]; cur = b.parentOf(cur) {
		visited[cur.name] = true
		for _, s := range cur.slots {
			if seen[s.name] {
				continue
			}
			seen[s.name] = true
			out = append(out, s.info(cur.name, cur != f))
		}
	}
	return out, nil
}
