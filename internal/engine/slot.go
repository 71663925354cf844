package engine

import "github.com/roach88/framekb/internal/ir"

// Slot is a named, typed attribute of a frame.
//
// A Slot is owned by exactly one frame. Descendants that inherit it see the
// same *Slot, so every read and write through an inherited slot acts on the
// owner's slot.
type Slot struct {
	name        string
	typ         ir.SlotType
	inheritance ir.Inheritance
	value       ir.IRValue
	ifNeeded    *Demon
	ifAdded     *Demon
}

func newSlot(name string, typ ir.SlotType, inh ir.Inheritance, value ir.IRValue) *Slot {
	return &Slot{name: name, typ: typ, inheritance: inh, value: value}
}

func (s *Slot) Name() string                { return s.name }
func (s *Slot) Type() ir.SlotType           { return s.typ }
func (s *Slot) Inheritance() ir.Inheritance { return s.inheritance }
func (s *Slot) IfNeeded() *Demon            { return s.ifNeeded }
func (s *Slot) IfAdded() *Demon             { return s.ifAdded }

// StoredValue returns the stored value without firing any demon.
func (s *Slot) StoredValue() (ir.IRValue, bool) {
	return s.value, s.value != nil
}

// firer runs a demon on behalf of a slot read or write.
type firer interface {
	fire(d *Demon, origin, owner *Frame, s *Slot) (Outcome, error)
}

// read returns the stored value, or else the IF-NEEDED result.
// The demon's result is never written back to the slot.
func (s *Slot) read(f firer, origin, owner *Frame) (ir.IRValue, error) {
	if s.value != nil {
		return s.value, nil
	}
	if s.ifNeeded == nil {
		return nil, nil
	}
	out, err := f.fire(s.ifNeeded, origin, owner, s)
	if err != nil {
		return nil, err
	}
	return out.Value, nil
}

// write stores v, then fires IF-ADDED. A nil v clears the slot. When the
// demon fails the previous value is restored before the error is returned.
func (s *Slot) write(f firer, origin, owner *Frame, v ir.IRValue) error {
	prev := s.value
	s.value = v
	if s.ifAdded == nil {
		return nil
	}
	if _, err := f.fire(s.ifAdded, origin, owner, s); err != nil {
		s.value = prev
		return err
	}
	return nil
}

// attach installs d in the hook matching its kind, replacing any previous one.
func (s *Slot) attach(d *Demon) {
	switch d.kind {
	case ir.DemonIfNeeded:
		s.ifNeeded = d
	case ir.DemonIfAdded:
		s.ifAdded = d
	}
}

// SlotInfo is a read-only snapshot of a slot. Taking it fires no demons.
type SlotInfo struct {
	Name        string
	Type        ir.SlotType
	Inheritance ir.Inheritance
	Value       ir.IRValue
	HasValue    bool
	IfNeeded    string
	IfAdded     string

	// Owner is the frame that owns the slot; Inherited is true when the
	// slot was reached through the parent chain.
	Owner     string
	Inherited bool
}

func (s *Slot) info(owner string, inherited bool) SlotInfo {
	info := SlotInfo{
		Name:        s.name,
		Type:        s.typ,
		Inheritance: s.inheritance,
		Value:       s.value,
		HasValue:    s.value != nil,
		Owner:       owner,
		Inherited:   inherited,
	}
	if s.ifNeeded != nil {
		info.IfNeeded = s.ifNeeded.proc.String()
	}
	if s.ifAdded != nil {
		info.IfAdded = s.ifAdded.proc.String()
	}
	return info
}
