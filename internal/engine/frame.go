package engine

import "slices"

// Frame is a named node in the inheritance graph.
//
// The parent is held by name and resolved through the owning FrameBase, so
// deleting or renaming a frame never leaves a dangling pointer. Frame handles
// are read-only views; mutate through FrameBase.
type Frame struct {
	name   string
	parent string
	slots  []*Slot
}

func (f *Frame) Name() string { return f.name }

// Parent returns the parent's name, or "" for a root frame.
func (f *Frame) Parent() string { return f.parent }

// Slots returns the local slots in insertion order.
func (f *Frame) Slots() []*Slot {
	return slices.Clone(f.slots)
}

// LocalSlot returns the slot named name defined on this frame, ignoring
// ancestors.
func (f *Frame) LocalSlot(name string) *Slot {
	for _, s := range f.slots {
		if s.name == name {
			return s
		}
	}
	return nil
}

// putSlot adds s, replacing a local slot of the same name in place.
// It reports whether a slot was replaced.
func (f *Frame) putSlot(s *Slot) bool {
	for i, old := range f.slots {
		if old.name == s.name {
			f.slots[i] = s
			return true
		}
	}
	f.slots = append(f.slots, s)
	return false
}

func (f *Frame) removeSlot(name string) bool {
	i := slices.IndexFunc(f.slots, func(s *Slot) bool { return s.name == name })
	if i < 0 {
		return false
	}
	f.slots = slices.Delete(f.slots, i, i+1)
	return true
}
