package engine

import (
	"slices"
	"strings"

	"github.com/roach88/framekb/internal/ir"
)

// AddFrame creates a frame. parent may be "" for a root frame; otherwise it
// must name an existing frame.
func (b *FrameBase) AddFrame(name, parent string) (*Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.begin(ir.OpAddFrame, opArgs("frame", name, "parent", parent))
	f, err := b.addFrame(name, parent)
	return f, s.end(ir.OutcomeOK, err)
}

func (b *FrameBase) addFrame(name, parent string) (*Frame, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errInvariant("", "", "", "frame name is empty")
	}
	if _, ok := b.frames[name]; ok {
		return nil, errInvariant("", name, "", "frame already exists")
	}
	if parent != "" {
		if _, ok := b.frames[parent]; !ok {
			return nil, errNotFound("", name, "", "parent frame %q does not exist", parent)
		}
	}

	f := &Frame{name: name, parent: parent}
	b.frames[name] = f
	b.order = append(b.order, name)
	return f, nil
}

// DeleteFrame removes a frame and its procedure registrations. A frame that
// is still the parent of another frame cannot be deleted.
func (b *FrameBase) DeleteFrame(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.begin(ir.OpDeleteFrame, opArgs("frame", name))
	return s.end(ir.OutcomeOK, b.deleteFrame(name))
}

func (b *FrameBase) deleteFrame(name string) error {
	if _, ok := b.frames[name]; !ok {
		return errNotFound("", name, "", "frame does not exist")
	}
	for _, other := range b.order {
		if b.frames[other].parent == name {
			return errInvariant("", name, "", "frame is the parent of %q", other)
		}
	}

	delete(b.frames, name)
	b.order = slices.DeleteFunc(b.order, func(n string) bool { return n == name })
	for _, key := range slices.Clone(b.procOrder) {
		if key.Frame == name {
			b.unregister(key)
		}
	}
	return nil
}

// Reparent changes the parent of a frame. parent "" makes it a root. A change
// that would put the frame in its own ancestry is rejected, as is one that
// would let a local slot override a Same slot of the new ancestry.
func (b *FrameBase) Reparent(name, parent string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.begin(ir.OpReparent, opArgs("frame", name, "parent", parent))
	return s.end(ir.OutcomeOK, b.reparent(name, parent))
}

func (b *FrameBase) reparent(name, parent string) error {
	f, ok := b.frames[name]
	if !ok {
		return errNotFound("", name, "", "frame does not exist")
	}
	if parent == "" {
		f.parent = ""
		return nil
	}
	p, ok := b.frames[parent]
	if !ok {
		return errNotFound("", name, "", "parent frame %q does not exist", parent)
	}
	if parent == name || b.isAncestor(name, p) {
		return errInvariant("", name, "", "parent %q would create an inheritance cycle", parent)
	}
	for _, local := range f.slots {
		if inherited, owner := b.resolve(p, local.name); inherited != nil && inherited.inheritance == ir.InheritSame {
			return errInvariant("", name, local.name, "local slot would override slot inherited from %q with Same inheritance", owner.name)
		}
	}
	f.parent = parent
	return nil
}
