package engine

import (
	"fmt"

	"github.com/roach88/framekb/internal/ir"
)

// Load populates the base from compiled frame definitions.
//
// Definitions are applied in order, so a parent must precede its children
// (the compiler emits them that way). For each frame the slots are added
// first, then their procedures: IF-NEEDED, IF-ADDED, then a plain
// procedure. Load stops at the first error; frames applied before it stay.
func (b *FrameBase) Load(defs []ir.FrameDef) error {
	for _, fd := range defs {
		if _, err := b.AddFrame(fd.Name, fd.Parent); err != nil {
			return fmt.Errorf("load frame %s: %w", fd.Name, err)
		}
		for _, sd := range fd.Slots {
			if err := b.loadSlot(fd.Name, sd); err != nil {
				return fmt.Errorf("load frame %s: %w", fd.Name, err)
			}
		}
	}
	b.logger.Info("knowledge base loaded", "frames", len(defs))
	return nil
}

func (b *FrameBase) loadSlot(frame string, sd ir.SlotDef) error {
	typ := sd.Type
	if typ == "" {
		typ = ir.SlotText
	}
	if err := b.AddSlot(frame, sd.Name, typ, sd.Inheritance, sd.Value); err != nil {
		return err
	}

	hooks := []struct {
		demon ir.DemonKind
		def   *ir.ProcedureDef
	}{
		{ir.DemonIfNeeded, sd.IfNeeded},
		{ir.DemonIfAdded, sd.IfAdded},
		{ir.DemonNone, sd.Procedure},
	}
	for _, h := range hooks {
		if h.def == nil {
			continue
		}
		if err := b.AttachProcedure(frame, sd.Name, h.demon, h.def.Kind, h.def.Payload); err != nil {
			return err
		}
	}
	return nil
}
