package engine

import (
	"strings"

	"github.com/roach88/framekb/internal/ir"
	"github.com/roach88/framekb/internal/queryir"
)

// FindFrames returns, in registry order, every frame satisfying all of the
// conditions. Each condition is slot=value or @type=T. An empty list
// matches every frame. A malformed condition is an INVARIANT_VIOLATION.
func (b *FrameBase) FindFrames(conditions []string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.begin(ir.OpFindFrames, ir.IRObject{"conditions": ir.IRString(strings.Join(conditions, ","))})
	p, err := queryir.Parse(conditions)
	if err != nil {
		e := errInvariant("", "", "", "malformed condition")
		e.Err = err
		return nil, s.end("", e)
	}
	return b.findFrames(s, p)
}

// FindFramesMatching is FindFrames for an already parsed predicate.
func (b *FrameBase) FindFramesMatching(p queryir.Predicate) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.begin(ir.OpFindFrames, ir.IRObject{"conditions": ir.IRString(p.String())})
	return b.findFrames(s, p)
}

func (b *FrameBase) findFrames(s *opScope, p queryir.Predicate) ([]string, error) {
	if res := queryir.Validate(p); !res.Satisfiable {
		b.logger.Info("query can never match", "conditions", p.String(), "warnings", res.Warnings)
	}

	out := []string{}
	for _, name := range b.order {
		ok, err := b.matches(b.frames[name], p)
		if err != nil {
			return nil, s.end("", err)
		}
		if ok {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return out, s.end(ir.OutcomeNoValue, nil)
	}
	return out, s.end(ir.OutcomeOK, nil)
}

// firstMatch returns the first frame in registry order, skipping origin,
// that satisfies p.
func (b *FrameBase) firstMatch(origin string, p queryir.Predicate) (string, bool, error) {
	for _, name := range b.order {
		if name == origin {
			continue
		}
		ok, err := b.matches(b.frames[name], p)
		if err != nil {
			return "", false, err
		}
		if ok {
			return name, true, nil
		}
	}
	return "", false, nil
}

// matches evaluates p against f.
//
// Equals reads the slot exactly as GetSlotValue would, so inherited values
// and IF-NEEDED demons take part. The value is compared as text; a slot
// that does not resolve or yields no value never matches. HasSlotType
// looks only at f's local slots.
func (b *FrameBase) matches(f *Frame, p queryir.Predicate) (bool, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		slot, owner := b.resolve(f, pred.Slot)
		if slot == nil {
			return false, nil
		}
		v, err := slot.read(b, f, owner)
		if err != nil {
			return false, err
		}
		text, ok := ir.Text(v)
		return ok && text == pred.Value, nil

	case queryir.HasSlotType:
		for _, s := range f.slots {
			if s.typ == pred.Type {
				return true, nil
			}
		}
		return false, nil

	case queryir.And:
		for _, sub := range pred.Predicates {
			ok, err := b.matches(f, sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	default:
		return false, errInvariant("", f.name, "", "unsupported predicate %T", p)
	}
}
