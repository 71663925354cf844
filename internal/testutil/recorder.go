package testutil

import (
	"context"
	"sync"

	"github.com/roach88/framekb/internal/ir"
)

// MemRecorder is an in-memory trace recorder. It satisfies engine.Recorder
// and is used where a SQLite store would only slow a test down.
type MemRecorder struct {
	mu      sync.Mutex
	ops     []ir.Operation
	firings []ir.Firing
}

// RecordOperation appends op.
func (r *MemRecorder) RecordOperation(_ context.Context, op ir.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
	return nil
}

// RecordFiring appends f.
func (r *MemRecorder) RecordFiring(_ context.Context, f ir.Firing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.firings = append(r.firings, f)
	return nil
}

// Operations returns a copy of the recorded operations.
func (r *MemRecorder) Operations() []ir.Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ir.Operation{}, r.ops...)
}

// Firings returns a copy of the recorded firings.
func (r *MemRecorder) Firings() []ir.Firing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ir.Firing{}, r.firings...)
}

// Count returns the number of non-suppressed firings of demon on the slot
// owned by owner.
func (r *MemRecorder) Count(owner, slot string, demon ir.DemonKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.firings {
		if f.Owner == owner && f.Slot == slot && f.Demon == demon && !f.Suppressed {
			n++
		}
	}
	return n
}

// Last returns the most recent operation named op.
func (r *MemRecorder) Last(op ir.OpName) (ir.Operation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.ops) - 1; i >= 0; i-- {
		if r.ops[i].Op == op {
			return r.ops[i], true
		}
	}
	return ir.Operation{}, false
}
