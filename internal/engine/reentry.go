package engine

import "github.com/roach88/framekb/internal/ir"

// firingKey identifies a demon by the slot that owns it.
// The owner frame is used rather than the requesting frame, so a demon on an
// inherited slot is one demon no matter which descendant triggered it.
type firingKey struct {
	owner string
	slot  string
	demon ir.DemonKind
}

// reentryGuard tracks the demons currently running on the call stack.
//
// A demon whose procedure reads its own slot (directly, or through a FIND
// that evaluates the slot on another frame that inherits it) would otherwise
// recurse forever. While a demon is active, further attempts to fire it are
// suppressed and the inner read behaves as if the slot had no demon.
type reentryGuard struct {
	active map[firingKey]bool
}

func newReentryGuard() *reentryGuard {
	return &reentryGuard{active: make(map[firingKey]bool)}
}

// running reports whether k is already on the call stack.
func (g *reentryGuard) running(k firingKey) bool {
	return g.active[k]
}

func (g *reentryGuard) enter(k firingKey) {
	g.active[k] = true
}

func (g *reentryGuard) leave(k firingKey) {
	delete(g.active, k)
}

// reset clears all entries. Called at the start of each public operation.
func (g *reentryGuard) reset() {
	clear(g.active)
}
