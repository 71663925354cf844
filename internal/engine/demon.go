package engine

import (
	"fmt"

	"github.com/roach88/framekb/internal/ir"
)

// Demon is a procedure bound to a slot event.
type Demon struct {
	kind ir.DemonKind
	proc Procedure
}

// NewDemon binds proc to an IF-NEEDED or IF-ADDED event.
func NewDemon(kind ir.DemonKind, proc Procedure) (*Demon, error) {
	if kind != ir.DemonIfNeeded && kind != ir.DemonIfAdded {
		return nil, fmt.Errorf("demon kind must be IF_NEEDED or IF_ADDED, got %q", kind)
	}
	if proc == nil {
		return nil, fmt.Errorf("demon requires a procedure")
	}
	return &Demon{kind: kind, proc: proc}, nil
}

// Kind returns the event the demon is bound to.
func (d *Demon) Kind() ir.DemonKind { return d.kind }

// Procedure returns the wrapped procedure.
func (d *Demon) Procedure() Procedure { return d.proc }

func (d *Demon) String() string {
	return fmt.Sprintf("%s %s", d.kind, d.proc)
}
