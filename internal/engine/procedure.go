package engine

import (
	"fmt"

	"github.com/roach88/framekb/internal/ir"
	"github.com/roach88/framekb/internal/queryir"
)

// Outcome is the result of running a procedure.
//
// Found is false only for a FIND that matched nothing; Value is then nil.
// A NotFound outcome is a normal result, not an error.
type Outcome struct {
	Value ir.IRValue
	Found bool
}

// NotFound is the outcome of a FIND that matched no frame.
var NotFound = Outcome{}

// Text renders the outcome for display. A NotFound outcome renders as "".
func (o Outcome) Text() string {
	s, _ := ir.Text(o.Value)
	return s
}

// Procedure is the sealed set of attachable behaviors: *Print and *Find.
type Procedure interface {
	Kind() ir.ProcedureKind

	// Payload returns the text the procedure was created from.
	Payload() string

	fmt.Stringer

	execute(env *env) (Outcome, error)
}

// env is what a running procedure may see: the base it runs against and
// the frame the triggering call was issued on.
type env struct {
	base *FrameBase

	// origin is excluded from FIND scans.
	origin string

	owner string
	slot  string
}

// Print returns fixed text.
type Print struct {
	Text string
}

func (p *Print) Kind() ir.ProcedureKind { return ir.ProcPrint }

func (p *Print) Payload() string { return p.Text }

func (p *Print) String() string { return fmt.Sprintf("PRINT %q", p.Text) }

func (p *Print) execute(*env) (Outcome, error) {
	return Outcome{Value: ir.IRString(p.Text), Found: true}, nil
}

// Find returns the name of the first frame in registry order, other than
// the origin frame, that satisfies every condition.
type Find struct {
	Conditions queryir.And
	source     string
}

func (f *Find) Kind() ir.ProcedureKind { return ir.ProcFind }

func (f *Find) Payload() string { return f.source }

func (f *Find) String() string { return "FIND " + f.Conditions.String() }

func (f *Find) execute(e *env) (Outcome, error) {
	name, ok, err := e.base.firstMatch(e.origin, f.Conditions)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return NotFound, nil
	}
	return Outcome{Value: ir.IRString(name), Found: true}, nil
}

// NewProcedure builds a procedure from its kind and payload. For FIND the
// payload is a comma-separated condition list such as "color=red, @type=BOOL".
func NewProcedure(kind ir.ProcedureKind, payload string) (Procedure, error) {
	switch kind {
	case ir.ProcPrint:
		return &Print{Text: payload}, nil
	case ir.ProcFind:
		conds, err := queryir.ParseText(payload)
		if err != nil {
			return nil, err
		}
		return &Find{Conditions: conds, source: payload}, nil
	}
	return nil, fmt.Errorf("unknown procedure kind %q", kind)
}
