package harness

import "github.com/roach88/framekb/internal/ir"

// Trace event kinds.
const (
	KindOperation = "operation"
	KindFiring    = "firing"
)

// TraceEvent is one record of the scenario trace: either a public engine
// operation or a demon firing. Events are ordered by Seq.
type TraceEvent struct {
	Kind  string `json:"kind"`
	Seq   int64  `json:"seq"`
	Token string `json:"token"`

	// Operation fields.
	Op      ir.OpName   `json:"op,omitempty"`
	Args    ir.IRObject `json:"args,omitempty"`
	Outcome string      `json:"outcome,omitempty"`
	Detail  string      `json:"detail,omitempty"`

	// Firing fields.
	Frame      string           `json:"frame,omitempty"`
	Owner      string           `json:"owner,omitempty"`
	Slot       string           `json:"slot,omitempty"`
	Demon      ir.DemonKind     `json:"demon,omitempty"`
	Procedure  ir.ProcedureKind `json:"procedure,omitempty"`
	Result     string           `json:"result,omitempty"`
	Found      bool             `json:"found,omitempty"`
	Suppressed bool             `json:"suppressed,omitempty"`
}

func operationEvent(op ir.Operation) TraceEvent {
	return TraceEvent{
		Kind:    KindOperation,
		Seq:     op.Seq,
		Token:   op.Token,
		Op:      op.Op,
		Args:    op.Args,
		Outcome: op.Outcome,
		Detail:  op.Detail,
	}
}

func firingEvent(f ir.Firing) TraceEvent {
	return TraceEvent{
		Kind:       KindFiring,
		Seq:        f.Seq,
		Token:      f.Token,
		Frame:      f.Frame,
		Owner:      f.Owner,
		Slot:       f.Slot,
		Demon:      f.Demon,
		Procedure:  f.Procedure,
		Result:     f.Result,
		Found:      f.Found,
		Suppressed: f.Suppressed,
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds every recorded operation and firing, in seq order,
	// captured before assertions run.
	Trace []TraceEvent `json:"trace"`

	// Errors lists expectation and assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
