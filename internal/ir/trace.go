package ir

// OpName identifies a public engine operation in the trace log.
type OpName string

const (
	OpAddFrame     OpName = "add_frame"
	OpDeleteFrame  OpName = "delete_frame"
	OpReparent     OpName = "reparent"
	OpAddSlot      OpName = "add_slot"
	OpDeleteSlot   OpName = "delete_slot"
	OpSetSlotValue OpName = "set"
	OpGetSlotValue OpName = "get"
	OpAttach       OpName = "attach"
	OpRunProcedure OpName = "run"
	OpFindFrames   OpName = "find"
)

// Outcome values recorded for operations.
const (
	OutcomeOK       = "ok"
	OutcomeNoValue  = "no_value"
	OutcomeNotFound = "not_found"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Operation is the trace record of one public engine operation.
type Operation struct {
	ID      string   `json:"id"`
	Token   string   `json:"token"`
	Op      OpName   `json:"op"`
	Args    IRObject `json:"args"`
	Outcome string   `json:"outcome"`
	Detail  string   `json:"detail,omitempty"`
	Seq     int64    `json:"seq"`
}

// Firing is the trace record of one demon invocation.
//
// Frame is the frame the read or write was issued on; Owner is the frame
// that owns the slot (they differ for inherited slots). Suppressed marks a
// re-entrant firing that was skipped.
type Firing struct {
	ID         string        `json:"id"`
	Token      string        `json:"token"`
	Frame      string        `json:"frame"`
	Owner      string        `json:"owner"`
	Slot       string        `json:"slot"`
	Demon      DemonKind     `json:"demon"`
	Procedure  ProcedureKind `json:"procedure"`
	Result     string        `json:"result,omitempty"`
	Found      bool          `json:"found"`
	Suppressed bool          `json:"suppressed,omitempty"`
	Seq        int64         `json:"seq"`
}
