package engine

import (
	"context"
	"errors"

	"github.com/roach88/framekb/internal/ir"
)

// opScope brackets one public operation: it assigns the token and seq,
// resets per-operation guards, and records the outcome.
type opScope struct {
	b    *FrameBase
	op   ir.OpName
	args ir.IRObject
	seq  int64
}

// begin must be called with b.mu held.
func (b *FrameBase) begin(op ir.OpName, args ir.IRObject) *opScope {
	b.token = b.tokens.Generate()
	b.guard.reset()
	b.depth.reset()
	return &opScope{b: b, op: op, args: args, seq: b.clock.Next()}
}

// end records the operation. outcome is used when err is nil.
// It returns err with the operation name filled in.
func (s *opScope) end(outcome string, err error) error {
	detail := ""
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.Op == "" {
			e.Op = s.op
		}
		detail = err.Error()
		switch Code(err) {
		case ErrCodeNotFound:
			outcome = ir.OutcomeNotFound
		case ErrCodeInvariantViolation:
			outcome = ir.OutcomeRejected
		default:
			outcome = ir.OutcomeFailed
		}
	}

	b := s.b
	level := b.logger.Debug
	if err != nil {
		level = b.logger.Info
	}
	level("operation",
		"token", b.token,
		"op", s.op,
		"seq", s.seq,
		"outcome", outcome)

	if b.recorder != nil {
		rec := ir.Operation{
			Token:   b.token,
			Op:      s.op,
			Args:    s.args,
			Outcome: outcome,
			Detail:  detail,
			Seq:     s.seq,
		}
		id, idErr := ir.OperationID(rec.Token, rec.Op, rec.Args, rec.Seq)
		if idErr != nil {
			b.logger.Error("operation id failed", "op", s.op, "error", idErr)
			return err
		}
		rec.ID = id
		if recErr := b.recorder.RecordOperation(context.Background(), rec); recErr != nil {
			b.logger.Error("recording operation failed",
				"token", b.token,
				"op", s.op,
				"error", recErr)
		}
	}
	return err
}

func opArgs(kv ...string) ir.IRObject {
	obj := make(ir.IRObject, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		obj[kv[i]] = ir.IRString(kv[i+1])
	}
	return obj
}
