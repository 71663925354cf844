package store

import (
	"context"
	"fmt"

	"github.com/roach88/framekb/internal/ir"
)

// RecordOperation appends an operation record. Duplicate IDs are ignored.
func (s *Store) RecordOperation(ctx context.Context, op ir.Operation) error {
	args, err := marshalArgs(op.Args)
	if err != nil {
		return fmt.Errorf("record operation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO operations (id, token, op, args, outcome, detail, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		op.ID,
		op.Token,
		string(op.Op),
		args,
		op.Outcome,
		op.Detail,
		op.Seq,
	)
	if err != nil {
		return fmt.Errorf("record operation: %w", err)
	}
	return nil
}

// RecordFiring appends a demon firing record. Duplicate IDs are ignored.
func (s *Store) RecordFiring(ctx context.Context, f ir.Firing) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO firings
		(id, token, frame, owner, slot, demon, procedure, result, found, suppressed, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		f.ID,
		f.Token,
		f.Frame,
		f.Owner,
		f.Slot,
		string(f.Demon),
		string(f.Procedure),
		f.Result,
		boolToInt(f.Found),
		boolToInt(f.Suppressed),
		f.Seq,
	)
	if err != nil {
		return fmt.Errorf("record firing: %w", err)
	}
	return nil
}
