package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/framekb/internal/ir"
	"github.com/roach88/framekb/internal/queryir"
	"github.com/roach88/framekb/internal/querysql"
)

var (
	operationColumns = []string{"id", "token", "op", "args", "outcome", "detail", "seq"}
	firingColumns    = []string{"id", "token", "frame", "owner", "slot", "demon", "procedure", "result", "found", "suppressed", "seq"}
)

// ReadOperations returns the operation records matching where, in seq order.
// A nil where returns every record. Returns an empty slice, not nil, when
// nothing matches.
func (s *Store) ReadOperations(ctx context.Context, where queryir.Predicate) ([]ir.Operation, error) {
	query, params, err := querysql.Compile(querysql.Operations, operationColumns, where)
	if err != nil {
		return nil, fmt.Errorf("read operations: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	ops := []ir.Operation{}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}

// ReadFirings returns the firing records matching where, in seq order.
func (s *Store) ReadFirings(ctx context.Context, where queryir.Predicate) ([]ir.Firing, error) {
	query, params, err := querysql.Compile(querysql.Firings, firingColumns, where)
	if err != nil {
		return nil, fmt.Errorf("read firings: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query firings: %w", err)
	}
	defer rows.Close()

	firings := []ir.Firing{}
	for rows.Next() {
		f, err := scanFiring(rows)
		if err != nil {
			return nil, err
		}
		firings = append(firings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate firings: %w", err)
	}
	return firings, nil
}

// CountFirings returns the number of non-suppressed firings of demon on the
// slot owned by owner.
func (s *Store) CountFirings(ctx context.Context, owner, slot string, demon ir.DemonKind) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM firings
		WHERE owner = ? AND slot = ? AND demon = ? AND suppressed = 0
	`, owner, slot, string(demon)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count firings: %w", err)
	}
	return n, nil
}

// LastSeq returns the highest seq recorded, or 0 for an empty log.
// A clock resumed from it keeps seq numbers unique across sessions.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM (
			SELECT seq FROM operations
			UNION ALL
			SELECT seq FROM firings
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

func scanOperation(rows *sql.Rows) (ir.Operation, error) {
	var (
		op      ir.Operation
		name    string
		argsRaw string
	)
	if err := rows.Scan(&op.ID, &op.Token, &name, &argsRaw, &op.Outcome, &op.Detail, &op.Seq); err != nil {
		return ir.Operation{}, fmt.Errorf("scan operation: %w", err)
	}
	op.Op = ir.OpName(name)

	args, err := unmarshalArgs(argsRaw)
	if err != nil {
		return ir.Operation{}, fmt.Errorf("operation %s: %w", op.ID, err)
	}
	op.Args = args
	return op, nil
}

func scanFiring(rows *sql.Rows) (ir.Firing, error) {
	var (
		f                 ir.Firing
		demon, procedure  string
		found, suppressed int
	)
	err := rows.Scan(&f.ID, &f.Token, &f.Frame, &f.Owner, &f.Slot,
		&demon, &procedure, &f.Result, &found, &suppressed, &f.Seq)
	if err != nil {
		return ir.Firing{}, fmt.Errorf("scan firing: %w", err)
	}
	f.Demon = ir.DemonKind(demon)
	f.Procedure = ir.ProcedureKind(procedure)
	f.Found = found != 0
	f.Suppressed = suppressed != 0
	return f, nil
}
