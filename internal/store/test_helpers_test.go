package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/framekb/internal/ir"
	"github.com/roach88/framekb/internal/queryir"
)

// createTestStore creates a file-backed store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testOperation(t *testing.T, token string, op ir.OpName, args ir.IRObject, seq int64) ir.Operation {
	t.Helper()
	id, err := ir.OperationID(token, op, args, seq)
	require.NoError(t, err)
	return ir.Operation{ID: id, Token: token, Op: op, Args: args, Outcome: ir.OutcomeOK, Seq: seq}
}

func testFiring(t *testing.T, token, frame, owner, slot string, demon ir.DemonKind, seq int64) ir.Firing {
	t.Helper()
	id, err := ir.FiringID(token, frame, slot, demon, seq)
	require.NoError(t, err)
	return ir.Firing{
		ID:        id,
		Token:     token,
		Frame:     frame,
		Owner:     owner,
		Slot:      slot,
		Demon:     demon,
		Procedure: ir.ProcPrint,
		Result:    "tweet",
		Found:     true,
		Seq:       seq,
	}
}

func mustParse(t *testing.T, conditions ...string) queryir.And {
	t.Helper()
	p, err := queryir.Parse(conditions)
	require.NoError(t, err)
	return p
}
