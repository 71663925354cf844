package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/framekb/internal/ir"
	"github.com/roach88/framekb/internal/store"
)

func TestQuery(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"inherited value", []string{"color=red"}, "Apple\nCherry\n"},
		{"slot type", []string{"@type=FRAME"}, "Thing\n"},
		{"no match", []string{"color=blue"}, "No frames found\n"},
		{"separate arguments", []string{"color=red", "note=x"}, "No frames found\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewQueryCommand(&RootOptions{Format: "text"}), append([]string{kbDir}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestQueryMalformedCondition(t *testing.T) {
	_, err := execute(t, NewQueryCommand(&RootOptions{Format: "text"}), kbDir, "color")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestQueryMalformedConditionJSON(t *testing.T) {
	out, err := execute(t, NewQueryCommand(&RootOptions{Format: "json"}), kbDir, "color")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvariantViolation, resp.Error.Code)
}

func TestQueryJSON(t *testing.T) {
	out, err := execute(t, NewQueryCommand(&RootOptions{Format: "json"}), kbDir, "color=red")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   QueryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"color=red"}, resp.Data.Conditions)
	assert.Equal(t, []string{"Apple", "Cherry"}, resp.Data.Frames)
}

func TestGet(t *testing.T) {
	tests := []struct {
		name        string
		frame, slot string
		want        string
	}{
		{"local value", "Banana", "color", "yellow\n"},
		{"if-needed demon", "Apple", "similar", "Cherry\n"},
		{"if-needed skips origin", "Cherry", "similar", "Apple\n"},
		{"no value", "Apple", "note", "no value\n"},
		{"demon finds nothing", "Apple", "lonely", "no value\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewGetCommand(&RootOptions{Format: "text"}), kbDir, tt.frame, tt.slot)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestGetMissingSlot(t *testing.T) {
	out, err := execute(t, NewGetCommand(&RootOptions{Format: "json"}), kbDir, "Banana", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeFrameNotFound, resp.Error.Code)
}

func TestGetJSON(t *testing.T) {
	out, err := execute(t, NewGetCommand(&RootOptions{Format: "json"}), kbDir, "Banana", "color")
	require.NoError(t, err)

	var resp struct {
		Data SlotValueResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, SlotValueResult{Frame: "Banana", Slot: "color", Value: "yellow", Found: true}, resp.Data)
}

func TestGetJSONNoValue(t *testing.T) {
	out, err := execute(t, NewGetCommand(&RootOptions{Format: "json"}), kbDir, "Apple", "note")
	require.NoError(t, err)
	assert.NotContains(t, out, `"value"`)
	assert.Contains(t, out, `"found":false`)
}

func TestRun(t *testing.T) {
	tests := []struct {
		name        string
		frame, slot string
		want        string
	}{
		{"print", "Apple", "describe", "a red apple\n"},
		{"find from inherited slot", "Banana", "similar", "Apple\n"},
		{"find with no match", "Apple", "lonely", "not found\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), kbDir, tt.frame, tt.slot)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRunMissingSlot(t *testing.T) {
	_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), kbDir, "Cherry", "describe")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestRunJSON(t *testing.T) {
	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}), kbDir, "Apple", "lonely")
	require.NoError(t, err)

	var resp struct {
		Data ProcedureResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ProcedureResult{Frame: "Apple", Slot: "lonely"}, resp.Data)
}

func TestSessionRejectsMaxDepth(t *testing.T) {
	_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), kbDir, "Apple", "describe", "--max-depth", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSessionBadKnowledgeBase(t *testing.T) {
	_, err := execute(t, NewGetCommand(&RootOptions{Format: "text"}), badKBDir, "A", "x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSessionRecordsTrace(t *testing.T) {
	db := filepath.Join(t.TempDir(), "trace.db")

	for range 2 {
		out, err := execute(t, NewGetCommand(&RootOptions{Format: "text"}), kbDir, "Apple", "similar", "--db", db)
		require.NoError(t, err)
		assert.Equal(t, "Cherry\n", out)
	}

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	ops, err := st.ReadOperations(t.Context(), nil)
	require.NoError(t, err)
	require.Len(t, ops, 30)

	seen := map[int64]bool{}
	for i, op := range ops {
		assert.False(t, seen[op.Seq], "seq %d reused", op.Seq)
		seen[op.Seq] = true
		if i > 0 {
			assert.Greater(t, op.Seq, ops[i-1].Seq)
		}
	}
	assert.Equal(t, ir.OpGetSlotValue, ops[14].Op)
	assert.Equal(t, ir.OpGetSlotValue, ops[29].Op)

	firings, err := st.ReadFirings(t.Context(), nil)
	require.NoError(t, err)
	require.Len(t, firings, 2)
	for _, f := range firings {
		assert.Equal(t, "Apple", f.Frame)
		assert.Equal(t, "Thing", f.Owner)
		assert.Equal(t, ir.DemonIfNeeded, f.Demon)
		assert.Greater(t, f.Seq, ops[0].Seq)
	}
	assert.Greater(t, firings[1].Seq, ops[15].Seq)
}

func TestSplitConditions(t *testing.T) {
	assert.Equal(t, []string{"a=1", "b=2", "c=3"}, splitConditions([]string{"a=1, b=2", " c=3 "}))
	assert.Equal(t, []string{"a=1"}, splitConditions([]string{"a=1,,", ""}))
	assert.Nil(t, splitConditions(nil))
}
