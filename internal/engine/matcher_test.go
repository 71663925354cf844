package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/framekb/internal/ir"
	"github.com/roach88/framekb/internal/queryir"
	"github.com/roach88/framekb/internal/testutil"
)

func shapesBase(t *testing.T) (*FrameBase, *testutil.MemRecorder) {
	t.Helper()
	b, rec := newTestBase(t)
	for _, f := range []struct {
		name, color string
		size        int64
	}{
		{"F1", "red", 3},
		{"F2", "red", 5},
		{"F3", "blue", 3},
	} {
		mustFrame(t, b, f.name, "")
		mustSlot(t, b, f.name, "color", ir.SlotText, ir.InheritUnique, ir.IRString(f.color))
		mustSlot(t, b, f.name, "size", ir.SlotText, ir.InheritUnique, ir.IRInt(f.size))
	}
	return b, rec
}

func TestFindFrames(t *testing.T) {
	b, _ := shapesBase(t)

	tests := []struct {
		name  string
		conds []string
		want  []string
	}{
		{"conjunction", []string{"color=red", "size=3"}, []string{"F1"}},
		{"single", []string{"color=red"}, []string{"F1", "F2"}},
		{"int coerced to text", []string{"size=3"}, []string{"F1", "F3"}},
		{"no match", []string{"color=green"}, []string{}},
		{"missing slot", []string{"weight=1"}, []string{}},
		{"empty matches all", nil, []string{"F1", "F2", "F3"}},
		{"type directive", []string{"@type=TEXT"}, []string{"F1", "F2", "F3"}},
		{"type directive miss", []string{"@type=LISP"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.FindFrames(tt.conds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindFrames_Malformed(t *testing.T) {
	b, rec := shapesBase(t)
	before := b.Frames()

	_, err := b.FindFrames([]string{"color"})
	require.Error(t, err)
	assert.True(t, IsInvariantViolation(err))

	var pe *queryir.ParseError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, ir.OutcomeRejected, lastOutcome(rec, ir.OpFindFrames))
	assert.Equal(t, before, b.Frames())
}

func TestFindFrames_AbsentValueNeverMatches(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "A", "")
	mustSlot(t, b, "A", "note", ir.SlotText, ir.InheritUnique, nil)

	for _, lit := range []string{"note=", "note=None", "note=nil"} {
		got, err := b.FindFrames([]string{lit})
		require.NoError(t, err)
		assert.Empty(t, got, lit)
	}
}

func TestFindFrames_BoolCoercion(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "A", "")
	mustSlot(t, b, "A", "flies", ir.SlotBool, ir.InheritUnique, ir.IRBool(true))

	got, err := b.FindFrames([]string{"flies=true"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got)
}

func TestFindFrames_InheritedValuesAndDemons(t *testing.T) {
	b, rec := newTestBase(t)
	mustFrame(t, b, "Bird", "")
	mustFrame(t, b, "Robin", "Bird")
	mustSlot(t, b, "Bird", "covering", ir.SlotText, ir.InheritUnique, ir.IRString("feathers"))
	mustSlot(t, b, "Bird", "sound", ir.SlotText, ir.InheritUnique, nil)
	require.NoError(t, b.AttachProcedure("Bird", "sound", ir.DemonIfNeeded, ir.ProcPrint, "tweet"))

	got, err := b.FindFrames([]string{"covering=feathers", "sound=tweet"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bird", "Robin"}, got)
	assert.Equal(t, 2, rec.Count("Bird", "sound", ir.DemonIfNeeded))
}

func TestFindFramesMatching(t *testing.T) {
	b, _ := shapesBase(t)
	got, err := b.FindFramesMatching(mustParse(t, "color=blue"))
	require.NoError(t, err)
	assert.Equal(t, []string{"F3"}, got)
}

// A FIND procedure skips the frame it was run from.
func TestFindProcedure(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "Seeker", "")
	require.NoError(t, b.AttachProcedure("Seeker", "partner", ir.DemonNone, ir.ProcFind, "@type=LISP"))

	out, err := b.RunProcedure("Seeker", "partner")
	require.NoError(t, err)
	assert.False(t, out.Found, "only the origin frame carries a LISP slot")
	assert.Equal(t, NotFound, out)

	mustFrame(t, b, "Other", "")
	mustFrame(t, b, "Marked", "")
	require.NoError(t, b.AttachProcedure("Marked", "m", ir.DemonNone, ir.ProcPrint, "x"))
	mustFrame(t, b, "Marked2", "")
	require.NoError(t, b.AttachProcedure("Marked2", "m", ir.DemonNone, ir.ProcPrint, "y"))

	for range 3 {
		out, err = b.RunProcedure("Seeker", "partner")
		require.NoError(t, err)
		assert.True(t, out.Found)
		assert.Equal(t, "Marked", out.Text(), "first match in registry order")
	}
}

func TestRunProcedure(t *testing.T) {
	b, rec := newTestBase(t)
	mustFrame(t, b, "Bird", "")
	mustFrame(t, b, "Robin", "Bird")
	require.NoError(t, b.AttachProcedure("Bird", "describe", ir.DemonNone, ir.ProcPrint, "a bird"))

	out, err := b.RunProcedure("Robin", "describe")
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("a bird"), out.Value)
	assert.Equal(t, ir.OutcomeOK, lastOutcome(rec, ir.OpRunProcedure))

	p, ok := b.Procedure(ProcedureKey{Frame: "Bird", Slot: "describe"})
	require.True(t, ok)
	assert.Equal(t, ir.ProcPrint, p.Kind())
	assert.Equal(t, "a bird", p.Payload())

	mustSlot(t, b, "Bird", "plain", ir.SlotText, ir.InheritUnique, nil)
	_, err = b.RunProcedure("Bird", "plain")
	assert.True(t, IsNotFound(err))
	_, err = b.RunProcedure("Bird", "nothing")
	assert.True(t, IsNotFound(err))
}

func TestAttachProcedure_Errors(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "A", "")

	assert.True(t, IsNotFound(b.AttachProcedure("Ghost", "s", ir.DemonNone, ir.ProcPrint, "x")))
	assert.True(t, IsInvariantViolation(b.AttachProcedure("A", "s", ir.DemonNone, ir.ProcFind, "broken")))
	assert.True(t, IsInvariantViolation(b.AttachProcedure("A", "s", ir.DemonNone, "SING", "x")))
	assert.True(t, IsInvariantViolation(b.AttachProcedure("A", "s", "WHENEVER", ir.ProcPrint, "x")))

	f, _ := b.Frame("A")
	assert.Empty(t, f.Slots(), "rejected attachments leave no slot behind")
}

func TestAttachProcedure_CreatesLispSlot(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "A", "")
	require.NoError(t, b.AttachProcedure("A", "act", ir.DemonIfNeeded, ir.ProcPrint, "done"))

	info, err := b.DescribeSlot("A", "act")
	require.NoError(t, err)
	assert.Equal(t, ir.SlotLisp, info.Type)
	assert.Equal(t, ir.InheritUnique, info.Inheritance)
	assert.Equal(t, []ProcedureKey{{Frame: "A", Slot: "act"}}, b.Procedures())
}

func TestAttachProcedure_NormalizesKinds(t *testing.T) {
	b, rec := newTestBase(t)
	mustFrame(t, b, "A", "")
	require.NoError(t, b.AttachProcedure("A", "s", "if-needed", "print", "hi"))
	require.NoError(t, b.AttachProcedure("A", "t", "", "find", "s=hi"))

	v, ok := mustGet(t, b, "A", "s")
	require.True(t, ok)
	assert.Equal(t, ir.IRString("hi"), v)
	assert.Equal(t, 1, rec.Count("A", "s", ir.DemonIfNeeded))

	info, err := b.DescribeSlot("A", "s")
	require.NoError(t, err)
	assert.Equal(t, `PRINT "hi"`, info.IfNeeded)

	p, ok := b.Procedure(ProcedureKey{Frame: "A", Slot: "t"})
	require.True(t, ok)
	assert.Equal(t, ir.ProcFind, p.Kind())
	info, err = b.DescribeSlot("A", "t")
	require.NoError(t, err)
	assert.Empty(t, info.IfNeeded, "an empty demon kind registers without a hook")
}
