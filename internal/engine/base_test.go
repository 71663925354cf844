package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/framekb/internal/ir"
)

func TestAddFrame(t *testing.T) {
	b, rec := newTestBase(t)

	f, err := b.AddFrame("Animal", "")
	require.NoError(t, err)
	assert.Equal(t, "Animal", f.Name())
	assert.Equal(t, "", f.Parent())

	f, err = b.AddFrame("Bird", "Animal")
	require.NoError(t, err)
	assert.Equal(t, "Animal", f.Parent())

	assert.Equal(t, []string{"Animal", "Bird"}, b.Frames())
	assert.Equal(t, ir.OutcomeOK, lastOutcome(rec, ir.OpAddFrame))
}

func TestAddFrame_Errors(t *testing.T) {
	b, rec := newTestBase(t)
	mustFrame(t, b, "Animal", "")

	_, err := b.AddFrame("Animal", "")
	assert.True(t, IsInvariantViolation(err), "duplicate name: %v", err)

	_, err = b.AddFrame("  ", "")
	assert.True(t, IsInvariantViolation(err), "empty name: %v", err)

	_, err = b.AddFrame("Bird", "Ghost")
	assert.True(t, IsNotFound(err), "unknown parent: %v", err)

	assert.Equal(t, []string{"Animal"}, b.Frames())
	assert.Equal(t, ir.OutcomeNotFound, lastOutcome(rec, ir.OpAddFrame))
}

func TestError_Message(t *testing.T) {
	b, _ := newTestBase(t)
	_, err := b.AddFrame("Bird", "Ghost")
	require.Error(t, err)
	assert.Equal(t, `NOT_FOUND: add_frame Bird: parent frame "Ghost" does not exist`, err.Error())
	assert.Equal(t, ErrCodeNotFound, Code(err))
}

// Same-inherited slots are shared: the child reads the parent's value and
// a write issued on the child lands on the parent's slot.
func TestSameInheritance_SharedSlot(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "A", "")
	mustFrame(t, b, "B", "A")
	mustSlot(t, b, "A", "color", ir.SlotText, ir.InheritSame, ir.IRString("red"))

	va, _ := mustGet(t, b, "A", "color")
	vb, _ := mustGet(t, b, "B", "color")
	assert.Equal(t, va, vb)

	refA, err := b.GetSlot("A", "color")
	require.NoError(t, err)
	refB, err := b.GetSlot("B", "color")
	require.NoError(t, err)
	assert.Same(t, refA.Slot, refB.Slot, "B must resolve to A's slot, not a copy")
	assert.True(t, refB.Inherited("B"))

	require.NoError(t, b.SetSlotValue("B", "color", ir.IRString("blue")))
	va, _ = mustGet(t, b, "A", "color")
	assert.Equal(t, ir.IRString("blue"), va)

	local, _ := b.Frame("B")
	assert.Nil(t, local.LocalSlot("color"), "write-through must not create a local slot")
}

func TestSameInheritance_OverrideRejected(t *testing.T) {
	b, rec := newTestBase(t)
	mustFrame(t, b, "A", "")
	mustFrame(t, b, "B", "A")
	mustSlot(t, b, "A", "color", ir.SlotText, ir.InheritSame, ir.IRString("red"))

	err := b.AddSlot("B", "color", ir.SlotText, ir.InheritUnique, ir.IRString("green"))
	require.Error(t, err)
	assert.True(t, IsInvariantViolation(err))
	assert.Equal(t, ir.OutcomeRejected, lastOutcome(rec, ir.OpAddSlot))

	v, _ := mustGet(t, b, "B", "color")
	assert.Equal(t, ir.IRString("red"), v)

	// A frame may always replace its own slot.
	require.NoError(t, b.AddSlot("A", "color", ir.SlotText, ir.InheritSame, ir.IRString("black")))
	v, _ = mustGet(t, b, "B", "color")
	assert.Equal(t, ir.IRString("black"), v)
}

func TestUniqueInheritance_LocalOverride(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "A", "")
	mustFrame(t, b, "B", "A")
	mustSlot(t, b, "A", "legs", ir.SlotText, ir.InheritUnique, ir.IRInt(4))

	v, _ := mustGet(t, b, "B", "legs")
	assert.Equal(t, ir.IRInt(4), v)

	mustSlot(t, b, "B", "legs", ir.SlotText, ir.InheritUnique, ir.IRInt(2))
	v, _ = mustGet(t, b, "B", "legs")
	assert.Equal(t, ir.IRInt(2), v)
	v, _ = mustGet(t, b, "A", "legs")
	assert.Equal(t, ir.IRInt(4), v)
}

func TestDeleteFrame(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "A", "")
	mustFrame(t, b, "B", "A")
	mustSlot(t, b, "B", "color", ir.SlotText, ir.InheritUnique, ir.IRString("red"))

	err := b.DeleteFrame("A")
	require.Error(t, err)
	assert.True(t, IsInvariantViolation(err))
	assert.Equal(t, []string{"A", "B"}, b.Frames(), "refused delete must leave the base unchanged")

	require.NoError(t, b.DeleteFrame("B"))
	assert.Equal(t, []string{"A"}, b.Frames())
	_, ok := b.Frame("B")
	assert.False(t, ok)

	found, err := b.FindFrames([]string{"color=red"})
	require.NoError(t, err)
	assert.Empty(t, found)

	_, _, err = b.GetSlotValue("B", "color")
	assert.True(t, IsNotFound(err))

	require.NoError(t, b.DeleteFrame("A"))
	assert.True(t, IsNotFound(b.DeleteFrame("A")))
}

func TestDeleteFrame_DropsProcedures(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "A", "")
	require.NoError(t, b.AttachProcedure("A", "greet", ir.DemonNone, ir.ProcPrint, "hi"))
	require.Len(t, b.Procedures(), 1)

	require.NoError(t, b.DeleteFrame("A"))
	assert.Empty(t, b.Procedures())
}

func TestReparent(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "A", "")
	mustFrame(t, b, "B", "A")
	mustFrame(t, b, "C", "B")
	mustFrame(t, b, "X", "")
	mustSlot(t, b, "X", "kind", ir.SlotText, ir.InheritUnique, ir.IRString("x"))

	assert.True(t, IsInvariantViolation(b.Reparent("A", "C")), "A under its own descendant")
	assert.True(t, IsInvariantViolation(b.Reparent("A", "A")), "self parent")
	assert.True(t, IsNotFound(b.Reparent("A", "Ghost")))
	assert.True(t, IsNotFound(b.Reparent("Ghost", "A")))

	require.NoError(t, b.Reparent("B", "X"))
	v, _ := mustGet(t, b, "C", "kind")
	assert.Equal(t, ir.IRString("x"), v)

	anc, err := b.Ancestors("C")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "X"}, anc)

	require.NoError(t, b.Reparent("B", ""))
	_, _, err = b.GetSlotValue("C", "kind")
	assert.True(t, IsNotFound(err))
}

func TestDeleteSlot(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "A", "")
	mustFrame(t, b, "B", "A")
	mustSlot(t, b, "A", "color", ir.SlotText, ir.InheritUnique, ir.IRString("red"))

	removed, err := b.DeleteSlot("B", "color")
	require.NoError(t, err)
	assert.False(t, removed, "inherited slots are not removed through a child")

	removed, err = b.DeleteSlot("A", "color")
	require.NoError(t, err)
	assert.True(t, removed)

	_, _, err = b.GetSlotValue("B", "color")
	assert.True(t, IsNotFound(err))

	_, err = b.DeleteSlot("Ghost", "color")
	assert.True(t, IsNotFound(err))
}

func TestSetSlotValue_CreatesTextSlot(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "A", "")

	require.NoError(t, b.SetSlotValue("A", "note", ir.IRString("hello")))

	info, err := b.DescribeSlot("A", "note")
	require.NoError(t, err)
	assert.Equal(t, ir.SlotText, info.Type)
	assert.Equal(t, ir.InheritUnique, info.Inheritance)
	assert.Equal(t, ir.IRString("hello"), info.Value)
	assert.False(t, info.Inherited)

	assert.True(t, IsNotFound(b.SetSlotValue("Ghost", "note", ir.IRString("x"))))
}

func TestGetSlotValue_NoValue(t *testing.T) {
	b, rec := newTestBase(t)
	mustFrame(t, b, "A", "")
	mustSlot(t, b, "A", "color", ir.SlotText, ir.InheritUnique, nil)

	v, ok := mustGet(t, b, "A", "color")
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, ir.OutcomeNoValue, lastOutcome(rec, ir.OpGetSlotValue))

	_, _, err := b.GetSlotValue("A", "size")
	assert.True(t, IsNotFound(err))
}

// Re-adding a slot replaces it, demons and registered procedure included.
func TestAddSlot_ReplacesLocalSlot(t *testing.T) {
	b, rec := newTestBase(t)
	mustFrame(t, b, "A", "")
	mustSlot(t, b, "A", "color", ir.SlotText, ir.InheritUnique, nil)
	require.NoError(t, b.AttachProcedure("A", "color", ir.DemonIfNeeded, ir.ProcPrint, "grey"))

	v, _ := mustGet(t, b, "A", "color")
	assert.Equal(t, ir.IRString("grey"), v)

	mustSlot(t, b, "A", "color", ir.SlotBool, ir.InheritUnique, nil)

	f, _ := b.Frame("A")
	require.Len(t, f.Slots(), 1, "no duplicate entries")

	ref, err := b.GetSlot("A", "color")
	require.NoError(t, err)
	assert.Equal(t, ir.SlotBool, ref.Slot.Type())
	assert.Nil(t, ref.Slot.IfNeeded())
	assert.Empty(t, b.Procedures())

	_, ok := mustGet(t, b, "A", "color")
	assert.False(t, ok)
	assert.Equal(t, 1, rec.Count("A", "color", ir.DemonIfNeeded))

	require.NoError(t, b.AttachProcedure("A", "color", ir.DemonIfNeeded, ir.ProcPrint, "white"))
	v, _ = mustGet(t, b, "A", "color")
	assert.Equal(t, ir.IRString("white"), v)
}

func TestDescribeFrame(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "A", "")
	mustFrame(t, b, "B", "A")
	mustSlot(t, b, "A", "color", ir.SlotText, ir.InheritUnique, ir.IRString("red"))
	mustSlot(t, b, "A", "legs", ir.SlotText, ir.InheritUnique, ir.IRInt(4))
	mustSlot(t, b, "B", "legs", ir.SlotText, ir.InheritUnique, ir.IRInt(2))

	infos, err := b.DescribeFrame("B")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "legs", infos[0].Name)
	assert.Equal(t, "B", infos[0].Owner)
	assert.False(t, infos[0].Inherited)
	assert.Equal(t, "color", infos[1].Name)
	assert.Equal(t, "A", infos[1].Owner)
	assert.True(t, infos[1].Inherited)
}

func TestOperations_AreTraced(t *testing.T) {
	b, rec := newTestBase(t)
	mustFrame(t, b, "A", "")
	require.NoError(t, b.SetSlotValue("A", "color", ir.IRString("red")))

	ops := rec.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "tok-1", ops[0].Token)
	assert.Equal(t, "tok-2", ops[1].Token)
	assert.Less(t, ops[0].Seq, ops[1].Seq)
	assert.NotEmpty(t, ops[1].ID)
	assert.Equal(t, ir.IRString("red"), ops[1].Args["value"])
}

func TestReparent_SameConflictRejected(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "Bird", "")
	mustFrame(t, b, "Rock", "")
	mustFrame(t, b, "Pebble", "Rock")
	mustSlot(t, b, "Bird", "wings", ir.SlotText, ir.InheritSame, ir.IRInt(2))
	mustSlot(t, b, "Rock", "wings", ir.SlotText, ir.InheritUnique, ir.IRInt(0))

	err := b.Reparent("Rock", "Bird")
	require.Error(t, err)
	assert.True(t, IsInvariantViolation(err))
	assert.Contains(t, err.Error(), "Same inheritance")

	f, _ := b.Frame("Rock")
	assert.Equal(t, "", f.Parent())
	v, _ := mustGet(t, b, "Rock", "wings")
	assert.Equal(t, ir.IRInt(0), v)

	// Pebble holds no local wings slot, so it may move under Bird.
	require.NoError(t, b.Reparent("Pebble", "Bird"))
	v, _ = mustGet(t, b, "Pebble", "wings")
	assert.Equal(t, ir.IRInt(2), v)
}

func TestAddSlot_StoresNormalizedEnums(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "A", "")
	mustFrame(t, b, "B", "A")
	require.NoError(t, b.AddSlot("A", "x", "text", "same", ir.IRString("v")))

	info, err := b.DescribeSlot("A", "x")
	require.NoError(t, err)
	assert.Equal(t, ir.SlotText, info.Type)
	assert.Equal(t, ir.InheritSame, info.Inheritance)

	err = b.AddSlot("B", "x", ir.SlotText, ir.InheritUnique, ir.IRString("mine"))
	assert.True(t, IsInvariantViolation(err), "a lowercase same still forbids overrides")

	require.NoError(t, b.AddSlot("B", "code", "lisp", "", nil))
	got, err := b.FindFrames([]string{"@type=lisp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, got)

	assert.True(t, IsInvariantViolation(b.AddSlot("A", "y", "NUMBER", ir.InheritUnique, nil)))
	assert.True(t, IsInvariantViolation(b.AddSlot("A", "y", ir.SlotText, "shared", nil)))
}

func TestDescribeSlot(t *testing.T) {
	b, _ := newTestBase(t)
	mustFrame(t, b, "A", "")
	mustFrame(t, b, "B", "A")
	mustSlot(t, b, "A", "color", ir.SlotText, ir.InheritUnique, ir.IRString("red"))
	mustSlot(t, b, "B", "size", ir.SlotText, ir.InheritUnique, nil)

	info, err := b.DescribeSlot("B", "color")
	require.NoError(t, err)
	assert.Equal(t, "A", info.Owner)
	assert.True(t, info.Inherited)
	assert.Equal(t, ir.IRString("red"), info.Value)

	info, err = b.DescribeSlot("B", "size")
	require.NoError(t, err)
	assert.Equal(t, "B", info.Owner)
	assert.False(t, info.Inherited)
	assert.False(t, info.HasValue)

	_, err = b.DescribeSlot("Ghost", "color")
	assert.True(t, IsNotFound(err))
	_, err = b.DescribeSlot("A", "size")
	assert.True(t, IsNotFound(err))
}
