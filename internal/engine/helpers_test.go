package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/framekb/internal/ir"
	"github.com/roach88/framekb/internal/queryir"
	"github.com/roach88/framekb/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBase(t *testing.T, opts ...Option) (*FrameBase, *testutil.MemRecorder) {
	t.Helper()
	rec := &testutil.MemRecorder{}
	opts = append([]Option{
		WithRecorder(rec),
		WithTokenGenerator(NewSequenceGenerator("tok")),
		WithLogger(quietLogger()),
	}, opts...)
	return New(opts...), rec
}

func mustFrame(t *testing.T, b *FrameBase, name, parent string) {
	t.Helper()
	_, err := b.AddFrame(name, parent)
	require.NoError(t, err)
}

func mustSlot(t *testing.T, b *FrameBase, frame, name string, typ ir.SlotType, inh ir.Inheritance, v ir.IRValue) {
	t.Helper()
	require.NoError(t, b.AddSlot(frame, name, typ, inh, v))
}

func mustGet(t *testing.T, b *FrameBase, frame, slot string) (ir.IRValue, bool) {
	t.Helper()
	v, ok, err := b.GetSlotValue(frame, slot)
	require.NoError(t, err)
	return v, ok
}

func lastOutcome(rec *testutil.MemRecorder, op ir.OpName) string {
	last, _ := rec.Last(op)
	return last.Outcome
}

func mustParse(t *testing.T, conditions ...string) queryir.And {
	t.Helper()
	p, err := queryir.Parse(conditions)
	require.NoError(t, err)
	return p
}
