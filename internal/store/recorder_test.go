package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/framekb/internal/engine"
	"github.com/roach88/framekb/internal/ir"
)

// The store records a real engine session end to end.
func TestStore_AsEngineRecorder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	b := engine.New(
		engine.WithRecorder(s),
		engine.WithTokenGenerator(engine.NewSequenceGenerator("op")),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	_, err := b.AddFrame("Bird", "")
	require.NoError(t, err)
	require.NoError(t, b.AttachProcedure("Bird", "sound", ir.DemonIfNeeded, ir.ProcPrint, "tweet"))
	for range 3 {
		_, _, err := b.GetSlotValue("Bird", "sound")
		require.NoError(t, err)
	}
	_, err = b.AddFrame("Bird", "")
	require.Error(t, err)

	n, err := s.CountFirings(ctx, "Bird", "sound", ir.DemonIfNeeded)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	firings, err := s.ReadFirings(ctx, mustParse(t, "token=op-3"))
	require.NoError(t, err)
	require.Len(t, firings, 1)
	assert.Equal(t, "tweet", firings[0].Result)

	rejected, err := s.ReadOperations(ctx, mustParse(t, "outcome=rejected"))
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, ir.OpAddFrame, rejected[0].Op)
	assert.Contains(t, rejected[0].Detail, "already exists")
}
