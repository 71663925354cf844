package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/framekb/internal/ir"
	"github.com/roach88/framekb/internal/queryir"
)

func TestCompile_Firings(t *testing.T) {
	p := mustParse(t, "frame=Bird", "demon=IF_NEEDED")

	sql, params, err := Compile(Firings, []string{"id", "seq"}, p)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, seq FROM firings WHERE frame = ? AND demon = ? ORDER BY seq ASC, id COLLATE BINARY ASC",
		sql)
	assert.Equal(t, []any{"Bird", "IF_NEEDED"}, params)
	assert.NotContains(t, sql, "Bird", "values must be parameterized")
}

func TestCompile_EmptyPredicate(t *testing.T) {
	for _, p := range []queryir.Predicate{nil, mustParse(t)} {
		sql, params, err := Compile(Operations, []string{"id"}, p)
		require.NoError(t, err)
		assert.Contains(t, sql, "WHERE 1 = 1 ORDER BY seq ASC")
		assert.Empty(t, params)
	}
}

func TestCompile_BoolColumn(t *testing.T) {
	_, params, err := Compile(Firings, []string{"id"}, mustParse(t, "suppressed=true", "found=false"))
	require.NoError(t, err)
	assert.Equal(t, []any{1, 0}, params)

	_, _, err = Compile(Firings, []string{"id"}, mustParse(t, "found=maybe"))
	assert.Error(t, err)
}

func TestCompile_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		pred  queryir.Predicate
	}{
		{"unknown column", Firings, mustParse(t, "color=red")},
		{"column of other table", Operations, mustParse(t, "frame=Bird")},
		{"injection attempt", Firings, queryir.Equals{Slot: "frame; DROP TABLE firings", Value: "x"}},
		{"type directive", Firings, queryir.HasSlotType{Type: ir.SlotLisp}},
		{"unknown table", Table("frames"), mustParse(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Compile(tt.table, []string{"id"}, tt.pred)
			assert.Error(t, err)
		})
	}
}

func TestColumns(t *testing.T) {
	assert.Equal(t, []string{"op", "outcome", "token"}, Columns(Operations))
	assert.Contains(t, Columns(Firings), "owner")
}

func mustParse(t *testing.T, conditions ...string) queryir.And {
	t.Helper()
	p, err := queryir.Parse(conditions)
	require.NoError(t, err)
	return p
}
