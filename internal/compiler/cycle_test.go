package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/framekb/internal/ir"
)

func frames(pairs ...string) []ir.FrameDef {
	var defs []ir.FrameDef
	for i := 0; i+1 < len(pairs); i += 2 {
		defs = append(defs, ir.FrameDef{Name: pairs[i], Parent: pairs[i+1]})
	}
	return defs
}

func TestParentCycles(t *testing.T) {
	tests := []struct {
		name string
		defs []ir.FrameDef
		want [][]string
	}{
		{"tree", frames("A", "", "B", "A", "C", "A"), [][]string{}},
		{"self parent", frames("A", "A"), [][]string{{"A", "A"}}},
		{"two cycle", frames("A", "B", "B", "A"), [][]string{{"A", "B", "A"}}},
		{"cycle beside tree", frames("R", "", "X", "Z", "Y", "X", "Z", "Y"), [][]string{{"X", "Z", "Y", "X"}}},
		{"external parent", frames("A", "Outside"), [][]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParentCycles(tt.defs))
		})
	}
}

func TestOrderParentsFirst(t *testing.T) {
	defs := frames("Robin", "Bird", "Bird", "Animal", "Animal", "", "Rock", "")

	ordered, err := OrderParentsFirst(defs)
	require.NoError(t, err)

	names := make([]string, len(ordered))
	for i, d := range ordered {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"Animal", "Rock", "Bird", "Robin"}, names)
}

func TestOrderParentsFirst_Cycle(t *testing.T) {
	_, err := OrderParentsFirst(frames("A", "B", "B", "A"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A -> B -> A")
}
