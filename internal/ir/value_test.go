package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	tests := []struct {
		name    string
		in      IRValue
		want    string
		present bool
	}{
		{"absent", nil, "", false},
		{"string", IRString("red"), "red", true},
		{"empty string", IRString(""), "", true},
		{"int", IRInt(3), "3", true},
		{"bool", IRBool(true), "true", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Text(tt.in)
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestText_AbsentNeverLooksLikeALiteral(t *testing.T) {
	got, ok := Text(nil)
	assert.False(t, ok)
	assert.NotEqual(t, "None", got)
}

func TestFromAny(t *testing.T) {
	v, err := FromAny("x")
	require.NoError(t, err)
	assert.Equal(t, IRString("x"), v)

	v, err = FromAny(float64(4))
	require.NoError(t, err)
	assert.Equal(t, IRInt(4), v)

	v, err = FromAny(map[string]any{"a": []any{1, true}})
	require.NoError(t, err)
	assert.Equal(t, IRObject{"a": IRArray{IRInt(1), IRBool(true)}}, v)

	_, err = FromAny(1.5)
	assert.Error(t, err)

	_, err = FromAny(nil)
	assert.Error(t, err)
}

func TestToAny_RoundTrip(t *testing.T) {
	in := IRObject{"n": IRInt(2), "s": IRString("v"), "l": IRArray{IRBool(false)}}
	back, err := FromAny(ToAny(in))
	require.NoError(t, err)
	assert.True(t, Equal(in, back))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, IRString("")))
	assert.False(t, Equal(IRString("1"), IRInt(1)))
	assert.True(t, Equal(IRInt(1), IRInt(1)))
}

func TestUnmarshalIRValue(t *testing.T) {
	v, err := UnmarshalIRValue([]byte(`{"a":1,"b":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, IRObject{"a": IRInt(1), "b": IRString("x")}, v)

	_, err = UnmarshalIRValue([]byte(`1.25`))
	assert.Error(t, err)

	_, err = UnmarshalIRValue([]byte(`null`))
	assert.Error(t, err)
}

func TestParseTags(t *testing.T) {
	st, err := ParseSlotType("lisp")
	require.NoError(t, err)
	assert.Equal(t, SlotLisp, st)
	_, err = ParseSlotType("NUMBER")
	assert.Error(t, err)

	inh, err := ParseInheritance("")
	require.NoError(t, err)
	assert.Equal(t, InheritUnique, inh)
	inh, err = ParseInheritance("SAME")
	require.NoError(t, err)
	assert.Equal(t, InheritSame, inh)

	dk, err := ParseDemonKind("if-needed")
	require.NoError(t, err)
	assert.Equal(t, DemonIfNeeded, dk)
	dk, err = ParseDemonKind("")
	require.NoError(t, err)
	assert.Equal(t, DemonNone, dk)

	pk, err := ParseProcedureKind("find")
	require.NoError(t, err)
	assert.Equal(t, ProcFind, pk)
	_, err = ParseProcedureKind("EVAL")
	assert.Error(t, err)
}
