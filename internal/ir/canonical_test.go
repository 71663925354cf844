package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_Scalars(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-7), "-7"},
		{"bool", IRBool(true), "true"},
		{"plain string", "x", `"x"`},
		{"plain int64", int64(9), "9"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"string slice", []string{"a", "b"}, `["a","b"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	obj := IRObject{
		"zebra": IRInt(1),
		"alpha": IRObject{"b": IRBool(false), "a": IRString("x")},
	}

	out, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"a":"x","b":false},"zebra":1}`, string(out))
}

func TestMarshalCanonical_Escaping(t *testing.T) {
	out, err := MarshalCanonical(IRString("a\"b\\c\n<&> \x01"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\\\"b\\\\c\\n<&> \\u0001\"", string(out))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	// "e" + combining acute accent normalizes to a single code point.
	out, err := MarshalCanonical(IRString("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(out))
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(3.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(IRObject{"k": nil})
	assert.Error(t, err)
}

func TestOperationID_Deterministic(t *testing.T) {
	args := IRObject{"frame": IRString("Bird")}

	a, err := OperationID("tok", OpAddFrame, args, 1)
	require.NoError(t, err)
	b, err := OperationID("tok", OpAddFrame, args, 1)
	require.NoError(t, err)
	c, err := OperationID("tok", OpAddFrame, args, 2)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestFiringID_DomainSeparated(t *testing.T) {
	f, err := FiringID("tok", "Bird", "color", DemonIfNeeded, 1)
	require.NoError(t, err)
	g, err := FiringID("tok", "Bird", "color", DemonIfAdded, 1)
	require.NoError(t, err)
	assert.NotEqual(t, f, g)
}
