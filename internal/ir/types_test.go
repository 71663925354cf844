package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameDef_JSONRoundTrip(t *testing.T) {
	def := FrameDef{
		Name:   "Bird",
		Parent: "Animal",
		Slots: []SlotDef{
			{Name: "covering", Type: SlotText, Inheritance: InheritUnique, Value: IRString("feathers")},
			{Name: "wings", Type: SlotText, Inheritance: InheritSame, Value: IRInt(2)},
			{Name: "flies", Type: SlotBool, Inheritance: InheritUnique, Value: IRBool(true)},
			{Name: "sound", Type: SlotLisp, Inheritance: InheritUnique, IfNeeded: &ProcedureDef{Kind: ProcPrint, Payload: "tweet"}},
		},
	}

	data, err := json.Marshal(def)
	require.NoError(t, err)

	var got FrameDef
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, def, got)
	assert.Nil(t, got.Slots[3].Value)
}

func TestSlotDef_UnmarshalJSON(t *testing.T) {
	var d SlotDef
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x","type":"TEXT","inheritance":"Same","value":null}`), &d))
	assert.Equal(t, SlotDef{Name: "x", Type: SlotText, Inheritance: InheritSame}, d)

	err := json.Unmarshal([]byte(`{"name":"w","value":1.5}`), &d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `slot "w" value`)

	require.Error(t, json.Unmarshal([]byte(`{"name":"w","value":`), &d))
}
