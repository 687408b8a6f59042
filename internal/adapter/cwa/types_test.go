package cwa

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_Unmarshal(t *testing.T) {
	var v struct {
		S Text `json:"s"`
		N Text `json:"n"`
		B Text `json:"b"`
		Z Text `json:"z"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"s":" 38.5 ","n":-99,"b":true,"z":null}`), &v))

	assert.Equal(t, "38.5", v.S.String())
	f, ok := v.S.Float()
	require.True(t, ok)
	assert.InDelta(t, 38.5, f, 0.001)

	assert.Equal(t, "-99", v.N.String())
	assert.True(t, v.N.IsSentinel())
	_, ok = v.N.Reading()
	assert.False(t, ok)

	assert.Equal(t, "true", v.B.String())
	assert.Empty(t, v.Z.String())
}

func TestText_RejectsObjects(t *testing.T) {
	var v Text
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))
}

func TestText_Int(t *testing.T) {
	n, ok := Text("118").Int()
	require.True(t, ok)
	assert.Equal(t, 118, n)

	_, ok = Text("").Int()
	assert.False(t, ok)
	_, ok = Text("12.5").Int()
	assert.False(t, ok)
}

func TestText_Sentinels(t *testing.T) {
	assert.True(t, Text("-998").IsSentinel())
	assert.True(t, Text("-99.0").IsSentinel())
	assert.False(t, Text("-9").IsSentinel())
	assert.False(t, Text("X").IsSentinel())
}

func TestList_Unmarshal(t *testing.T) {
	type item struct {
		Name string `json:"name"`
	}

	var one List[item]
	require.NoError(t, json.Unmarshal([]byte(`{"name":"a"}`), &one))
	assert.Equal(t, List[item]{{Name: "a"}}, one)

	var many List[item]
	require.NoError(t, json.Unmarshal([]byte(`[{"name":"a"},{"name":"b"}]`), &many))
	assert.Len(t, many, 2)
	assert.Equal(t, "a", many.First().Name)
	assert.Equal(t, "b", many.Last().Name)

	var none List[item]
	require.NoError(t, json.Unmarshal([]byte(`null`), &none))
	assert.Empty(t, none)
	assert.Equal(t, item{}, none.Last())
}

func TestRawList_KeepsElementsUndecoded(t *testing.T) {
	var raw RawList
	require.NoError(t, json.Unmarshal([]byte(`[{"a":1},"bad",{"a":2}]`), &raw))
	require.Len(t, raw, 3)
	assert.JSONEq(t, `"bad"`, string(raw[1]))
}
