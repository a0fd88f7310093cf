package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLitSealed(t *testing.T) {
	var _ Lit = Null{}
	var _ Lit = String("x")
	var _ Lit = Int(1)
	var _ Lit = Float(1.5)
	var _ Lit = Bool(true)
	var _ Lit = List{String("a")}
	var _ Lit = Map{"k": Int(1)}
}

func TestParseLit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Lit
	}{
		{"string", `"hi"`, String("hi")},
		{"int", `12`, Int(12)},
		{"float", `0.25`, Float(0.25)},
		{"exponent is float", `1e2`, Float(100)},
		{"bool", `false`, Bool(false)},
		{"null", `null`, Null{}},
		{"list", `[1,"a"]`, List{Int(1), String("a")}},
		{"map", `{"x":{"y":true}}`, Map{"x": Map{"y": Bool(true)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLit([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseLitErrors(t *testing.T) {
	_, err := ParseLit([]byte(""))
	assert.Error(t, err)

	_, err = ParseLit([]byte("99999999999999999999"))
	assert.Error(t, err)
}

func TestMapMarshalJSONSorted(t *testing.T) {
	data, err := json.Marshal(Map{"b": Int(1), "a": List{Null{}, Float(1.5)}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":[null,1.5],"b":1}`, string(data))
}

func TestFromGoAndBack(t *testing.T) {
	in := map[string]any{
		"name":  "primary",
		"size":  12,
		"ratio": 0.5,
		"tags":  []any{"a", true},
		"none":  nil,
	}

	l, err := FromGo(in)
	require.NoError(t, err)
	assert.Equal(t, Map{
		"name":  String("primary"),
		"size":  Int(12),
		"ratio": Float(0.5),
		"tags":  List{String("a"), Bool(true)},
		"none":  Null{},
	}, l)

	back := ToGo(l).(map[string]any)
	assert.Equal(t, "primary", back["name"])
	assert.Equal(t, int64(12), back["size"])
	assert.Nil(t, back["none"])
}

func TestFromGoUnsupported(t *testing.T) {
	_, err := FromGo(struct{}{})
	assert.Error(t, err)
}
