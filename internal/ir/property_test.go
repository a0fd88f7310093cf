package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicValidate(t *testing.T) {
	tests := []struct {
		name    string
		value   Atomic
		wantErr bool
	}{
		{"exact string", Exact(String("#fff")), false},
		{"exact null rejected", Exact(Null{}), true},
		{"preset", Preset("large"), false},
		{"preset non-string", Atomic{Type: TypePreset, Value: Int(1)}, true},
		{"ordinal token", OrdinalToken("@spacing.md"), false},
		{"categorical token", CategoricalToken("@color.primary"), false},
		{"token without at", Atomic{Type: TypeThemeCategorical, Value: String("color.primary")}, true},
		{"token without key", CategoricalToken("@color"), true},
		{"computed", Computed("darken", "background.color"), false},
		{"computed literal", Atomic{Type: TypeComputed, Value: String("x")}, true},
		{"computed empty ref", Atomic{Type: TypeComputed, Value: Map{"fn": String("f"), "ref": String("")}}, true},
		{"empty", Empty(), false},
		{"empty with payload", Atomic{Type: TypeEmpty, Value: Int(1)}, true},
		{"inherit", Inherit(), false},
		{"unknown type", Atomic{Type: "BOGUS", Value: Int(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.value.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAtomicTokenRef(t *testing.T) {
	ref, ok := CategoricalToken("@color.primary").TokenRef()
	assert.True(t, ok)
	assert.Equal(t, "@color.primary", ref)

	_, ok = Exact(String("@color.primary")).TokenRef()
	assert.False(t, ok)
}

func TestPropertiesJSONRoundTrip(t *testing.T) {
	props := Properties{
		"color":   CategoricalToken("@color.primary"),
		"opacity": Exact(Float(0.5)),
		"label":   Empty(),
		"border": Compound{
			"width": Exact(Int(1)),
			"color": Computed("darken", "color"),
		},
	}

	data, err := json.Marshal(props)
	require.NoError(t, err)

	var back Properties
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, props, back)
}

func TestPropertiesUnmarshalRejectsInvalid(t *testing.T) {
	var p Properties
	err := json.Unmarshal([]byte(`{"x":{"type":"EMPTY","value":3}}`), &p)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"x":"plain"}`), &p)
	assert.Error(t, err)
}

func TestMergeCompoundPerSubKey(t *testing.T) {
	ancestor := Properties{"border": Compound{"width": Exact(Int(2))}}
	node := Properties{"border": Compound{"color": Exact(String("#000"))}}

	got := Merge(ancestor, node)

	assert.Equal(t, Properties{
		"border": Compound{
			"width": Exact(Int(2)),
			"color": Exact(String("#000")),
		},
	}, got)
	// Inputs are untouched.
	assert.Len(t, ancestor["border"].(Compound), 1)
}

func TestMergeLaterWinsAndInheritDefers(t *testing.T) {
	schema := Properties{"color": Exact(String("red")), "size": Preset("md")}
	variant := Properties{"color": Exact(String("blue"))}
	instance := Properties{
		"color": Inherit(),
		"size":  Empty(),
		"pad":   Compound{"top": Inherit()},
	}

	got := Merge(schema, variant, instance)

	assert.Equal(t, Exact(String("blue")), got["color"])
	assert.Equal(t, Empty(), got["size"])
	_, hasPad := got["pad"]
	assert.False(t, hasPad)
}

func TestPropertiesWithAndWithout(t *testing.T) {
	p := Properties{"border": Compound{"width": Exact(Int(1))}}

	withColor := p.With("border", Compound{"color": Exact(String("#111"))})
	assert.Len(t, withColor["border"].(Compound), 2)
	assert.Len(t, p["border"].(Compound), 1)

	trimmed, changed := withColor.Without("border", "width")
	assert.True(t, changed)
	assert.Equal(t, Compound{"color": Exact(String("#111"))}, trimmed["border"])

	gone, changed := trimmed.Without("border", "color")
	assert.True(t, changed)
	assert.Empty(t, gone)

	same, changed := p.Without("missing", "")
	assert.False(t, changed)
	assert.Equal(t, p, same)

	_, changed = p.Without("border", "style")
	assert.False(t, changed)
}

func TestPropertiesGet(t *testing.T) {
	p := Properties{
		"color":  Exact(String("red")),
		"border": Compound{"width": Exact(Int(1))},
	}

	v, ok := p.Get("border.width")
	require.True(t, ok)
	assert.Equal(t, Exact(Int(1)), v)

	_, ok = p.Get("color.sub")
	assert.False(t, ok)
	_, ok = p.Get("nope")
	assert.False(t, ok)
}
