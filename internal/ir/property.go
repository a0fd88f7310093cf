package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ValueType tags an Atomic value and determines the shape of its payload.
type ValueType string

const (
	// TypeExact carries a literal payload.
	TypeExact ValueType = "EXACT"
	// TypePreset carries the name of a catalog preset.
	TypePreset ValueType = "PRESET"
	// TypeThemeOrdinal carries a token reference into an ordered theme scale.
	TypeThemeOrdinal ValueType = "THEME_ORDINAL"
	// TypeThemeCategorical carries a token reference into an unordered theme table.
	TypeThemeCategorical ValueType = "THEME_CATEGORICAL"
	// TypeComputed carries {fn, ref}: a function tag applied to another property path.
	TypeComputed ValueType = "COMPUTED"
	// TypeEmpty explicitly clears a value. Payload is always Null.
	TypeEmpty ValueType = "EMPTY"
	// TypeInherit defers to the next layer down during merge. Payload is always Null.
	TypeInherit ValueType = "INHERIT"
)

var validValueTypes = map[ValueType]bool{
	TypeExact:            true,
	TypePreset:           true,
	TypeThemeOrdinal:     true,
	TypeThemeCategorical: true,
	TypeComputed:         true,
	TypeEmpty:            true,
	TypeInherit:          true,
}

// Valid reports whether t is a known value type.
func (t ValueType) Valid() bool {
	return validValueTypes[t]
}

// IsToken reports whether t carries a theme token reference.
func (t ValueType) IsToken() bool {
	return t == TypeThemeOrdinal || t == TypeThemeCategorical
}

// Value is a sealed interface for property values.
// Only Atomic and Compound implement it.
type Value interface {
	propValue()
}

// Atomic is a single typed property value.
type Atomic struct {
	Type  ValueType
	Value Lit
}

func (Atomic) propValue() {}

// Compound groups atomic sub-values (border, background, font, shadow,
// gradient, margin, padding, corners, position).
type Compound map[string]Atomic

func (Compound) propValue() {}

// Exact creates an EXACT value.
func Exact(v Lit) Atomic { return Atomic{Type: TypeExact, Value: v} }

// Preset creates a PRESET value.
func Preset(name string) Atomic { return Atomic{Type: TypePreset, Value: String(name)} }

// OrdinalToken creates a THEME_ORDINAL value referencing ref.
func OrdinalToken(ref string) Atomic { return Atomic{Type: TypeThemeOrdinal, Value: String(ref)} }

// CategoricalToken creates a THEME_CATEGORICAL value referencing ref.
func CategoricalToken(ref string) Atomic {
	return Atomic{Type: TypeThemeCategorical, Value: String(ref)}
}

// Computed creates a COMPUTED value applying fn to the property at ref.
func Computed(fn, ref string) Atomic {
	return Atomic{Type: TypeComputed, Value: Map{"fn": String(fn), "ref": String(ref)}}
}

// Empty creates an EMPTY value.
func Empty() Atomic { return Atomic{Type: TypeEmpty, Value: Null{}} }

// Inherit creates an INHERIT value.
func Inherit() Atomic { return Atomic{Type: TypeInherit, Value: Null{}} }

// TokenRef returns the token reference carried by a token-typed value.
func (a Atomic) TokenRef() (string, bool) {
	if !a.Type.IsToken() {
		return "", false
	}
	s, ok := a.Value.(String)
	return string(s), ok
}

// Validate checks that the payload matches the type tag.
func (a Atomic) Validate() error {
	switch a.Type {
	case TypeExact:
		switch a.Value.(type) {
		case nil, Null:
			return fmt.Errorf("EXACT requires a non-null payload (use EMPTY)")
		}
	case TypePreset:
		if _, ok := a.Value.(String); !ok {
			return fmt.Errorf("PRESET requires a string payload, got %T", a.Value)
		}
	case TypeThemeOrdinal, TypeThemeCategorical:
		s, ok := a.Value.(String)
		if !ok {
			return fmt.Errorf("%s requires a token reference, got %T", a.Type, a.Value)
		}
		if _, err := ParseTokenRef(string(s)); err != nil {
			return fmt.Errorf("%s: %w", a.Type, err)
		}
	case TypeComputed:
		m, ok := a.Value.(Map)
		if !ok || len(m) != 2 {
			return fmt.Errorf("COMPUTED requires {fn, ref}, got %T", a.Value)
		}
		if _, ok := m["fn"].(String); !ok {
			return fmt.Errorf("COMPUTED fn must be a string")
		}
		ref, ok := m["ref"].(String)
		if !ok || ref == "" {
			return fmt.Errorf("COMPUTED ref must be a property path")
		}
	case TypeEmpty, TypeInherit:
		switch a.Value.(type) {
		case nil, Null:
		default:
			return fmt.Errorf("%s requires a null payload, got %T", a.Type, a.Value)
		}
	default:
		return fmt.Errorf("unknown value type %q", a.Type)
	}
	return nil
}

type atomicJSON struct {
	Type  ValueType       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes an Atomic as {"type": ..., "value": ...} with a
// canonical payload.
func (a Atomic) MarshalJSON() ([]byte, error) {
	payload, err := MarshalCanonical(a.Value)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", a.Type, err)
	}
	return json.Marshal(atomicJSON{Type: a.Type, Value: payload})
}

// UnmarshalJSON decodes an Atomic and validates it.
func (a *Atomic) UnmarshalJSON(data []byte) error {
	var raw atomicJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var v Lit = Null{}
	if len(raw.Value) > 0 {
		parsed, err := ParseLit(raw.Value)
		if err != nil {
			return fmt.Errorf("%s payload: %w", raw.Type, err)
		}
		v = parsed
	}
	*a = Atomic{Type: raw.Type, Value: v}
	return a.Validate()
}

// Properties is a partial dictionary from property key to Value.
type Properties map[string]Value

// UnmarshalJSON decodes each entry as an Atomic when it carries a string
// "type" field, otherwise as a Compound of atomics.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Properties, len(raw))
	for k, v := range raw {
		val, err := decodeValue(v)
		if err != nil {
			return fmt.Errorf("property %q: %w", k, err)
		}
		out[k] = val
	}
	*p = out
	return nil
}

func decodeValue(data []byte) (Value, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("property value must be an object: %w", err)
	}
	if t, ok := fields["type"]; ok && bytes.HasPrefix(bytes.TrimSpace(t), []byte{'"'}) {
		var a Atomic
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	}
	c := make(Compound, len(fields))
	for sub, raw := range fields {
		var a Atomic
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("sub-key %q: %w", sub, err)
		}
		c[sub] = a
	}
	return c, nil
}

// Validate checks every atomic value in the map.
func (p Properties) Validate() error {
	for _, k := range p.Keys() {
		switch v := p[k].(type) {
		case Atomic:
			if err := v.Validate(); err != nil {
				return fmt.Errorf("property %q: %w", k, err)
			}
		case Compound:
			for sub, a := range v {
				if err := a.Validate(); err != nil {
					return fmt.Errorf("property %q.%s: %w", k, sub, err)
				}
			}
		default:
			return fmt.Errorf("property %q: unsupported value %T", k, v)
		}
	}
	return nil
}

// Keys returns property keys in sorted order.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy safe to modify. Compound groups are copied too.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		if c, ok := v.(Compound); ok {
			v = c.clone()
		}
		out[k] = v
	}
	return out
}

func (c Compound) clone() Compound {
	out := make(Compound, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Get looks up a property by key or by "key.sub" path.
func (p Properties) Get(path string) (Value, bool) {
	key, sub, hasSub := strings.Cut(path, ".")
	v, ok := p[key]
	if !ok {
		return nil, false
	}
	if !hasSub {
		return v, true
	}
	c, ok := v.(Compound)
	if !ok {
		return nil, false
	}
	a, ok := c[sub]
	return a, ok
}

// With returns a copy of p with key set to v. A Compound value is merged
// into an existing Compound per sub-key.
func (p Properties) With(key string, v Value) Properties {
	out := p.Clone()
	if out == nil {
		out = Properties{}
	}
	if c, ok := v.(Compound); ok {
		if prev, ok := out[key].(Compound); ok {
			merged := prev.clone()
			for sub, a := range c {
				merged[sub] = a
			}
			out[key] = merged
			return out
		}
		out[key] = c.clone()
		return out
	}
	out[key] = v
	return out
}

// Without returns a copy of p with key (or key's sub-key when sub is
// non-empty) removed. The boolean reports whether anything was removed.
// A Compound left without sub-keys is removed entirely.
func (p Properties) Without(key, sub string) (Properties, bool) {
	v, ok := p[key]
	if !ok {
		return p, false
	}
	if sub == "" {
		out := p.Clone()
		delete(out, key)
		return out, true
	}
	c, ok := v.(Compound)
	if !ok {
		return p, false
	}
	if _, ok := c[sub]; !ok {
		return p, false
	}
	out := p.Clone()
	trimmed := out[key].(Compound)
	delete(trimmed, sub)
	if len(trimmed) == 0 {
		delete(out, key)
	}
	return out, true
}

// Merge overlays layers left to right; later layers win key by key.
// Compound values merge per sub-key, so overriding border.color keeps an
// earlier border.width. INHERIT values never override.
func Merge(layers ...Properties) Properties {
	out := Properties{}
	for _, layer := range layers {
		for k, v := range layer {
			switch val := v.(type) {
			case Atomic:
				if val.Type == TypeInherit {
					continue
				}
				out[k] = val
			case Compound:
				merged, ok := out[k].(Compound)
				if ok {
					merged = merged.clone()
				} else {
					merged = make(Compound, len(val))
				}
				for sub, a := range val {
					if a.Type == TypeInherit {
						continue
					}
					merged[sub] = a
				}
				if len(merged) > 0 {
					out[k] = merged
				}
			}
		}
	}
	return out
}
