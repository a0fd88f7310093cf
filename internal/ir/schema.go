package ir

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SchemaProperty is a catalog default plus its design-time restriction.
type SchemaProperty struct {
	Default Value `json:"default"`
	// Allowed lists permitted literals for authoring tools. It is dropped
	// once properties are resolved.
	Allowed []Lit `json:"allowed,omitempty"`
}

// ChildSpec is one entry of a component's canonical child structure.
type ChildSpec struct {
	Component  ComponentID `json:"component"`
	Properties Properties  `json:"properties,omitempty"`
}

// ComponentSchema is the canonical shape of a component kind.
type ComponentSchema struct {
	Component  ComponentID               `json:"component"`
	Label      string                    `json:"label"`
	Level      Level                     `json:"level"`
	Properties map[string]SchemaProperty `json:"properties,omitempty"`
	Children   []ChildSpec               `json:"children,omitempty"`
}

// Defaults returns the schema's default values with allowed-value
// metadata stripped.
func (s *ComponentSchema) Defaults() Properties {
	out := make(Properties, len(s.Properties))
	for k, p := range s.Properties {
		if p.Default == nil {
			continue
		}
		if c, ok := p.Default.(Compound); ok {
			out[k] = c.clone()
			continue
		}
		out[k] = p.Default
	}
	return out
}

// ThemeOption is one entry of a theme section.
type ThemeOption struct {
	// Name is the display name shown to users.
	Name  string `json:"name"`
	Value Lit    `json:"value"`
	// Derived marks stepped or computed tokens that cannot be detached to
	// a literal.
	Derived bool `json:"derived,omitempty"`
}

// UnmarshalJSON decodes the option value into the matching Lit type.
func (o *ThemeOption) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name    string          `json:"name"`
		Value   json.RawMessage `json:"value"`
		Derived bool            `json:"derived"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var v Lit = Null{}
	if len(raw.Value) > 0 {
		parsed, err := ParseLit(raw.Value)
		if err != nil {
			return fmt.Errorf("theme option %q: %w", raw.Name, err)
		}
		v = parsed
	}
	*o = ThemeOption{Name: raw.Name, Value: v, Derived: raw.Derived}
	return nil
}

// Theme is a named set of option tables keyed by section then slot.
type Theme struct {
	ID       string                            `json:"id"`
	Name     string                            `json:"name"`
	Sections map[string]map[string]ThemeOption `json:"sections"`
}

// Option looks up a slot by token reference.
func (t *Theme) Option(ref TokenRef) (ThemeOption, bool) {
	sec, ok := t.Sections[ref.Section]
	if !ok {
		return ThemeOption{}, false
	}
	opt, ok := sec[ref.Key]
	return opt, ok
}

// SlotKeys returns a section's slot keys in sorted order.
func (t *Theme) SlotKeys(section string) []string {
	sec := t.Sections[section]
	keys := make([]string, 0, len(sec))
	for k := range sec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TokenRef is a parsed "@section.key" reference.
type TokenRef struct {
	Section string
	Key     string
}

// ParseTokenRef parses "@section.key".
func ParseTokenRef(s string) (TokenRef, error) {
	rest, ok := strings.CutPrefix(s, "@")
	if !ok {
		return TokenRef{}, fmt.Errorf("token reference %q must start with @", s)
	}
	section, key, ok := strings.Cut(rest, ".")
	if !ok || section == "" || key == "" {
		return TokenRef{}, fmt.Errorf("token reference %q must have the form @section.key", s)
	}
	return TokenRef{Section: section, Key: key}, nil
}

// String renders the reference as "@section.key".
func (r TokenRef) String() string {
	return "@" + r.Section + "." + r.Key
}
